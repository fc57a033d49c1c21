package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mansoorceksport/hutraz/internal/app"
	"github.com/mansoorceksport/hutraz/internal/config"
	"github.com/mansoorceksport/hutraz/internal/logging"
	"github.com/mansoorceksport/hutraz/internal/repository"
	"github.com/mansoorceksport/hutraz/internal/scheduler"
	"github.com/mansoorceksport/hutraz/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	closeLog := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   true,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
		MaxSizeMB:     cfg.Log.MaxSize,
	})
	defer closeLog()

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		OTLPHeaders:    cfg.Telemetry.Headers,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		logrus.Warnf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("Error shutting down OpenTelemetry: %v", err)
		}
	}()

	store, closeStore, err := repository.Open(ctx, cfg)
	if err != nil {
		logrus.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logrus.Warnf("Error closing store: %v", err)
		}
	}()

	hutraz, err := app.NewApp(app.AppDependencies{
		Store:     store,
		Scheduler: scheduler.NewTickerScheduler(),
	})
	if err != nil {
		logrus.Fatalf("Failed to create app: %v", err)
	}
	defer func() {
		if err := hutraz.Close(); err != nil {
			logrus.Warnf("Some state was not saved: %v", err)
		}
	}()

	if err := hutraz.Load(ctx); err != nil {
		logrus.Fatalf("Failed to load state: %v", err)
	}

	printStatus(hutraz)
}

func printStatus(a *app.App) {
	out := os.Stdout
	totals := a.Totals()
	fmt.Fprintf(out, "HUTRAZ %s\n\n", version)
	fmt.Fprintf(out, "Workouts: %d   Sets logged: %d\n", totals.Workouts, totals.SetsLogged)

	week := a.WeekActivity()
	var strip []string
	for _, d := range week.Days {
		mark := "·"
		switch {
		case d.Worked:
			mark = "●"
		case d.Today:
			mark = "○"
		}
		strip = append(strip, d.Weekday.String()[:2]+" "+mark)
	}
	fmt.Fprintf(out, "Last 7 days: %s   (this week: %d)\n", strings.Join(strip, "  "), week.ThisWeek)

	if s := a.SuggestNext(); s != nil {
		fmt.Fprintf(out, "Up next: %s (%s), after %s\n", s.TemplateName, s.FolderName, s.After)
	}

	session := a.Session()
	fmt.Fprintf(out, "\nSession: %s", a.State())
	if session.Name != "" {
		fmt.Fprintf(out, " - %s, %d exercises", session.Name, len(session.Exercises))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "\nTemplates:")
	for _, f := range a.Folders() {
		fmt.Fprintf(out, "  %s (%d)\n", f.Name, len(f.Templates))
		for _, t := range f.Templates {
			fmt.Fprintf(out, "    - %s, %d exercises\n", t.Name, len(t.Exercises))
		}
	}
}
