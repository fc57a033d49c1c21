package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/mansoorceksport/hutraz/internal/app"
	"github.com/mansoorceksport/hutraz/internal/config"
	"github.com/mansoorceksport/hutraz/internal/domain"
	"github.com/mansoorceksport/hutraz/internal/repository"
	"github.com/mansoorceksport/hutraz/internal/scheduler"
	"github.com/mansoorceksport/hutraz/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	folders, err := store.Load(ctx, domain.KeyFolders)
	if err != nil {
		log.Fatalf("Failed to read folders: %v", err)
	}
	if len(folders) > 0 && string(folders) != "null" {
		fmt.Println("Folders already exist, nothing to migrate.")
		return
	}

	raw, err := store.Load(ctx, domain.KeyLegacyTemplates)
	if err != nil {
		log.Fatalf("Failed to read legacy templates: %v", err)
	}
	migrated, err := service.MigrateLegacyTemplates(raw)
	if err != nil {
		log.Fatalf("Failed to decode legacy templates: %v", err)
	}
	if len(migrated) == 0 {
		fmt.Println("No legacy templates found.")
		return
	}

	fmt.Printf("Found %d legacy templates:\n", len(migrated[0].Templates))
	for _, t := range migrated[0].Templates {
		fmt.Printf("  %-30s %d exercises, %d sets\n", t.Name, len(t.Exercises), countSets(t))
	}

	if *dryRun {
		fmt.Printf("\n[dry-run] would move them into folder %q\n", domain.DefaultFolderName)
		return
	}

	// Load performs the migration and queues the folders write.
	hutraz, err := app.NewApp(app.AppDependencies{Store: store, Scheduler: scheduler.NewTickerScheduler()})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	if err := hutraz.Load(ctx); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	if err := hutraz.Close(); err != nil {
		log.Fatalf("Failed to save folders: %v", err)
	}
	fmt.Printf("\n✓ Migrated into folder %q\n", domain.DefaultFolderName)
}

func countSets(t domain.Template) int {
	n := 0
	for _, ex := range t.Exercises {
		n += len(ex.Sets)
	}
	return n
}
