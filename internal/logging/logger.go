package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerSetupParams struct {
	LogFileName   string
	LogToStdout   bool
	LogLevel      string
	LogFormatJSON bool
	// MaxSizeMB is the size a log file grows to before it is rotated.
	MaxSizeMB int
}

// Setup configures the package-level logrus logger. The returned func closes
// the log file, if any.
func Setup(params LoggerSetupParams) func() error {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.LogFileName == "" {
		logrus.SetOutput(os.Stdout)
		logrus.Debugln("writing logs only to STDOUT")
		return func() error { return nil }
	}

	if !strings.HasSuffix(params.LogFileName, ".log") {
		params.LogFileName += ".log"
	}
	maxSize := params.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   params.LogFileName,
		MaxSize:    maxSize, // megabytes
		MaxBackups: 5,
		LocalTime:  true,
		Compress:   true,
	}

	if params.LogToStdout {
		logrus.SetOutput(NewCombinedWriter(os.Stdout, lumberJackLogger))
		logrus.Debugln("writing logs to file and STDOUT")
	} else {
		logrus.SetOutput(lumberJackLogger)
	}
	return lumberJackLogger.Close
}

func GetLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "trace":
		return logrus.TraceLevel
	case "warn", "warning":
		return logrus.WarnLevel
	default:
		return logrus.InfoLevel
	}
}

// CombinedWriter writes to every writer even when one of them fails.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{Writers: writers}
}

func (cw *CombinedWriter) Write(p []byte) (n int, err error) {
	for _, w := range cw.Writers {
		if _, werr := w.Write(p); werr != nil {
			err = multierr.Combine(err, werr)
		}
	}
	// logrus treats a short write as failure; report the full length when any writer succeeded
	if err != nil && len(multierr.Errors(err)) == len(cw.Writers) {
		return 0, err
	}
	return len(p), err
}
