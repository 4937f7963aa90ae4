// Package logging sets up the zerolog logger shared by every component.
// Console output goes to the diagnostic stream at the level chosen with -v;
// everything is also appended to a log file under the XDG state directory.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/libmerge/pkg/paths"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global logger for the -v count. Failing to
// open the log file is not fatal; the console still gets everything.
func SetupLogger(verbosity int, console io.Writer) {
	zerolog.SetGlobalLevel(LevelFor(verbosity))

	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.Kitchen,
		NoColor:    !isTerminal(console),
	}}

	logPath := paths.LogFilePath()
	file, fileErr := openLogFile(logPath)
	if fileErr == nil {
		writers = append(writers, file)
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).With().Timestamp()
	if verbosity >= 2 {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", logPath).Msg("Log file unavailable, logging to console only")
	}
	log.Debug().Int("verbosity", verbosity).Str("logFile", logPath).Msg("Logger initialized")
}

// LevelFor maps the -v count to a zerolog level: warn, info, debug, trace.
func LevelFor(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	case verbosity == 2:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// GetLogger returns the global logger tagged with a component name.
func GetLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ForPrefix tags a component logger with the prefix being worked on.
func ForPrefix(logger zerolog.Logger, prefix string) zerolog.Logger {
	return logger.With().Str("prefix", prefix).Logger()
}

// LogCommand records an external command about to run.
func LogCommand(logger zerolog.Logger, name string, args []string) {
	logger.Info().
		Str("command", name).
		Strs("args", args).
		Msg("Executing command")
}

// LogOperationStart logs the start of an operation and returns a function
// that logs its completion with the elapsed time.
func LogOperationStart(logger zerolog.Logger, operation string) func() {
	start := time.Now()
	logger.Debug().Str("operation", operation).Msg("Operation started")

	return func() {
		logger.Debug().
			Str("operation", operation).
			Dur("duration", time.Since(start)).
			Msg("Operation completed")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func openLogFile(logPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
