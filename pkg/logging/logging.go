// auditcfg/pkg/logging/logging.go

package logging

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var Logger zerolog.Logger

func init() {
	logLevel := zerolog.InfoLevel
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if level, err := zerolog.ParseLevel(envLevel); err == nil {
			logLevel = level
		}
	}

	zerolog.SetGlobalLevel(logLevel)
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// ConfigureLogger sets the global level and routes both Logger and the
// zerolog global logger to the requested output: console, json or file.
func ConfigureLogger(logLevel, logOutput string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("Invalid log level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	switch logOutput {
	case "console":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "3:04PM"})
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	case "file":
		file, err := os.OpenFile("auditcfg.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("Failed to create log file: %w", err)
		}
		log.Logger = log.Output(file)
	default:
		return fmt.Errorf("Invalid log output option %q", logOutput)
	}
	Logger = log.Logger
	return nil
}
