package util

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global zerolog logger. Development gets a
// human readable console writer, test only logs warnings, anything else
// writes JSON lines with caller info.
func InitLogger(appName, env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch env {
	case "development":
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().
			Str("service", appName).
			Logger()
	case "test":
		log.Logger = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).
			With().
			Timestamp().
			Str("service", appName).
			Logger()
	default:
		log.Logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Caller().
			Str("service", appName).
			Logger()
	}
	setSecurityLogger(log.Logger.With().Str("component", "security").Logger())
}
