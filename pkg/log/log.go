package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger. Console output goes to stderr
// so that check results on stdout stay machine-readable; a file writer is
// added when logFilePath is set and accessible.
func InitLogger(logFilePath string) {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.ANSIC,
		FormatLevel: func(i any) string {
			return colorizeLevel(i.(string))
		},
		FormatMessage: func(i any) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("> %s", i)
		},
	}

	var writers []io.Writer
	writers = append(writers, consoleWriter)

	if logFilePath != "" {
		logDir := filepath.Dir(logFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Warn().Msgf("Could not create log directory '%s', file logging will be disabled: %v", logDir, err)
		} else {
			logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				log.Warn().Msgf("Could not open log file '%s', file logging will be disabled: %v", logFilePath, err)
			} else {
				writers = append(writers, logFile)
			}
		}
	}

	multi := zerolog.MultiLevelWriter(writers...)
	log.Logger = zerolog.New(multi).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// SetLogLevel sets the global logging level.
func SetLogLevel(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Invalid log level '%s'. Using 'info' level.", level)
		return
	}

	zerolog.SetGlobalLevel(logLevel)
}

func colorizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug":
		return "\033[36mDBG\033[0m"
	case "info":
		return "\033[32mINF\033[0m"
	case "warn":
		return "\033[33mWRN\033[0m"
	case "error":
		return "\033[31mERR\033[0m"
	case "fatal":
		return "\033[35mFTL\033[0m"
	default:
		return level
	}
}
