package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const appName = "textcmd"

type Config struct {
	Level     string
	File      string // empty = stderr only
	MaxSizeMB int
	Console   bool // human-readable stderr output
}

// Init configures the global zerolog logger and returns it. When a file is
// set, records go to both stderr and a rotating file.
func Init(cfg Config) (zerolog.Logger, error) {
	setLogLevel(cfg.Level)

	var stderr io.Writer = os.Stderr
	if cfg.Console {
		stderr = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	writers := []io.Writer{stderr}

	if cfg.File != "" {
		size := cfg.MaxSizeMB
		if size <= 0 {
			size = 10
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    size,
			MaxBackups: 3,
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Str("app", appName).Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger
	return log.Logger, nil
}

// ParseLevel maps a level name to a zerolog level. Unknown names mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func setLogLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
}
