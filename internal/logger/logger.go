package logger

import (
    "io"
    "os"
    "time"

    "github.com/rs/zerolog"

    "github.com/spencermiles/jira-extractor/internal/config"
)

// New builds the process logger. Output goes to stderr: stdout may carry the
// JSON export.
func New(cfg config.Config) zerolog.Logger {
    return NewWithWriter(cfg, os.Stderr)
}

func NewWithWriter(cfg config.Config, w io.Writer) zerolog.Logger {
    level, err := zerolog.ParseLevel(cfg.LogLevel)
    if err != nil || cfg.LogLevel == "" { level = zerolog.InfoLevel }
    if cfg.LogFormat == "json" {
        return zerolog.New(w).Level(level).With().Timestamp().Logger()
    }
    output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: cfg.AppEnv != "dev"}
    return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
    return log.With().Str("component", name).Logger()
}
