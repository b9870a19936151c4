package logger

import (
    "bytes"
    "encoding/json"
    "testing"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/spencermiles/jira-extractor/internal/config"
)

func TestNewWithWriterJSONLeavesGlobalsAlone(t *testing.T) {
    before := zerolog.TimeFieldFormat
    var buf bytes.Buffer
    log := NewWithWriter(config.Config{LogFormat: "json", LogLevel: "info"}, &buf)
    jiraLog := Component(log, "jira")
    jiraLog.Info().Msg("hello")

    assert.Equal(t, before, zerolog.TimeFieldFormat)
    var line map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    assert.Equal(t, "jira", line["component"])
    assert.Equal(t, "hello", line["message"])
    assert.Contains(t, line, "time")
}

func TestNewWithWriterLevel(t *testing.T) {
    var buf bytes.Buffer
    log := NewWithWriter(config.Config{LogFormat: "json", LogLevel: "bogus"}, &buf)
    assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

    log = NewWithWriter(config.Config{LogFormat: "json", LogLevel: "warn"}, &buf)
    log.Info().Msg("dropped")
    assert.Empty(t, buf.String())
}
