/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package export

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "os"

    "github.com/rs/zerolog"

    "github.com/spencermiles/jira-extractor/internal/domain"
    "github.com/spencermiles/jira-extractor/internal/logger"
)

// JSONWriter writes all issues as one JSON array, to a file or to stdout.
type JSONWriter struct {
    path   string
    pretty bool
    stdout io.Writer
    log    zerolog.Logger
}

// NewJSONWriter writes to path, or to stdout when path is empty.
func NewJSONWriter(path string, pretty bool, stdout io.Writer, log zerolog.Logger) *JSONWriter {
    if stdout == nil { stdout = os.Stdout }
    return &JSONWriter{path: path, pretty: pretty, stdout: stdout, log: logger.Component(log, "export.json")}
}

func (w *JSONWriter) Write(_ context.Context, issues []domain.Issue) error {
    if issues == nil { issues = []domain.Issue{} }
    if w.path == "" { return w.encode(w.stdout, issues) }

    f, err := os.Create(w.path)
    if err != nil { return fmt.Errorf("create %s: %w", w.path, err) }
    if err := w.encode(f, issues); err != nil {
        f.Close()
        return err
    }
    if err := f.Close(); err != nil { return fmt.Errorf("close %s: %w", w.path, err) }
    w.log.Info().Int("issues", len(issues)).Str("path", w.path).Msg("data saved")
    return nil
}

func (w *JSONWriter) encode(out io.Writer, issues []domain.Issue) error {
    enc := json.NewEncoder(out)
    enc.SetEscapeHTML(false)
    if w.pretty { enc.SetIndent("", "  ") }
    if err := enc.Encode(issues); err != nil { return fmt.Errorf("encode issues: %w", err) }
    return nil
}

func (w *JSONWriter) Close() error { return nil }
