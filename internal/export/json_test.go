package export

import (
    "bytes"
    "context"
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/spencermiles/jira-extractor/internal/domain"
)

func sample() []domain.Issue {
    return []domain.Issue{{
        ID: "1", Key: "A-1", Summary: "<b>bold</b> & co",
        Labels: []string{}, Components: []string{}, FixVersions: []string{},
        LinkedIssues: []domain.LinkedIssue{}, SprintInfo: []domain.Sprint{}, Changelogs: []domain.ChangelogEntry{},
    }}
}

func TestJSONWriterStdoutCompact(t *testing.T) {
    var buf bytes.Buffer
    w := NewJSONWriter("", false, &buf, zerolog.Nop())
    require.NoError(t, w.Write(context.Background(), sample()))

    out := strings.TrimSpace(buf.String())
    assert.NotContains(t, out, "\n")
    assert.Contains(t, out, `"summary":"<b>bold</b> & co"`)

    var back []map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
    require.Len(t, back, 1)
    assert.Equal(t, "A-1", back[0]["key"])
}

func TestJSONWriterFilePretty(t *testing.T) {
    path := filepath.Join(t.TempDir(), "out.json")
    require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the output"), 0o644))

    w := NewJSONWriter(path, true, nil, zerolog.Nop())
    require.NoError(t, w.Write(context.Background(), sample()))
    require.NoError(t, w.Close())

    b, err := os.ReadFile(path)
    require.NoError(t, err)
    assert.True(t, strings.HasPrefix(string(b), "[\n  {\n    \"id\": \"1\""))
    assert.NotContains(t, string(b), "stale")
}

func TestJSONWriterEmpty(t *testing.T) {
    var buf bytes.Buffer
    w := NewJSONWriter("", true, &buf, zerolog.Nop())
    require.NoError(t, w.Write(context.Background(), nil))
    assert.Equal(t, "[]\n", buf.String())
}
