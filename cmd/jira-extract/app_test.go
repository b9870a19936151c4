package main

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "os"
    "path/filepath"
    "testing"

    "github.com/gin-gonic/gin"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/spencermiles/jira-extractor/internal/config"
)

func baseConfig() config.Config {
    cfg := config.Default()
    cfg.JiraBaseURL = "https://acme.atlassian.net"
    cfg.JiraUsername = "bot@example.com"
    cfg.JiraAPIToken = "token"
    return cfg
}

func TestParseFlagsOverridesEnvironment(t *testing.T) {
    var stderr bytes.Buffer
    cfg, err := parseFlags(baseConfig(), []string{
        "--jql", "project = X",
        "--jira-url", "https://other.example/",
        "--max-results", "20",
        "--include-changelogs=false",
        "--max-workers", "3",
        "-f", "sqlite",
        "--pretty=false",
    }, &stderr)
    require.NoError(t, err)
    assert.Equal(t, "https://other.example", cfg.JiraBaseURL)
    assert.Equal(t, "bot@example.com", cfg.JiraUsername)
    assert.Equal(t, "project = X", cfg.JQL)
    assert.Equal(t, 20, cfg.MaxResults)
    assert.False(t, cfg.IncludeChangelogs)
    assert.Equal(t, 3, cfg.Workers)
    assert.Equal(t, config.FormatSQLite, cfg.Format)
    assert.Equal(t, config.DefaultDatabase, cfg.Database)
    assert.False(t, cfg.Pretty)
}

func TestParseFlagsNoChangelogs(t *testing.T) {
    cfg, err := parseFlags(baseConfig(), []string{"--jql", "project = X", "--no-changelogs"}, &bytes.Buffer{})
    require.NoError(t, err)
    assert.False(t, cfg.IncludeChangelogs)

    cfg, err = parseFlags(baseConfig(), []string{"--jql", "project = X"}, &bytes.Buffer{})
    require.NoError(t, err)
    assert.True(t, cfg.IncludeChangelogs)
}

func TestParseFlagsRequiresJQL(t *testing.T) {
    _, err := parseFlags(baseConfig(), nil, &bytes.Buffer{})
    assert.ErrorIs(t, err, config.ErrMissingJQL)
}

func TestParseFlagsMergesFieldsFile(t *testing.T) {
    path := filepath.Join(t.TempDir(), "fields.yaml")
    require.NoError(t, os.WriteFile(path, []byte("story_points: [customfield_1]\nsprint:\n  - customfield_2\n"), 0o644))
    base := baseConfig()
    base.Fields.StoryPoints = []string{"customfield_0"}

    cfg, err := parseFlags(base, []string{"--jql", "x", "--fields-file", path}, &bytes.Buffer{})
    require.NoError(t, err)
    assert.Equal(t, []string{"customfield_0", "customfield_1"}, cfg.Fields.StoryPoints)
    assert.Equal(t, []string{"customfield_2"}, cfg.Fields.Sprint)
}

func TestRunConfigErrorExitsNonZero(t *testing.T) {
    var stdout, stderr bytes.Buffer
    base := baseConfig()
    base.JiraAPIToken = ""
    code := run(context.Background(), base, []string{"--jql", "x"}, &stdout, &stderr)
    assert.Equal(t, 1, code)
    assert.Contains(t, stderr.String(), "API token is required")
    assert.Empty(t, stdout.String())
}

func TestRunHelp(t *testing.T) {
    var stderr bytes.Buffer
    assert.Equal(t, 0, run(context.Background(), baseConfig(), []string{"--help"}, &bytes.Buffer{}, &stderr))
    assert.Contains(t, stderr.String(), "--jql")
    assert.NotContains(t, stderr.String(), "no-changelogs")
}

func TestRunWritesJSONToStdout(t *testing.T) {
    gin.SetMode(gin.TestMode)
    r := gin.New()
    r.GET("/rest/api/3/search", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"issues": []gin.H{{"id": "1", "key": "X-1", "fields": gin.H{"summary": "hi"}}}})
    })
    srv := httptest.NewServer(r)
    t.Cleanup(srv.Close)

    var stdout, stderr bytes.Buffer
    base := baseConfig()
    base.JiraBaseURL = srv.URL
    code := run(context.Background(), base, []string{"--jql", "x", "--include-changelogs=false", "--pretty=false"}, &stdout, &stderr)
    require.Equal(t, 0, code, stderr.String())

    var out []map[string]any
    require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
    require.Len(t, out, 1)
    assert.Equal(t, "X-1", out[0]["key"])
}
