package services

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/gin-gonic/gin"
    "github.com/rs/zerolog"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/spencermiles/jira-extractor/internal/adapters/jira"
    "github.com/spencermiles/jira-extractor/internal/config"
    "github.com/spencermiles/jira-extractor/internal/domain"
    "github.com/spencermiles/jira-extractor/internal/export"
)

type fakeJira struct {
    raws       []domain.RawIssue
    searchErr  error
    fields     []jira.FieldDef
    fieldsErr  error
    changelogs map[string][]domain.ChangeEvent

    gotOpts jira.SearchOptions
    gotKeys []string
}

func (f *fakeJira) SearchIssues(_ context.Context, _ string, opts jira.SearchOptions) ([]domain.RawIssue, error) {
    f.gotOpts = opts
    return f.raws, f.searchErr
}

func (f *fakeJira) FetchChangelogs(_ context.Context, keys []string) map[string][]domain.ChangeEvent {
    f.gotKeys = keys
    return f.changelogs
}

func (f *fakeJira) Fields(context.Context) ([]jira.FieldDef, error) { return f.fields, f.fieldsErr }

type memSink struct {
    writes [][]domain.Issue
}

func (m *memSink) Write(_ context.Context, issues []domain.Issue) error {
    m.writes = append(m.writes, issues)
    return nil
}

func (m *memSink) Close() error { return nil }

func raw(t *testing.T, doc string) domain.RawIssue {
    t.Helper()
    var r domain.RawIssue
    require.NoError(t, json.Unmarshal([]byte(doc), &r))
    return r
}

func testConfig() config.Config {
    cfg := config.Default()
    cfg.JQL = "project = P"
    cfg.MaxResults = 25
    return cfg
}

func TestRunNormalizesAndWrites(t *testing.T) {
    fj := &fakeJira{
        raws: []domain.RawIssue{
            raw(t, `{"id":"1","key":"P-1","fields":{"summary":"one"}}`),
            raw(t, `{"id":"2","key":"P-2","fields":"broken"}`),
            raw(t, `{"id":"3","key":"P-3","fields":{"summary":"three"}}`),
        },
        changelogs: map[string][]domain.ChangeEvent{
            "P-1": {{ID: "9", Items: []domain.ChangeItem{{Field: "status"}, {Field: "priority"}}}},
            "P-2": {},
            "P-3": {},
        },
    }
    sink := &memSink{}
    svc := New(testConfig(), zerolog.Nop(), fj, sink)

    res, err := svc.Run(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 3, res.Fetched)
    assert.Equal(t, 2, res.Written)
    assert.Equal(t, 1, res.Skipped)
    assert.Equal(t, 2, res.ChangelogEntries)

    assert.Equal(t, jira.SearchOptions{Limit: 25, PageSize: 100, Expand: true}, fj.gotOpts)
    assert.Equal(t, []string{"P-1", "P-2", "P-3"}, fj.gotKeys)
    require.Len(t, sink.writes, 1)
    require.Len(t, sink.writes[0], 2)
    assert.Equal(t, "P-1", sink.writes[0][0].Key)
    assert.Len(t, sink.writes[0][0].Changelogs, 2)
    assert.Equal(t, "P-3", sink.writes[0][1].Key)
}

func TestRunWithoutChangelogs(t *testing.T) {
    fj := &fakeJira{raws: []domain.RawIssue{raw(t, `{"id":"1","key":"P-1","fields":{}}`)}}
    sink := &memSink{}
    cfg := testConfig()
    cfg.IncludeChangelogs = false

    res, err := New(cfg, zerolog.Nop(), fj, sink).Run(context.Background())
    require.NoError(t, err)
    assert.Nil(t, fj.gotKeys)
    assert.False(t, fj.gotOpts.Expand)
    assert.Equal(t, 0, res.ChangelogEntries)
    require.Len(t, sink.writes, 1)
    assert.Empty(t, sink.writes[0][0].Changelogs)
}

func TestRunEmptyResultWritesNothing(t *testing.T) {
    sink := &memSink{}
    res, err := New(testConfig(), zerolog.Nop(), &fakeJira{}, sink).Run(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 0, res.Fetched)
    assert.Empty(t, sink.writes)
}

func TestRunSearchFailureAborts(t *testing.T) {
    sink := &memSink{}
    _, err := New(testConfig(), zerolog.Nop(), &fakeJira{searchErr: errors.New("boom")}, sink).Run(context.Background())
    require.Error(t, err)
    assert.Contains(t, err.Error(), "boom")
    assert.Empty(t, sink.writes)
}

func TestRunUsesDiscoveredFields(t *testing.T) {
    fj := &fakeJira{
        raws:   []domain.RawIssue{raw(t, `{"id":"1","key":"P-1","fields":{"customfield_30000":8}}`)},
        fields: []jira.FieldDef{{ID: "customfield_30000", Name: "Story Points", Custom: true}},
    }
    sink := &memSink{}
    cfg := testConfig()
    cfg.DiscoverFields = true

    _, err := New(cfg, zerolog.Nop(), fj, sink).Run(context.Background())
    require.NoError(t, err)
    require.NotNil(t, sink.writes[0][0].StoryPoints)
    assert.Equal(t, 8.0, *sink.writes[0][0].StoryPoints)
}

func TestRunDiscoveryFailureIsNotFatal(t *testing.T) {
    fj := &fakeJira{
        raws:      []domain.RawIssue{raw(t, `{"id":"1","key":"P-1","fields":{}}`)},
        fieldsErr: errors.New("forbidden"),
    }
    sink := &memSink{}
    cfg := testConfig()
    cfg.DiscoverFields = true

    _, err := New(cfg, zerolog.Nop(), fj, sink).Run(context.Background())
    require.NoError(t, err)
    assert.Len(t, sink.writes, 1)
}

func TestRunAgainstFakeJira(t *testing.T) {
    gin.SetMode(gin.TestMode)
    r := gin.New()
    r.GET("/rest/api/3/search", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"issues": []gin.H{{
            "id": "100", "key": "E-1", "self": "http://" + c.Request.Host + "/rest/api/3/issue/100",
            "fields": gin.H{
                "summary":     "Export me",
                "description": gin.H{"type": "doc", "content": []gin.H{{"type": "paragraph", "content": []gin.H{{"type": "text", "text": "Hello"}}}}},
                "status":      gin.H{"name": "Done"},
            },
        }}})
    })
    r.GET("/rest/api/3/issue/:key/changelog", func(c *gin.Context) {
        c.JSON(http.StatusOK, gin.H{"isLast": true, "values": []gin.H{{
            "id": "1", "author": gin.H{"displayName": "Ada"}, "created": "2024-02-01T00:00:00.000+0000",
            "items": []gin.H{{"field": "status", "fieldtype": "jira", "fromString": "Open", "toString": "Done"}},
        }}})
    })
    srv := httptest.NewServer(r)
    t.Cleanup(srv.Close)

    cfg := testConfig()
    cfg.JiraBaseURL = srv.URL
    cfg.JiraUsername = "u"
    cfg.JiraAPIToken = "t"
    cfg.Pretty = false
    require.NoError(t, cfg.Validate())

    var out bytes.Buffer
    sink := export.NewJSONWriter("", cfg.Pretty, &out, zerolog.Nop())
    svc := New(cfg, zerolog.Nop(), jira.NewClient(cfg, zerolog.Nop()), sink)

    res, err := svc.Run(context.Background())
    require.NoError(t, err)
    assert.Equal(t, 1, res.Written)

    var issues []domain.Issue
    require.NoError(t, json.Unmarshal(out.Bytes(), &issues))
    require.Len(t, issues, 1)
    assert.Equal(t, "Hello", issues[0].Description)
    assert.Equal(t, srv.URL+"/browse/E-1", issues[0].WebURL)
    require.Len(t, issues[0].Changelogs, 1)
    assert.Equal(t, "Done", *issues[0].Changelogs[0].ToString)
}
