package domain

import "encoding/json"

// Issue is the canonical, tracker-independent issue record.
type Issue struct {
    ID          string `json:"id"`
    Key         string `json:"key"`
    Summary     string `json:"summary"`
    Description string `json:"description"`
    IssueType   string `json:"issue_type"`
    Status      string `json:"status"`
    Priority    string `json:"priority"`
    Assignee    string `json:"assignee"`
    Reporter    string `json:"reporter"`
    Created     string `json:"created"`
    Updated     string `json:"updated"`
    Resolved    string `json:"resolved"`
    ProjectKey  string `json:"project_key"`
    ProjectName string `json:"project_name"`

    Labels      []string `json:"labels"`
    Components  []string `json:"components"`
    FixVersions []string `json:"fix_versions"`

    StoryPoints  *float64      `json:"story_points"`
    ParentKey    *string       `json:"parent_key"`
    LinkedIssues []LinkedIssue `json:"linked_issues"`
    EpicKey      *string       `json:"epic_key"`
    EpicName     *string       `json:"epic_name"`
    SprintInfo   []Sprint      `json:"sprint_info"`

    Changelogs []ChangelogEntry `json:"changelogs"`

    APIURL string `json:"api_url"`
    WebURL string `json:"web_url"`

    // Raw is the issue exactly as the search endpoint returned it.
    Raw json.RawMessage `json:"-"`
}

// ChangelogEntry is one field change inside one change event.
type ChangelogEntry struct {
    ChangeID   string  `json:"change_id"`
    Author     string  `json:"author"`
    Created    string  `json:"created"`
    FieldName  string  `json:"field_name"`
    FieldType  string  `json:"field_type"`
    FromValue  *string `json:"from_value"`
    ToValue    *string `json:"to_value"`
    FromString *string `json:"from_string"`
    ToString   *string `json:"to_string"`
}

// Sprint is a snapshot of one sprint the issue belongs to.
type Sprint struct {
    ID           *int64 `json:"id,omitempty"`
    Name         string `json:"name"`
    State        string `json:"state,omitempty"`
    StartDate    string `json:"start_date,omitempty"`
    EndDate      string `json:"end_date,omitempty"`
    CompleteDate string `json:"complete_date,omitempty"`
    Goal         string `json:"goal,omitempty"`
    BoardID      *int64 `json:"board_id,omitempty"`
}

const (
    LinkInward  = "inward"
    LinkOutward = "outward"
)

type LinkedIssue struct {
    Type      string `json:"type"`
    Direction string `json:"direction"`
    IssueKey  string `json:"issue_key"`
    Summary   string `json:"summary"`
}
