package repo

import (
    "encoding/json"
    "fmt"
    "strings"

    "github.com/spencermiles/jira-extractor/internal/domain"
)

// Column order shared by both sinks. List-valued fields are stored as JSON text.
var issueColumns = []string{
    "id", "key", "summary", "description", "issue_type", "status", "priority",
    "assignee", "reporter", "created", "updated", "resolved", "project_key", "project_name",
    "labels", "components", "fix_versions", "story_points", "parent_key", "linked_issues",
    "epic_key", "epic_name", "sprint_info", "api_url", "web_url", "raw_data",
}

var changelogColumns = []string{
    "issue_key", "change_id", "author", "created", "field_name", "field_type",
    "from_value", "to_value", "from_string", "to_string",
}

func issueArgs(i domain.Issue) ([]any, error) {
    labels, err := jsonText(i.Labels)
    if err != nil { return nil, err }
    components, err := jsonText(i.Components)
    if err != nil { return nil, err }
    fixVersions, err := jsonText(i.FixVersions)
    if err != nil { return nil, err }
    links, err := jsonText(i.LinkedIssues)
    if err != nil { return nil, err }
    sprints, err := jsonText(i.SprintInfo)
    if err != nil { return nil, err }
    raw := string(i.Raw)
    if raw == "" {
        b, err := json.Marshal(i)
        if err != nil { return nil, fmt.Errorf("marshal %s: %w", i.Key, err) }
        raw = string(b)
    }
    return []any{
        i.ID, i.Key, i.Summary, i.Description, i.IssueType, i.Status, i.Priority,
        i.Assignee, i.Reporter, i.Created, i.Updated, i.Resolved, i.ProjectKey, i.ProjectName,
        labels, components, fixVersions, i.StoryPoints, i.ParentKey, links,
        i.EpicKey, i.EpicName, sprints, i.APIURL, i.WebURL, raw,
    }, nil
}

func changelogArgs(issueKey string, e domain.ChangelogEntry) []any {
    return []any{issueKey, e.ChangeID, e.Author, e.Created, e.FieldName, e.FieldType,
        e.FromValue, e.ToValue, e.FromString, e.ToString}
}

// jsonText renders nil slices as "[]" so the column never holds "null".
func jsonText[T any](v []T) (string, error) {
    if v == nil { return "[]", nil }
    b, err := json.Marshal(v)
    if err != nil { return "", err }
    return string(b), nil
}

func placeholders(n int, numbered bool) string {
    ph := make([]string, n)
    for i := range ph {
        if numbered {
            ph[i] = fmt.Sprintf("$%d", i+1)
        } else {
            ph[i] = "?"
        }
    }
    return strings.Join(ph, ", ")
}
