/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package normalize

import (
    "bytes"
    "encoding/json"
    "errors"
    "fmt"
    "strings"

    "github.com/rs/zerolog"

    "github.com/spencermiles/jira-extractor/internal/config"
    "github.com/spencermiles/jira-extractor/internal/domain"
    "github.com/spencermiles/jira-extractor/internal/logger"
)

var (
    ErrMissingIdentity = errors.New("issue has no id or key")
    ErrBadFields       = errors.New("issue fields are missing or not an object")
)

// Normalizer turns raw search results into canonical issues. It holds no
// mutable state; the same input always yields the same output.
type Normalizer struct {
    fields config.FieldCandidates
    log    zerolog.Logger
}

// New resolves candidates in this order: configured ids, built-in ids,
// discovered ids.
func New(configured, discovered config.FieldCandidates, log zerolog.Logger) *Normalizer {
    builtin := config.FieldCandidates{StoryPoints: StoryPointFields, Epic: EpicFields, Sprint: SprintFields}
    return &Normalizer{
        fields: configured.Merge(builtin).Merge(discovered),
        log:    logger.Component(log, "normalize"),
    }
}

// Candidates reports the resolved candidate order.
func (n *Normalizer) Candidates() config.FieldCandidates { return n.fields }

type named struct {
    Name string `json:"name"`
}

func (p *named) value() string {
    if p == nil { return "" }
    return p.Name
}

type linkTarget struct {
    Key    string `json:"key"`
    Fields struct {
        Summary string `json:"summary"`
    } `json:"fields"`
}

type rawLink struct {
    Type         named       `json:"type"`
    InwardIssue  *linkTarget `json:"inwardIssue"`
    OutwardIssue *linkTarget `json:"outwardIssue"`
}

// knownFields are the fields whose shape does not vary between deployments.
// A type mismatch here fails the issue.
type knownFields struct {
    Summary        string          `json:"summary"`
    Description    json.RawMessage `json:"description"`
    IssueType      *named          `json:"issuetype"`
    Status         *named          `json:"status"`
    Priority       *named          `json:"priority"`
    Assignee       *domain.Person  `json:"assignee"`
    Reporter       *domain.Person  `json:"reporter"`
    Created        string          `json:"created"`
    Updated        string          `json:"updated"`
    ResolutionDate string          `json:"resolutiondate"`
    Project        *struct {
        Key  string `json:"key"`
        Name string `json:"name"`
    } `json:"project"`
    Labels      []string  `json:"labels"`
    Components  []named   `json:"components"`
    FixVersions []named   `json:"fixVersions"`
    Parent      *struct {
        Key string `json:"key"`
    } `json:"parent"`
    IssueLinks []rawLink `json:"issuelinks"`
}

// Normalize maps one raw issue and its change events to a canonical issue.
func (n *Normalizer) Normalize(raw domain.RawIssue, changelogs map[string][]domain.ChangeEvent) (domain.Issue, error) {
    if raw.ID == "" || raw.Key == "" { return domain.Issue{}, ErrMissingIdentity }
    body := bytes.TrimSpace(raw.Fields)
    if len(body) == 0 || body[0] != '{' { return domain.Issue{}, fmt.Errorf("%s: %w", raw.Key, ErrBadFields) }

    var kf knownFields
    if err := json.Unmarshal(body, &kf); err != nil {
        return domain.Issue{}, fmt.Errorf("%s: decode fields: %w", raw.Key, err)
    }
    var all map[string]json.RawMessage
    if err := json.Unmarshal(body, &all); err != nil {
        return domain.Issue{}, fmt.Errorf("%s: decode fields: %w", raw.Key, err)
    }

    iss := domain.Issue{
        ID:          raw.ID,
        Key:         raw.Key,
        Summary:     kf.Summary,
        Description: FlattenJSON(kf.Description),
        IssueType:   kf.IssueType.value(),
        Status:      kf.Status.value(),
        Priority:    kf.Priority.value(),
        Assignee:    kf.Assignee.Label(),
        Reporter:    kf.Reporter.Label(),
        Created:     kf.Created,
        Updated:     kf.Updated,
        Resolved:    kf.ResolutionDate,
        Labels:      nonNil(kf.Labels),
        Components:  names(kf.Components),
        FixVersions: names(kf.FixVersions),
        APIURL:      raw.Self,
        WebURL:      webURL(raw.Self, raw.Key),
        Raw:         raw.Raw,
    }
    if kf.Project != nil {
        iss.ProjectKey = kf.Project.Key
        iss.ProjectName = kf.Project.Name
    }
    if kf.Parent != nil && kf.Parent.Key != "" { iss.ParentKey = strPtr(kf.Parent.Key) }

    iss.StoryPoints = resolveStoryPoints(all, n.fields.StoryPoints)
    iss.EpicKey, iss.EpicName = resolveEpic(all, n.fields.Epic)
    iss.SprintInfo = resolveSprints(all, n.fields.Sprint)
    iss.LinkedIssues = links(kf.IssueLinks)
    iss.Changelogs = expandChangelog(changelogs[raw.Key])
    return iss, nil
}

// NormalizeAll keeps the input order. Issues that fail to normalize are logged
// and left out.
func (n *Normalizer) NormalizeAll(raws []domain.RawIssue, changelogs map[string][]domain.ChangeEvent) []domain.Issue {
    out := make([]domain.Issue, 0, len(raws))
    for _, r := range raws {
        iss, err := n.Normalize(r, changelogs)
        if err != nil {
            n.log.Error().Err(err).Str("issue", r.Key).Msg("error normalizing issue")
            continue
        }
        out = append(out, iss)
    }
    return out
}

func links(raw []rawLink) []domain.LinkedIssue {
    out := []domain.LinkedIssue{}
    for _, l := range raw {
        var (
            target *linkTarget
            dir    string
        )
        switch {
        case l.InwardIssue != nil:
            target, dir = l.InwardIssue, domain.LinkInward
        case l.OutwardIssue != nil:
            target, dir = l.OutwardIssue, domain.LinkOutward
        }
        if target == nil || target.Key == "" { continue }
        out = append(out, domain.LinkedIssue{
            Type:      l.Type.Name,
            Direction: dir,
            IssueKey:  target.Key,
            Summary:   target.Fields.Summary,
        })
    }
    return out
}

const apiMarker = "/rest/api/"

func webURL(self, key string) string {
    i := strings.Index(self, apiMarker)
    if i < 0 { return "" }
    return self[:i] + "/browse/" + key
}

func expandChangelog(events []domain.ChangeEvent) []domain.ChangelogEntry {
    out := []domain.ChangelogEntry{}
    for _, ev := range events {
        author := ev.Author.Label()
        for _, it := range ev.Items {
            out = append(out, domain.ChangelogEntry{
                ChangeID:   ev.ID,
                Author:     author,
                Created:    ev.Created,
                FieldName:  it.Field,
                FieldType:  it.FieldType,
                FromValue:  it.From,
                ToValue:    it.To,
                FromString: it.FromString,
                ToString:   it.ToString,
            })
        }
    }
    return out
}

// names keeps unnamed entries as "" so positions line up with the tracker's list.
func names(in []named) []string {
    out := make([]string, 0, len(in))
    for _, v := range in { out = append(out, v.Name) }
    return out
}

func nonNil(in []string) []string {
    if in == nil { return []string{} }
    return in
}
