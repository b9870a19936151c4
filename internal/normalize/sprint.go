/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package normalize

import (
    "bytes"
    "encoding/json"
    "regexp"
    "strconv"
    "strings"

    "github.com/spencermiles/jira-extractor/internal/domain"
)

type rawSprint struct {
    ID            json.RawMessage `json:"id"`
    Name          string          `json:"name"`
    State         string          `json:"state"`
    StartDate     string          `json:"startDate"`
    EndDate       string          `json:"endDate"`
    CompleteDate  string          `json:"completeDate"`
    Goal          string          `json:"goal"`
    OriginBoardID json.RawMessage `json:"originBoardId"`
}

func (r rawSprint) snapshot() domain.Sprint {
    return domain.Sprint{
        ID:           flexInt(r.ID),
        Name:         r.Name,
        State:        r.State,
        StartDate:    r.StartDate,
        EndDate:      r.EndDate,
        CompleteDate: r.CompleteDate,
        Goal:         r.Goal,
        BoardID:      flexInt(r.OriginBoardID),
    }
}

// flexInt accepts 7 or "7".
func flexInt(raw json.RawMessage) *int64 {
    raw = bytes.TrimSpace(raw)
    if len(raw) == 0 || string(raw) == "null" { return nil }
    s := string(raw)
    if raw[0] == '"' {
        if err := json.Unmarshal(raw, &s); err != nil { return nil }
    }
    n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
    if err != nil { return nil }
    return &n
}

func resolveSprints(fields map[string]json.RawMessage, candidates []string) []domain.Sprint {
    out := []domain.Sprint{}
    _, raw, ok := firstPresent(fields, candidates)
    if !ok { return out }
    raw = bytes.TrimSpace(raw)
    switch raw[0] {
    case '{':
        var rs rawSprint
        if err := json.Unmarshal(raw, &rs); err == nil { out = append(out, rs.snapshot()) }
    case '[':
        var items []json.RawMessage
        if err := json.Unmarshal(raw, &items); err != nil { return out }
        for _, it := range items {
            if s, ok := sprintElem(it); ok { out = append(out, s) }
        }
    case '"':
        var s string
        if err := json.Unmarshal(raw, &s); err == nil && s != "" { out = append(out, parseSprintString(s)) }
    }
    return out
}

func sprintElem(raw json.RawMessage) (domain.Sprint, bool) {
    raw = bytes.TrimSpace(raw)
    if len(raw) == 0 { return domain.Sprint{}, false }
    switch raw[0] {
    case '{':
        var rs rawSprint
        if err := json.Unmarshal(raw, &rs); err != nil { return domain.Sprint{}, false }
        return rs.snapshot(), true
    case '"':
        var s string
        if err := json.Unmarshal(raw, &s); err != nil || s == "" { return domain.Sprint{}, false }
        return parseSprintString(s), true
    }
    return domain.Sprint{}, false
}

var sprintAttr = regexp.MustCompile(`(?:^|,)([A-Za-z]+)=`)

// parseSprintString reads the toString() form older Server releases put in the
// sprint field, e.g.
//   com.atlassian.greenhopper.service.sprint.Sprint@1a2b[id=7,rapidViewId=3,state=ACTIVE,name=Sprint 7,...]
// Strings that do not look like that become a snapshot carrying only the name.
func parseSprintString(s string) domain.Sprint {
    open := strings.Index(s, "[")
    end := strings.LastIndex(s, "]")
    if !strings.Contains(s, "Sprint@") || open < 0 || end <= open {
        return domain.Sprint{Name: s}
    }
    body := s[open+1 : end]
    locs := sprintAttr.FindAllStringSubmatchIndex(body, -1)
    if len(locs) == 0 { return domain.Sprint{Name: s} }

    attrs := make(map[string]string, len(locs))
    for i, loc := range locs {
        name := body[loc[2]:loc[3]]
        stop := len(body)
        if i+1 < len(locs) { stop = locs[i+1][0] }
        val := body[loc[1]:stop]
        if val == "<null>" { val = "" }
        attrs[name] = val
    }
    sp := domain.Sprint{
        Name:         attrs["name"],
        State:        attrs["state"],
        StartDate:    attrs["startDate"],
        EndDate:      attrs["endDate"],
        CompleteDate: attrs["completeDate"],
        Goal:         attrs["goal"],
    }
    if v, err := strconv.ParseInt(attrs["id"], 10, 64); err == nil { sp.ID = &v }
    if v, err := strconv.ParseInt(attrs["rapidViewId"], 10, 64); err == nil { sp.BoardID = &v }
    return sp
}
