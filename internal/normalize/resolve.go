/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package normalize

import (
    "bytes"
    "encoding/json"
    "strconv"
    "strings"
)

// Built-in candidate ids. Different deployments put the same concept on
// different custom fields; the first one holding a value wins.
var (
    StoryPointFields = []string{"customfield_10026", "customfield_10016", "customfield_10028"}
    EpicFields       = []string{"customfield_10014", "customfield_10008", "customfield_10002"}
    SprintFields     = []string{"customfield_10020", "customfield_10010", "customfield_10004"}
)

func isEmpty(raw json.RawMessage) bool {
    raw = bytes.TrimSpace(raw)
    switch string(raw) {
    case "", "null", `""`, "[]", "{}":
        return true
    }
    if len(raw) >= 2 && (raw[0] == '[' || raw[0] == '{') {
        // "[ ]" and friends
        inner := bytes.TrimSpace(raw[1 : len(raw)-1])
        return len(inner) == 0
    }
    return false
}

// firstPresent returns the value of the first candidate present with a
// non-empty value. Later candidates are not looked at once one matches.
func firstPresent(fields map[string]json.RawMessage, candidates []string) (string, json.RawMessage, bool) {
    for _, id := range candidates {
        v, ok := fields[id]
        if !ok || isEmpty(v) { continue }
        return id, v, true
    }
    return "", nil, false
}

func resolveStoryPoints(fields map[string]json.RawMessage, candidates []string) *float64 {
    _, raw, ok := firstPresent(fields, candidates)
    if !ok { return nil }
    raw = bytes.TrimSpace(raw)
    var f float64
    if raw[0] == '"' {
        var s string
        if err := json.Unmarshal(raw, &s); err != nil { return nil }
        v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
        if err != nil { return nil }
        return &v
    }
    if err := json.Unmarshal(raw, &f); err != nil { return nil }
    return &f
}

func resolveEpic(fields map[string]json.RawMessage, candidates []string) (key, name *string) {
    _, raw, ok := firstPresent(fields, candidates)
    if !ok { return nil, nil }
    raw = bytes.TrimSpace(raw)
    switch raw[0] {
    case '{':
        var ref struct {
            Key     string `json:"key"`
            Name    string `json:"name"`
            Summary string `json:"summary"`
        }
        if err := json.Unmarshal(raw, &ref); err != nil { return nil, nil }
        if ref.Key != "" { key = strPtr(ref.Key) }
        if ref.Name != "" {
            name = strPtr(ref.Name)
        } else if ref.Summary != "" {
            name = strPtr(ref.Summary)
        }
    case '"':
        var s string
        if err := json.Unmarshal(raw, &s); err != nil { return nil, nil }
        key = strPtr(s)
    }
    return key, name
}

func strPtr(s string) *string { return &s }
