/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "strings"

    "github.com/spencermiles/jira-extractor/internal/config"
)

// FieldDef is one entry of the /field listing.
type FieldDef struct {
    ID     string `json:"id"`
    Key    string `json:"key"`
    Name   string `json:"name"`
    Custom bool   `json:"custom"`
    Schema *struct {
        Type   string `json:"type"`
        Custom string `json:"custom"`
    } `json:"schema"`
}

// Fields lists every field the deployment knows about.
func (c *Client) Fields(ctx context.Context) ([]FieldDef, error) {
    var out []FieldDef
    if err := c.getJSON(ctx, c.apiURL("/field", nil), &out); err != nil { return nil, err }
    return out, nil
}

// DiscoverCandidates maps the deployment's custom fields onto the concepts the
// normalizer resolves, by display name or by the Jira Software schema type.
func DiscoverCandidates(fields []FieldDef) config.FieldCandidates {
    var fc config.FieldCandidates
    for _, f := range fields {
        if !f.Custom && !strings.HasPrefix(f.ID, "customfield_") { continue }
        id := f.ID
        if id == "" { id = f.Key }
        if id == "" { continue }
        name := strings.ToLower(strings.TrimSpace(f.Name))
        schema := ""
        if f.Schema != nil { schema = f.Schema.Custom }
        switch {
        case name == "story points" || name == "story point estimate":
            fc.StoryPoints = append(fc.StoryPoints, id)
        case name == "epic link" || strings.HasSuffix(schema, ":gh-epic-link"):
            fc.Epic = append(fc.Epic, id)
        case name == "sprint" || strings.HasSuffix(schema, ":gh-sprint"):
            fc.Sprint = append(fc.Sprint, id)
        }
    }
    return fc
}
