/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
    "fmt"
    "os"
    "strings"

    "gopkg.in/yaml.v3"
)

// FieldCandidates lists custom field ids per concept, in priority order.
type FieldCandidates struct {
    StoryPoints []string `yaml:"story_points"`
    Epic        []string `yaml:"epic"`
    Sprint      []string `yaml:"sprint"`
}

// Merge appends other's ids after c's, dropping duplicates.
func (c FieldCandidates) Merge(other FieldCandidates) FieldCandidates {
    return FieldCandidates{
        StoryPoints: dedupe(c.StoryPoints, other.StoryPoints),
        Epic:        dedupe(c.Epic, other.Epic),
        Sprint:      dedupe(c.Sprint, other.Sprint),
    }
}

func dedupe(lists ...[]string) []string {
    seen := map[string]struct{}{}
    var out []string
    for _, l := range lists {
        for _, id := range l {
            id = strings.TrimSpace(id)
            if id == "" { continue }
            if _, ok := seen[id]; ok { continue }
            seen[id] = struct{}{}
            out = append(out, id)
        }
    }
    return out
}

// LoadFieldsFile reads a YAML (or JSON) document of the form
//
//	story_points: [customfield_10106]
//	epic: [customfield_10100]
//	sprint: [customfield_10101]
func LoadFieldsFile(path string) (FieldCandidates, error) {
    var fc FieldCandidates
    data, err := os.ReadFile(path)
    if err != nil { return fc, fmt.Errorf("read fields file: %w", err) }
    if err := yaml.Unmarshal(data, &fc); err != nil {
        return fc, fmt.Errorf("parse fields file %s: %w", path, err)
    }
    return fc, nil
}
