/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "errors"
    "fmt"
    "net/url"
    "strconv"
    "strings"

    "github.com/spencermiles/jira-extractor/internal/config"
    "github.com/spencermiles/jira-extractor/internal/domain"
)

// SearchOptions controls one paginated search.
type SearchOptions struct {
    // Limit caps the number of issues returned; <= 0 means no cap.
    Limit int
    // PageSize is the per-request ceiling; clamped to config.MaxPageSize.
    PageSize int
    // Expand asks the search endpoint to embed each issue's changelog.
    Expand bool
}

type searchPage struct {
    StartAt    int               `json:"startAt"`
    MaxResults int               `json:"maxResults"`
    Total      int               `json:"total"`
    Issues     []domain.RawIssue `json:"issues"`
}

// SearchIssues pages through /search until the result set is exhausted or
// opts.Limit is reached. Any error aborts the whole fetch.
func (c *Client) SearchIssues(ctx context.Context, jql string, opts SearchOptions) ([]domain.RawIssue, error) {
    if strings.TrimSpace(jql) == "" { return nil, errors.New("jira: empty jql") }
    ceiling := opts.PageSize
    if ceiling <= 0 || ceiling > config.MaxPageSize { ceiling = config.MaxPageSize }

    var issues []domain.RawIssue
    startAt := 0
    for {
        batch := ceiling
        if opts.Limit > 0 { batch = min(ceiling, opts.Limit-len(issues)) }
        q := url.Values{}
        q.Set("jql", jql)
        q.Set("startAt", strconv.Itoa(startAt))
        q.Set("maxResults", strconv.Itoa(batch))
        q.Set("fields", "*all")
        if opts.Expand { q.Set("expand", "changelog") }

        c.log.Info().Int("from", startAt).Int("to", startAt+batch).Msg("fetching issues")
        var page searchPage
        if err := c.getJSON(ctx, c.apiURL("/search", q), &page); err != nil {
            return nil, fmt.Errorf("error fetching issues at offset %d: %w", startAt, err)
        }
        issues = append(issues, page.Issues...)

        if len(page.Issues) < batch { break }
        if opts.Limit > 0 && len(issues) >= opts.Limit { break }
        startAt += len(page.Issues)
    }
    if opts.Limit > 0 && len(issues) > opts.Limit { issues = issues[:opts.Limit] }
    c.log.Info().Int("issues", len(issues)).Msg("search complete")
    return issues, nil
}
