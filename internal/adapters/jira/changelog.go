/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "errors"
    "net/url"
    "strconv"
    "sync"

    "github.com/spencermiles/jira-extractor/internal/domain"
)

const (
    changelogPageSize = 100
    progressEvery     = 10
)

type changelogPage struct {
    StartAt    int                  `json:"startAt"`
    MaxResults int                  `json:"maxResults"`
    Total      int                  `json:"total"`
    IsLast     *bool                `json:"isLast"`
    Values     []domain.ChangeEvent `json:"values"`
}

type issueWithChangelog struct {
    Changelog *domain.RawHistories `json:"changelog"`
}

// Changelog returns every change event of one issue, oldest page first.
func (c *Client) Changelog(ctx context.Context, key string) ([]domain.ChangeEvent, error) {
    if key == "" { return nil, errors.New("jira: empty issue key") }
    if c.apiVer == "2" { return c.embeddedChangelog(ctx, key) }

    var out []domain.ChangeEvent
    startAt := 0
    for {
        q := url.Values{}
        if startAt > 0 { q.Set("startAt", strconv.Itoa(startAt)) }
        q.Set("maxResults", strconv.Itoa(changelogPageSize))
        var page changelogPage
        if err := c.getJSON(ctx, c.apiURL("/issue/"+url.PathEscape(key)+"/changelog", q), &page); err != nil {
            return nil, err
        }
        out = append(out, page.Values...)
        if len(page.Values) == 0 { break }
        if page.IsLast != nil {
            if *page.IsLast { break }
        } else if page.Total == 0 || len(out) >= page.Total {
            break
        }
        startAt += len(page.Values)
    }
    if out == nil { out = []domain.ChangeEvent{} }
    return out, nil
}

// embeddedChangelog serves Server/DC deployments, which have no changelog
// endpoint: the histories come back inside the issue with expand=changelog.
func (c *Client) embeddedChangelog(ctx context.Context, key string) ([]domain.ChangeEvent, error) {
    q := url.Values{}
    q.Set("expand", "changelog")
    q.Set("fields", "summary")
    var iss issueWithChangelog
    if err := c.getJSON(ctx, c.apiURL("/issue/"+url.PathEscape(key), q), &iss); err != nil {
        return nil, err
    }
    if iss.Changelog == nil || iss.Changelog.Histories == nil { return []domain.ChangeEvent{}, nil }
    return iss.Changelog.Histories, nil
}

type changelogResult struct {
    key    string
    events []domain.ChangeEvent
}

// FetchChangelogs retrieves the history of every key with a fixed pool of
// workers (the client's configured worker count). Every key ends up in the
// result; a key whose fetch failed maps to an empty slice.
func (c *Client) FetchChangelogs(ctx context.Context, keys []string) map[string][]domain.ChangeEvent {
    keys = uniqueKeys(keys)
    out := make(map[string][]domain.ChangeEvent, len(keys))
    if len(keys) == 0 { return out }

    log := c.log.With().Str("phase", "changelog").Logger()
    workerCount := min(c.workers, len(keys))
    jobs := make(chan string)
    results := make(chan changelogResult)
    var wg sync.WaitGroup
    for w := 0; w < workerCount; w++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for key := range jobs {
                events, err := c.Changelog(ctx, key)
                if err != nil {
                    log.Error().Err(err).Str("issue", key).Msg("error fetching changelog")
                    events = []domain.ChangeEvent{}
                }
                results <- changelogResult{key: key, events: events}
            }
        }()
    }
    go func() {
        for _, k := range keys { jobs <- k }
        close(jobs)
    }()
    go func() { wg.Wait(); close(results) }()

    completed := 0
    for r := range results {
        out[r.key] = r.events
        completed++
        if completed%progressEvery == 0 || completed == len(keys) {
            log.Info().Int("done", completed).Int("total", len(keys)).Msg("fetched changelogs")
        }
    }
    return out
}

func uniqueKeys(keys []string) []string {
    seen := make(map[string]struct{}, len(keys))
    out := make([]string, 0, len(keys))
    for _, k := range keys {
        if _, ok := seen[k]; ok { continue }
        seen[k] = struct{}{}
        out = append(out, k)
    }
    return out
}
