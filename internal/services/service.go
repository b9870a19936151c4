/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package services

import (
    "context"
    "fmt"
    "time"

    "github.com/rs/zerolog"

    "github.com/spencermiles/jira-extractor/internal/adapters/jira"
    "github.com/spencermiles/jira-extractor/internal/config"
    "github.com/spencermiles/jira-extractor/internal/domain"
    "github.com/spencermiles/jira-extractor/internal/normalize"
)

type JiraClient interface {
    SearchIssues(ctx context.Context, jql string, opts jira.SearchOptions) ([]domain.RawIssue, error)
    FetchChangelogs(ctx context.Context, keys []string) map[string][]domain.ChangeEvent
    Fields(ctx context.Context) ([]jira.FieldDef, error)
}

// Sink receives the canonical issues once everything has been fetched.
type Sink interface {
    Write(ctx context.Context, issues []domain.Issue) error
    Close() error
}

type Service struct {
    cfg  config.Config
    log  zerolog.Logger
    jira JiraClient
    sink Sink
}

func New(cfg config.Config, log zerolog.Logger, jc JiraClient, sink Sink) *Service {
    return &Service{cfg: cfg, log: log, jira: jc, sink: sink}
}

// Result summarizes one extraction run.
type Result struct {
    Fetched          int
    Written          int
    Skipped          int
    ChangelogEntries int
    Elapsed          time.Duration
}

// Run fetches every matching issue, collects changelogs, normalizes and hands
// the result to the sink. Nothing is written when the query matches nothing.
func (s *Service) Run(ctx context.Context) (Result, error) {
    start := time.Now()
    var res Result

    discovered := s.discoverFields(ctx)

    s.log.Info().Str("jql", s.cfg.JQL).Int("max_results", s.cfg.MaxResults).Msg("starting extraction")
    raws, err := s.jira.SearchIssues(ctx, s.cfg.JQL, jira.SearchOptions{
        Limit:    s.cfg.MaxResults,
        PageSize: s.cfg.PageSize,
        Expand:   s.cfg.IncludeChangelogs,
    })
    if err != nil { return res, fmt.Errorf("search issues: %w", err) }
    res.Fetched = len(raws)
    if len(raws) == 0 {
        s.log.Warn().Msg("no issues found")
        res.Elapsed = time.Since(start)
        return res, nil
    }

    var changelogs map[string][]domain.ChangeEvent
    if s.cfg.IncludeChangelogs {
        keys := make([]string, 0, len(raws))
        for _, r := range raws {
            if r.Key != "" { keys = append(keys, r.Key) }
        }
        s.log.Info().Int("issues", len(keys)).Int("workers", s.cfg.Workers).Msg("fetching changelogs")
        changelogs = s.jira.FetchChangelogs(ctx, keys)
    }

    n := normalize.New(s.cfg.Fields, discovered, s.log)
    issues := n.NormalizeAll(raws, changelogs)
    res.Written = len(issues)
    res.Skipped = len(raws) - len(issues)
    for _, iss := range issues { res.ChangelogEntries += len(iss.Changelogs) }

    if err := s.sink.Write(ctx, issues); err != nil { return res, fmt.Errorf("write output: %w", err) }
    res.Elapsed = time.Since(start)
    s.log.Info().
        Int("issues", res.Written).
        Int("skipped", res.Skipped).
        Int("changelog_entries", res.ChangelogEntries).
        Dur("elapsed", res.Elapsed).
        Msg("extraction completed")
    return res, nil
}

// discoverFields is best effort: a failure only costs the extra candidates.
func (s *Service) discoverFields(ctx context.Context) config.FieldCandidates {
    if !s.cfg.DiscoverFields { return config.FieldCandidates{} }
    defs, err := s.jira.Fields(ctx)
    if err != nil {
        s.log.Warn().Err(err).Msg("field discovery failed; using configured and built-in candidates")
        return config.FieldCandidates{}
    }
    fc := jira.DiscoverCandidates(defs)
    s.log.Info().
        Strs("story_points", fc.StoryPoints).
        Strs("epic", fc.Epic).
        Strs("sprint", fc.Sprint).
        Msg("discovered custom fields")
    return fc
}
