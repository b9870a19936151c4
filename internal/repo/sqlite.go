package repo

import (
    "context"
    "database/sql"
    "fmt"
    "strings"

    "github.com/rs/zerolog"
    _ "modernc.org/sqlite"

    "github.com/spencermiles/jira-extractor/internal/domain"
    "github.com/spencermiles/jira-extractor/internal/logger"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS issues (
    id TEXT PRIMARY KEY,
    key TEXT UNIQUE NOT NULL,
    summary TEXT,
    description TEXT,
    issue_type TEXT,
    status TEXT,
    priority TEXT,
    assignee TEXT,
    reporter TEXT,
    created TEXT,
    updated TEXT,
    resolved TEXT,
    project_key TEXT,
    project_name TEXT,
    labels TEXT,
    components TEXT,
    fix_versions TEXT,
    story_points REAL,
    parent_key TEXT,
    linked_issues TEXT,
    epic_key TEXT,
    epic_name TEXT,
    sprint_info TEXT,
    api_url TEXT,
    web_url TEXT,
    raw_data TEXT,
    extracted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS changelogs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    issue_key TEXT NOT NULL,
    change_id TEXT,
    author TEXT,
    created TEXT,
    field_name TEXT,
    field_type TEXT,
    from_value TEXT,
    to_value TEXT,
    from_string TEXT,
    to_string TEXT,
    extracted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (issue_key) REFERENCES issues (key)
);

CREATE INDEX IF NOT EXISTS idx_changelogs_issue_key ON changelogs (issue_key);
`

// SQLite stores issues in a local database file. Foreign keys stay off:
// INSERT OR REPLACE deletes the old issue row, and changelog rows point at it.
type SQLite struct {
    db  *sql.DB
    log zerolog.Logger

    upsertIssue     string
    insertChangelog string
}

func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*SQLite, error) {
    db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
    if err != nil { return nil, fmt.Errorf("open sqlite %s: %w", path, err) }
    db.SetMaxOpenConns(1)
    if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
        db.Close()
        return nil, fmt.Errorf("create sqlite schema: %w", err)
    }
    return &SQLite{
        db:  db,
        log: logger.Component(log, "repo.sqlite"),
        upsertIssue: "INSERT OR REPLACE INTO issues (" + strings.Join(issueColumns, ", ") + ") VALUES (" +
            placeholders(len(issueColumns), false) + ")",
        insertChangelog: "INSERT INTO changelogs (" + strings.Join(changelogColumns, ", ") + ") VALUES (" +
            placeholders(len(changelogColumns), false) + ")",
    }, nil
}

// Write stores each issue and its changelog in its own transaction. A record
// that fails is logged and skipped. Changelog rows are always appended.
func (s *SQLite) Write(ctx context.Context, issues []domain.Issue) error {
    saved := 0
    for _, iss := range issues {
        if err := ctx.Err(); err != nil { return err }
        if err := s.writeOne(ctx, iss); err != nil {
            s.log.Error().Err(err).Str("issue", iss.Key).Msg("error saving issue")
            continue
        }
        saved++
    }
    s.log.Info().Int("issues", saved).Int("failed", len(issues)-saved).Msg("data saved")
    return nil
}

func (s *SQLite) writeOne(ctx context.Context, iss domain.Issue) error {
    args, err := issueArgs(iss)
    if err != nil { return err }
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil { return err }
    defer tx.Rollback()

    if _, err := tx.ExecContext(ctx, s.upsertIssue, args...); err != nil { return fmt.Errorf("upsert issue: %w", err) }
    for _, e := range iss.Changelogs {
        if _, err := tx.ExecContext(ctx, s.insertChangelog, changelogArgs(iss.Key, e)...); err != nil {
            return fmt.Errorf("insert changelog: %w", err)
        }
    }
    return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }
