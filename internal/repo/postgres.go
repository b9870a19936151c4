package repo

import (
    "context"
    "fmt"
    "strings"
    "time"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/rs/zerolog"

    "github.com/spencermiles/jira-extractor/internal/domain"
    "github.com/spencermiles/jira-extractor/internal/logger"
)

const postgresSchema = `
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
    labels JSONB,
    components JSONB,
    fix_versions JSONB,
    story_points DOUBLE PRECISION,
    parent_key TEXT,
    linked_issues JSONB,
    epic_key TEXT,
    epic_name TEXT,
    sprint_info JSONB,
    api_url TEXT,
    web_url TEXT,
    raw_data JSONB,
    extracted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS changelogs (
    id BIGSERIAL PRIMARY KEY,
    issue_key TEXT NOT NULL REFERENCES issues (key) ON UPDATE CASCADE,
    change_id TEXT,
    author TEXT,
    created TEXT,
    field_name TEXT,
    field_type TEXT,
    from_value TEXT,
    to_value TEXT,
    from_string TEXT,
    to_string TEXT,
    extracted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_changelogs_issue_key ON changelogs (issue_key);
`

// rekeyIssue follows an issue that moved between projects: Jira keeps the id
// and issues a new key. The cascade carries its changelog rows along.
const rekeyIssue = `UPDATE issues SET key = $2
    WHERE id = $1 AND key <> $2
      AND NOT EXISTS (SELECT 1 FROM issues WHERE key = $2)`

// Postgres mirrors the SQLite sink on a shared database. Issues are upserted
// in place, so the foreign key can stay on.
type Postgres struct {
    pool *pgxpool.Pool
    log  zerolog.Logger

    upsertIssue     string
    insertChangelog string
}

func OpenPostgres(ctx context.Context, dsn string, log zerolog.Logger) (*Postgres, error) {
    pool, err := pgxpool.New(ctx, dsn)
    if err != nil { return nil, fmt.Errorf("db connect: %w", err) }
    ctx2, cancel := context.WithTimeout(ctx, 10*time.Second); defer cancel()
    if err := pool.Ping(ctx2); err != nil {
        pool.Close()
        return nil, fmt.Errorf("db ping: %w", err)
    }
    if _, err := pool.Exec(ctx, postgresSchema); err != nil {
        pool.Close()
        return nil, fmt.Errorf("create postgres schema: %w", err)
    }

    updates := make([]string, 0, len(issueColumns))
    for _, c := range issueColumns {
        if c == "key" { continue }
        updates = append(updates, c+"=EXCLUDED."+c)
    }
    updates = append(updates, "extracted_at=now()")
    return &Postgres{
        pool: pool,
        log:  logger.Component(log, "repo.postgres"),
        upsertIssue: "INSERT INTO issues (" + strings.Join(issueColumns, ", ") + ") VALUES (" +
            placeholders(len(issueColumns), true) + ") ON CONFLICT (key) DO UPDATE SET " + strings.Join(updates, ", "),
        insertChangelog: "INSERT INTO changelogs (" + strings.Join(changelogColumns, ", ") + ") VALUES (" +
            placeholders(len(changelogColumns), true) + ")",
    }, nil
}

func (p *Postgres) Write(ctx context.Context, issues []domain.Issue) error {
    saved := 0
    for _, iss := range issues {
        if err := ctx.Err(); err != nil { return err }
        if err := p.writeOne(ctx, iss); err != nil {
            p.log.Error().Err(err).Str("issue", iss.Key).Msg("error saving issue")
            continue
        }
        saved++
    }
    p.log.Info().Int("issues", saved).Int("failed", len(issues)-saved).Msg("data saved")
    return nil
}

func (p *Postgres) writeOne(ctx context.Context, iss domain.Issue) error {
    args, err := issueArgs(iss)
    if err != nil { return err }
    tx, err := p.pool.Begin(ctx)
    if err != nil { return err }
    defer tx.Rollback(ctx)

    if _, err := tx.Exec(ctx, rekeyIssue, iss.ID, iss.Key); err != nil { return fmt.Errorf("rekey issue: %w", err) }
    if _, err := tx.Exec(ctx, p.upsertIssue, args...); err != nil { return fmt.Errorf("upsert issue: %w", err) }
    if len(iss.Changelogs) > 0 {
        batch := &pgx.Batch{}
        for _, e := range iss.Changelogs { batch.Queue(p.insertChangelog, changelogArgs(iss.Key, e)...) }
        br := tx.SendBatch(ctx, batch)
        for range iss.Changelogs {
            if _, err := br.Exec(); err != nil {
                br.Close()
                return fmt.Errorf("insert changelog: %w", err)
            }
        }
        if err := br.Close(); err != nil { return err }
    }
    return tx.Commit(ctx)
}

func (p *Postgres) Close() error { p.pool.Close(); return nil }
