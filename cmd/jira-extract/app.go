package main

import (
    "context"
    "errors"
    "fmt"
    "io"
    "strings"

    "github.com/rs/zerolog"
    "github.com/spf13/pflag"

    "github.com/spencermiles/jira-extractor/internal/adapters/jira"
    "github.com/spencermiles/jira-extractor/internal/config"
    "github.com/spencermiles/jira-extractor/internal/export"
    "github.com/spencermiles/jira-extractor/internal/logger"
    "github.com/spencermiles/jira-extractor/internal/repo"
    "github.com/spencermiles/jira-extractor/internal/services"
)

// parseFlags layers command-line flags over base (already filled from the
// environment) and validates the result.
func parseFlags(base config.Config, args []string, stderr io.Writer) (config.Config, error) {
    cfg := base
    fs := pflag.NewFlagSet("jira-extract", pflag.ContinueOnError)
    fs.SetOutput(stderr)
    fs.Usage = func() {
        fmt.Fprintf(stderr, "Extract Jira issues and changelogs.\n\nUsage:\n  jira-extract --jql <query> [flags]\n\nFlags:\n")
        fs.PrintDefaults()
    }

    fs.StringVar(&cfg.JiraBaseURL, "jira-url", cfg.JiraBaseURL, "Jira base URL (env JIRA_URL)")
    fs.StringVar(&cfg.JiraUsername, "username", cfg.JiraUsername, "Jira username or email (env JIRA_USERNAME)")
    fs.StringVar(&cfg.JiraAPIToken, "api-token", cfg.JiraAPIToken, "Jira API token (env JIRA_API_TOKEN)")
    fs.StringVar(&cfg.JiraAPIVersion, "api-version", cfg.JiraAPIVersion, "REST API version: 3 (Cloud) or 2 (Server/DC)")
    fs.StringVar(&cfg.JQL, "jql", cfg.JQL, "JQL query selecting the issues to extract")
    fs.IntVar(&cfg.MaxResults, "max-results", cfg.MaxResults, "maximum number of issues to extract (-1 for all)")
    fs.BoolVar(&cfg.IncludeChangelogs, "include-changelogs", cfg.IncludeChangelogs, "fetch each issue's change history")
    var noChangelogs bool
    fs.BoolVar(&noChangelogs, "no-changelogs", false, "same as --include-changelogs=false")
    _ = fs.MarkHidden("no-changelogs")
    fs.IntVar(&cfg.Workers, "max-workers", cfg.Workers, "concurrent changelog requests")
    fs.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "per-request timeout")

    fs.StringVarP(&cfg.Format, "format", "f", cfg.Format, "output format: json, sqlite or postgres")
    fs.StringVarP(&cfg.Output, "output", "o", cfg.Output, "JSON output file (stdout when empty)")
    fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "indent JSON output")
    fs.StringVar(&cfg.Database, "database", cfg.Database, "SQLite database path (default "+config.DefaultDatabase+")")
    fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres connection string (env DATABASE_URL)")

    fs.BoolVar(&cfg.DiscoverFields, "discover-fields", cfg.DiscoverFields, "look up story point, epic and sprint fields by name")
    fs.StringVar(&cfg.FieldsFile, "fields-file", cfg.FieldsFile, "YAML file with extra custom field ids per concept")
    fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
    fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console or json")

    if err := fs.Parse(args); err != nil { return cfg, err }
    if fs.NArg() > 0 { return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " ")) }
    if noChangelogs { cfg.IncludeChangelogs = false }

    if cfg.FieldsFile != "" {
        fc, err := config.LoadFieldsFile(cfg.FieldsFile)
        if err != nil { return cfg, err }
        cfg.Fields = cfg.Fields.Merge(fc)
    }
    if err := cfg.Validate(); err != nil { return cfg, err }
    return cfg, nil
}

func openSink(ctx context.Context, cfg config.Config, stdout io.Writer, log zerolog.Logger) (services.Sink, error) {
    switch cfg.Format {
    case config.FormatSQLite:
        return repo.OpenSQLite(ctx, cfg.Database, log)
    case config.FormatPostgres:
        return repo.OpenPostgres(ctx, cfg.DatabaseURL, log)
    default:
        return export.NewJSONWriter(cfg.Output, cfg.Pretty, stdout, log), nil
    }
}

// run returns the process exit code.
func run(ctx context.Context, base config.Config, args []string, stdout, stderr io.Writer) int {
    cfg, err := parseFlags(base, args, stderr)
    if err != nil {
        if errors.Is(err, pflag.ErrHelp) { return 0 }
        fmt.Fprintf(stderr, "Error: %v\n", err)
        return 1
    }
    log := logger.NewWithWriter(cfg, stderr)

    sink, err := openSink(ctx, cfg, stdout, log)
    if err != nil {
        log.Error().Err(err).Str("format", cfg.Format).Msg("open output failed")
        return 1
    }
    defer sink.Close()

    svc := services.New(cfg, log, jira.NewClient(cfg, log), sink)
    if _, err := svc.Run(ctx); err != nil {
        log.Error().Err(err).Msg("extraction failed")
        return 1
    }
    return 0
}
