/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package config

import (
    "errors"
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

const (
    FormatJSON     = "json"
    FormatSQLite   = "sqlite"
    FormatPostgres = "postgres"

    DefaultDatabase = "jira_data.db"
    MaxPageSize     = 100
)

var (
    ErrMissingURL      = errors.New("JIRA URL is required. Provide via --jira-url or JIRA_URL environment variable")
    ErrMissingUsername = errors.New("username is required. Provide via --username or JIRA_USERNAME environment variable")
    ErrMissingToken    = errors.New("API token is required. Provide via --api-token or JIRA_API_TOKEN environment variable")
    ErrMissingJQL      = errors.New("a JQL query is required (--jql)")
)

type Config struct {
    AppEnv    string
    LogLevel  string
    LogFormat string

    JiraBaseURL    string
    JiraUsername   string
    JiraAPIToken   string
    JiraAPIVersion string

    JQL               string
    MaxResults        int
    PageSize          int
    IncludeChangelogs bool
    Workers           int

    HTTPTimeout  time.Duration
    RetryMax     int
    RetryBackoff time.Duration

    Format      string
    Output      string
    Pretty      bool
    Database    string
    DatabaseURL string

    DiscoverFields bool
    FieldsFile     string
    Fields         FieldCandidates
}

func getenv(key, def string) string {
    v := os.Getenv(key)
    if v == "" { return def }
    return v
}

func atoi(key string, def int) int {
    v := os.Getenv(key)
    if v == "" { return def }
    i, err := strconv.Atoi(v)
    if err != nil { return def }
    return i
}

func dur(key string, def time.Duration) time.Duration {
    v := os.Getenv(key)
    if v == "" { return def }
    d, err := time.ParseDuration(v)
    if err != nil { return def }
    return d
}

func boolean(key string, def bool) bool {
    v := os.Getenv(key)
    if v == "" { return def }
    b, err := strconv.ParseBool(v)
    if err != nil { return def }
    return b
}

func parseStrings(csv string) []string {
    if csv == "" { return nil }
    parts := strings.Split(csv, ",")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        p = strings.TrimSpace(p)
        if p == "" { continue }
        out = append(out, p)
    }
    return out
}

// Default returns the configuration used when nothing is set.
func Default() Config {
    return Config{
        AppEnv:            "dev",
        LogLevel:          "info",
        LogFormat:         "console",
        JiraAPIVersion:    "3",
        MaxResults:        -1,
        PageSize:          MaxPageSize,
        IncludeChangelogs: true,
        Workers:           10,
        HTTPTimeout:       30 * time.Second,
        RetryMax:          3,
        RetryBackoff:      time.Second,
        Format:            FormatJSON,
        Pretty:            true,
    }
}

// Load reads the environment (after an optional .env file). Flags are layered on
// top of the result by the caller; nothing below cmd/ reads the environment.
func Load() Config {
    _ = godotenv.Load()
    def := Default()
    cfg := Config{
        AppEnv:    getenv("APP_ENV", def.AppEnv),
        LogLevel:  getenv("LOG_LEVEL", def.LogLevel),
        LogFormat: getenv("LOG_FORMAT", def.LogFormat),

        JiraBaseURL:    getenv("JIRA_URL", ""),
        JiraUsername:   getenv("JIRA_USERNAME", ""),
        JiraAPIToken:   getenv("JIRA_API_TOKEN", ""),
        JiraAPIVersion: getenv("JIRA_API_VERSION", def.JiraAPIVersion),

        JQL:               getenv("JIRA_JQL", ""),
        MaxResults:        atoi("JIRA_MAX_RESULTS", def.MaxResults),
        PageSize:          atoi("JIRA_PAGE_SIZE", def.PageSize),
        IncludeChangelogs: boolean("JIRA_INCLUDE_CHANGELOGS", def.IncludeChangelogs),
        Workers:           atoi("MAX_WORKERS", def.Workers),

        HTTPTimeout:  dur("HTTP_TIMEOUT", def.HTTPTimeout),
        RetryMax:     atoi("HTTP_RETRY_MAX", def.RetryMax),
        RetryBackoff: dur("HTTP_RETRY_BACKOFF", def.RetryBackoff),

        Format:      getenv("OUTPUT_FORMAT", def.Format),
        Output:      getenv("OUTPUT_PATH", ""),
        Pretty:      boolean("OUTPUT_PRETTY", def.Pretty),
        Database:    getenv("SQLITE_PATH", ""),
        DatabaseURL: getenv("DATABASE_URL", ""),

        DiscoverFields: boolean("JIRA_DISCOVER_FIELDS", false),
        FieldsFile:     getenv("JIRA_FIELDS_FILE", ""),
        Fields: FieldCandidates{
            StoryPoints: parseStrings(getenv("JIRA_STORY_POINTS_FIELDS", "")),
            Epic:        parseStrings(getenv("JIRA_EPIC_FIELDS", "")),
            Sprint:      parseStrings(getenv("JIRA_SPRINT_FIELDS", "")),
        },
    }
    return cfg
}

// Validate fails fast on anything that would otherwise only surface after
// network calls were made. It also fills derived defaults.
func (c *Config) Validate() error {
    c.JiraBaseURL = strings.TrimRight(strings.TrimSpace(c.JiraBaseURL), "/")
    if c.JiraBaseURL == "" { return ErrMissingURL }
    if c.JiraUsername == "" { return ErrMissingUsername }
    if c.JiraAPIToken == "" { return ErrMissingToken }
    if strings.TrimSpace(c.JQL) == "" { return ErrMissingJQL }
    switch c.JiraAPIVersion {
    case "2", "3":
    default:
        return fmt.Errorf("unsupported Jira API version %q (want 2 or 3)", c.JiraAPIVersion)
    }
    if c.Workers < 1 { return fmt.Errorf("max workers must be at least 1, got %d", c.Workers) }
    if c.PageSize <= 0 || c.PageSize > MaxPageSize { c.PageSize = MaxPageSize }
    if c.RetryMax < 0 { c.RetryMax = 0 }
    switch c.Format {
    case FormatJSON:
    case FormatSQLite:
        if c.Database == "" { c.Database = DefaultDatabase }
    case FormatPostgres:
        if c.DatabaseURL == "" { return errors.New("postgres output needs --database-url or DATABASE_URL") }
    default:
        return fmt.Errorf("unknown output format %q (want json, sqlite or postgres)", c.Format)
    }
    return nil
}
