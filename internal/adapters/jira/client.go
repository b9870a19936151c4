/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package jira

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/rs/zerolog"

    "github.com/spencermiles/jira-extractor/internal/config"
)

// maxRetryAfter bounds how long a Retry-After header can park a request.
const maxRetryAfter = 60 * time.Second

var retryStatuses = map[int]bool{
    http.StatusTooManyRequests:     true,
    http.StatusInternalServerError: true,
    http.StatusBadGateway:          true,
    http.StatusServiceUnavailable:  true,
    http.StatusGatewayTimeout:      true,
}

// APIError is returned for any non-2xx response that is not (or is no longer) retried.
type APIError struct {
    StatusCode int
    URL        string
    Body       string
}

func (e *APIError) Error() string {
    return fmt.Sprintf("jira api status=%d url=%s body=%s", e.StatusCode, e.URL, e.Body)
}

// Client is safe for concurrent use; workers share it and its connection pool.
type Client struct {
    baseURL      string
    user         string
    token        string
    apiVer       string
    workers      int
    retryMax     int
    retryBackoff time.Duration
    http         *http.Client
    log          zerolog.Logger
    sleep        func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    workers := cfg.Workers
    if workers < 1 { workers = 1 }
    tr := http.DefaultTransport.(*http.Transport).Clone()
    tr.MaxIdleConns = workers * 2
    tr.MaxIdleConnsPerHost = workers * 2
    tr.MaxConnsPerHost = workers * 2
    apiVer := cfg.JiraAPIVersion
    if apiVer == "" { apiVer = "3" }
    return &Client{
        baseURL:      strings.TrimRight(cfg.JiraBaseURL, "/"),
        user:         cfg.JiraUsername,
        token:        cfg.JiraAPIToken,
        apiVer:       apiVer,
        workers:      workers,
        retryMax:     cfg.RetryMax,
        retryBackoff: cfg.RetryBackoff,
        http:         &http.Client{Timeout: cfg.HTTPTimeout, Transport: tr},
        log:          log.With().Str("component", "jira.client").Logger(),
        sleep:        sleepCtx,
    }
}

func sleepCtx(ctx context.Context, d time.Duration) error {
    if d <= 0 { return nil }
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return ctx.Err()
    case <-t.C:
        return nil
    }
}

// apiURL joins the REST prefix for the configured API version with path and query.
func (c *Client) apiURL(path string, q url.Values) string {
    if !strings.HasPrefix(path, "/") { path = "/" + path }
    u := c.baseURL + "/rest/api/" + c.apiVer + path
    if len(q) > 0 { u = u + "?" + q.Encode() }
    return u
}

// backoff returns the delay before retry number n (1-based).
func (c *Client) backoff(n int, resp *http.Response) time.Duration {
    if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
        if s := strings.TrimSpace(resp.Header.Get("Retry-After")); s != "" {
            if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
                d := time.Duration(secs) * time.Second
                if d > maxRetryAfter { d = maxRetryAfter }
                return d
            }
        }
    }
    return c.retryBackoff * time.Duration(1<<(n-1))
}

// getJSON issues a GET and decodes a 2xx body into out. Transport errors and
// retryable statuses are retried up to retryMax times with exponential backoff.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
    var lastErr error
    for attempt := 0; attempt <= c.retryMax; attempt++ {
        if attempt > 0 {
            var prev *http.Response
            var apiErr *retryableStatus
            if errors.As(lastErr, &apiErr) { prev = apiErr.resp }
            d := c.backoff(attempt, prev)
            c.log.Warn().Err(lastErr).Int("retry", attempt).Dur("backoff", d).Str("url", u).Msg("jira request retry")
            if err := c.sleep(ctx, d); err != nil { return err }
        }
        err := c.once(ctx, u, out)
        if err == nil { return nil }
        if !retryable(ctx, err) { return unwrapRetryable(err) }
        lastErr = err
    }
    return fmt.Errorf("jira: giving up after %d attempts: %w", c.retryMax+1, unwrapRetryable(lastErr))
}

// retryableStatus carries a retryable response until the retry budget runs out.
type retryableStatus struct {
    err  *APIError
    resp *http.Response
}

func (r *retryableStatus) Error() string { return r.err.Error() }
func (r *retryableStatus) Unwrap() error { return r.err }

func unwrapRetryable(err error) error {
    var rs *retryableStatus
    if errors.As(err, &rs) { return rs.err }
    return err
}

type transportError struct{ err error }

func (t *transportError) Error() string { return t.err.Error() }
func (t *transportError) Unwrap() error { return t.err }

func retryable(ctx context.Context, err error) bool {
    if ctx.Err() != nil { return false }
    var rs *retryableStatus
    if errors.As(err, &rs) { return true }
    var te *transportError
    if errors.As(err, &te) { return !errors.Is(te.err, context.Canceled) }
    return false
}

func (c *Client) once(ctx context.Context, u string, out any) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
    if err != nil { return err }
    req.Header.Set("Accept", "application/json")
    req.SetBasicAuth(c.user, c.token)
    resp, err := c.http.Do(req)
    if err != nil { return &transportError{err: err} }
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
        apiErr := &APIError{StatusCode: resp.StatusCode, URL: u, Body: strings.TrimSpace(string(b))}
        if retryStatuses[resp.StatusCode] { return &retryableStatus{err: apiErr, resp: resp} }
        return apiErr
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        return fmt.Errorf("jira: decode %s: %w", u, err)
    }
    return nil
}
