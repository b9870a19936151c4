/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
    "context"
    "os"
    "os/signal"
    "syscall"

    "github.com/spencermiles/jira-extractor/internal/config"
)

func main() {
    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    code := run(ctx, config.Load(), os.Args[1:], os.Stdout, os.Stderr)
    stop()
    os.Exit(code)
}
