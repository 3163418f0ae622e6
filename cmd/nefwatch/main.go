// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// nefwatch — Court Notification Watcher
//
// One-shot run: lists recent messages in the monitored mailbox, extracts
// case numbers and one-time document links from filing notices, retrieves
// each document exactly once, and files it under the case's client
// directory. Intended to run from cron or a systemd timer.
//
// Usage:
//
//	nefwatch [--lookback 72h]
//
// Exit codes: 0 on a completed run (including per-message failures),
// 2 for configuration or routing table problems, 1 otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/docketdrop/nefwatch/internal/activity"
	"github.com/docketdrop/nefwatch/internal/config"
	"github.com/docketdrop/nefwatch/internal/ledger"
	"github.com/docketdrop/nefwatch/internal/mailsource"
	"github.com/docketdrop/nefwatch/internal/pipeline"
	"github.com/docketdrop/nefwatch/internal/retrieve"
	"github.com/docketdrop/nefwatch/internal/routing"
	"github.com/docketdrop/nefwatch/internal/runlock"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// --- CLI Flags ---
	lookbackFlag := flag.String("lookback", "", "Override mailbox lookback window (e.g. 24h)")
	flag.Parse()

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 2
	}

	if *lookbackFlag != "" {
		d, err := time.ParseDuration(*lookbackFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid --lookback duration %q: %v\n", *lookbackFlag, err)
			return 2
		}
		cfg.Mailbox.Lookback = d
	}

	// --- Routing table ---
	table, err := routing.LoadTable(cfg.RoutesPath)
	if err != nil {
		slog.Error("failed to load routing table", "path", cfg.RoutesPath, "error", err)
		return 2
	}
	slog.Info("routing table loaded", "path", cfg.RoutesPath, "cases", table.Len())

	// --- Run lock ---
	lock, err := runlock.Acquire(cfg.LockPath)
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			slog.Warn("previous run still in progress, exiting", "lock", cfg.LockPath)
			return 1
		}
		slog.Error("failed to acquire run lock", "lock", cfg.LockPath, "error", err)
		return 1
	}
	defer lock.Release()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Ledger ---
	led, err := ledger.Open(ctx, ledger.Options{
		Backend:     ledger.Backend(cfg.LedgerBackend),
		Path:        cfg.LedgerPath,
		SQLitePath:  cfg.LedgerSQLitePath,
		DatabaseURL: cfg.LedgerDatabaseURL,
		RedisURL:    cfg.LedgerRedisURL,
	})
	if err != nil {
		slog.Error("failed to open ledger", "backend", cfg.LedgerBackend, "error", err)
		return 1
	}
	defer led.Close()

	// --- Activity record ---
	recorder, err := activity.NewRecorder(cfg.ActivityPath)
	if err != nil {
		slog.Error("failed to open activity record", "path", cfg.ActivityPath, "error", err)
		return 1
	}
	defer recorder.Close()

	// --- Build OAuth2 client for the mailbox tenant ---
	creds := &clientcredentials.Config{
		ClientID:     cfg.Mailbox.ClientID,
		ClientSecret: cfg.Mailbox.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.Mailbox.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	httpClient := creds.Client(ctx)

	source := mailsource.NewGraphSource(mailsource.GraphConfig{
		HTTPClient: httpClient,
		BaseURL:    cfg.GraphBaseURL,
		Mailbox:    cfg.Mailbox.User,
		Folder:     cfg.Mailbox.Folder,
		Lookback:   cfg.Mailbox.Lookback,
	})

	// Document fetches use a plain client; the court's one-time links are
	// not behind the Graph tenant.
	fetcher := retrieve.NewFetcher(nil, cfg.FetchTimeout)
	router := routing.NewRouter(table, cfg.QuarantineDir)

	// --- Run pipeline ---
	p := pipeline.New(pipeline.Config{
		Source:    source,
		Ledger:    led,
		Retriever: fetcher,
		Router:    router,
		Recorder:  recorder,
	})

	summary, err := p.Run(ctx)
	if err != nil {
		slog.Error("run failed", "error", err)
		return 1
	}

	slog.Info("run complete",
		"run_id", summary.RunID,
		"total", summary.Total,
		"routed", summary.Routed,
		"duplicates", summary.Duplicates,
		"skipped", summary.Skipped,
		"deferred", summary.Deferred,
		"failed", summary.Failed,
	)

	return 0
}
