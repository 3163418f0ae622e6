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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MailboxConfig holds Graph credentials and the monitored mailbox.
type MailboxConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	User         string // mailbox user ID or UPN
	Folder       string // optional folder scope, e.g. "inbox"
	Lookback     time.Duration
}

// Config holds all configuration for a watcher run.
type Config struct {
	Mailbox MailboxConfig

	// Routing
	RoutesPath    string
	QuarantineDir string

	// Ledger
	LedgerBackend     string
	LedgerPath        string // file backend
	LedgerSQLitePath  string
	LedgerDatabaseURL string // postgres backend
	LedgerRedisURL    string

	// Activity record
	ActivityPath string

	// Document fetch
	FetchTimeout time.Duration

	// Run lock
	LockPath string

	// Overridable for tests
	GraphBaseURL string
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Mailbox struct {
		TenantID     string `yaml:"tenant_id"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
		User         string `yaml:"user"`
		Folder       string `yaml:"folder"`
		Lookback     string `yaml:"lookback"`
	} `yaml:"mailbox"`
	Routes struct {
		Path          string `yaml:"path"`
		QuarantineDir string `yaml:"quarantine_dir"`
	} `yaml:"routes"`
	Ledger struct {
		Backend     string `yaml:"backend"`
		Path        string `yaml:"path"`
		SQLitePath  string `yaml:"sqlite_path"`
		DatabaseURL string `yaml:"database_url"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"ledger"`
	Activity struct {
		Path string `yaml:"path"`
	} `yaml:"activity"`
	Fetch struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"fetch"`
	Lock struct {
		Path string `yaml:"path"`
	} `yaml:"lock"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for overrides. A .env file next to the process is
// honored when present.
func Load() (*Config, error) {
	// Optional; absence is not an error
	_ = godotenv.Load()

	configPath := envOrDefault("CONFIG_PATH", "/etc/nefwatch/config.yaml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	// Expand ${VAR} references in the YAML
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	lookback, err := durationOrDefault(raw.Mailbox.Lookback, 72*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("mailbox.lookback: %w", err)
	}
	fetchTimeout, err := durationOrDefault(raw.Fetch.Timeout, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("fetch.timeout: %w", err)
	}

	cfg := &Config{
		Mailbox: MailboxConfig{
			TenantID:     firstNonEmpty(raw.Mailbox.TenantID, os.Getenv("GRAPH_TENANT_ID")),
			ClientID:     firstNonEmpty(raw.Mailbox.ClientID, os.Getenv("GRAPH_CLIENT_ID")),
			ClientSecret: firstNonEmpty(raw.Mailbox.ClientSecret, os.Getenv("GRAPH_CLIENT_SECRET")),
			User:         firstNonEmpty(raw.Mailbox.User, os.Getenv("WATCH_MAILBOX")),
			Folder:       raw.Mailbox.Folder,
			Lookback:     lookback,
		},
		RoutesPath:        firstNonEmpty(raw.Routes.Path, envOrDefault("ROUTES_PATH", "/etc/nefwatch/routes.json")),
		QuarantineDir:     firstNonEmpty(raw.Routes.QuarantineDir, envOrDefault("QUARANTINE_DIR", "/var/lib/nefwatch/unmatched")),
		LedgerBackend:     firstNonEmpty(raw.Ledger.Backend, envOrDefault("LEDGER_BACKEND", "file")),
		LedgerPath:        firstNonEmpty(raw.Ledger.Path, envOrDefault("LEDGER_PATH", "/var/lib/nefwatch/processed.log")),
		LedgerSQLitePath:  firstNonEmpty(raw.Ledger.SQLitePath, os.Getenv("LEDGER_SQLITE_PATH")),
		LedgerDatabaseURL: firstNonEmpty(raw.Ledger.DatabaseURL, os.Getenv("DATABASE_URL")),
		LedgerRedisURL:    firstNonEmpty(raw.Ledger.RedisURL, os.Getenv("REDIS_URL")),
		ActivityPath:      firstNonEmpty(raw.Activity.Path, envOrDefault("ACTIVITY_PATH", "/var/lib/nefwatch/activity.log")),
		FetchTimeout:      fetchTimeout,
		LockPath:          firstNonEmpty(raw.Lock.Path, envOrDefault("LOCK_PATH", "/var/lib/nefwatch/run.lock")),
		GraphBaseURL:      os.Getenv("GRAPH_BASE_URL"),
	}

	if cfg.Mailbox.TenantID == "" || cfg.Mailbox.ClientID == "" || cfg.Mailbox.ClientSecret == "" {
		return nil, fmt.Errorf("mailbox credentials incomplete — set mailbox.tenant_id, client_id and client_secret")
	}
	if cfg.Mailbox.User == "" {
		return nil, fmt.Errorf("no mailbox configured — set mailbox.user or WATCH_MAILBOX")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(s string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
