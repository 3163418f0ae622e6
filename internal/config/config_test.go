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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
}

func TestLoad_FullConfig(t *testing.T) {
	t.Setenv("GRAPH_CLIENT_SECRET", "s3cret")
	writeConfig(t, `
mailbox:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: ${GRAPH_CLIENT_SECRET}
  user: intake@firm.example
  folder: inbox
  lookback: 24h
routes:
  path: /etc/nefwatch/routes.json
  quarantine_dir: /srv/unmatched
ledger:
  backend: sqlite
  sqlite_path: /var/lib/nefwatch/ledger.db
activity:
  path: /var/log/nefwatch/activity.log
fetch:
  timeout: 10s
lock:
  path: /run/nefwatch.lock
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Mailbox.ClientSecret != "s3cret" {
		t.Errorf("client secret = %q, env expansion failed", cfg.Mailbox.ClientSecret)
	}
	if cfg.Mailbox.User != "intake@firm.example" || cfg.Mailbox.Folder != "inbox" {
		t.Errorf("mailbox = %+v", cfg.Mailbox)
	}
	if cfg.Mailbox.Lookback != 24*time.Hour {
		t.Errorf("lookback = %v, want 24h", cfg.Mailbox.Lookback)
	}
	if cfg.LedgerBackend != "sqlite" || cfg.LedgerSQLitePath != "/var/lib/nefwatch/ledger.db" {
		t.Errorf("ledger = %q %q", cfg.LedgerBackend, cfg.LedgerSQLitePath)
	}
	if cfg.QuarantineDir != "/srv/unmatched" {
		t.Errorf("quarantine dir = %q", cfg.QuarantineDir)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("fetch timeout = %v", cfg.FetchTimeout)
	}
	if cfg.LockPath != "/run/nefwatch.lock" {
		t.Errorf("lock path = %q", cfg.LockPath)
	}
}

func TestLoad_Defaults(t *testing.T) {
	writeConfig(t, `
mailbox:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: secret
  user: intake@firm.example
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Mailbox.Lookback != 72*time.Hour {
		t.Errorf("default lookback = %v, want 72h", cfg.Mailbox.Lookback)
	}
	if cfg.LedgerBackend != "file" {
		t.Errorf("default ledger backend = %q, want file", cfg.LedgerBackend)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("default fetch timeout = %v, want 30s", cfg.FetchTimeout)
	}
	if cfg.RoutesPath == "" || cfg.QuarantineDir == "" || cfg.ActivityPath == "" || cfg.LockPath == "" {
		t.Errorf("missing path defaults: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	writeConfig(t, `
mailbox:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: secret
`)
	t.Setenv("WATCH_MAILBOX", "docket@firm.example")
	t.Setenv("LEDGER_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Mailbox.User != "docket@firm.example" {
		t.Errorf("mailbox user = %q", cfg.Mailbox.User)
	}
	if cfg.LedgerBackend != "redis" || cfg.LedgerRedisURL != "redis://localhost:6379/2" {
		t.Errorf("ledger = %q %q", cfg.LedgerBackend, cfg.LedgerRedisURL)
	}
}

func TestLoad_MissingCredentials(t *testing.T) {
	writeConfig(t, `
mailbox:
  user: intake@firm.example
`)

	if _, err := Load(); err == nil {
		t.Error("expected error for missing credentials")
	}
}

func TestLoad_MissingMailbox(t *testing.T) {
	writeConfig(t, `
mailbox:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: secret
`)
	t.Setenv("WATCH_MAILBOX", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing mailbox user")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	writeConfig(t, `
mailbox:
  tenant_id: tenant-1
  client_id: client-1
  client_secret: secret
  user: intake@firm.example
  lookback: yesterday
`)

	if _, err := Load(); err == nil {
		t.Error("expected error for unparseable lookback")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}
