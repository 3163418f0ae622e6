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

// Package ledger is the durable record of message identifiers the
// pipeline has already handled. Once an id is committed it is never acted
// on again, regardless of how that message turned out. Entries are never
// deleted.
//
// The storage backend is selected by configuration so deployments can use
// a flat file, an embedded database, or shared infrastructure without the
// orchestrator knowing the difference.
package ledger

import (
	"context"
	"fmt"
)

// Ledger gates exactly-once message handling.
//
// Commit must be durable before it returns: a crash immediately after a
// successful Commit must not lose the entry. Committing an id twice is a
// no-op, never an error.
type Ledger interface {
	IsProcessed(ctx context.Context, id string) (bool, error)
	Commit(ctx context.Context, id string) error
	Close() error
}

// Backend names a ledger storage implementation.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
)

// Options selects and parameterizes a ledger backend.
type Options struct {
	Backend     Backend
	Path        string // file backend: append-only id file
	SQLitePath  string // sqlite backend: database file
	DatabaseURL string // postgres backend: connection string
	RedisURL    string // redis backend: connection URL
}

// Open creates the configured ledger backend.
func Open(ctx context.Context, opts Options) (Ledger, error) {
	switch opts.Backend {
	case BackendFile, "":
		return OpenFile(opts.Path)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.SQLitePath)
	case BackendPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", opts.Backend)
	}
}
