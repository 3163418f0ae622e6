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

package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger stores committed ids in Postgres for deployments that
// already run one and want the ledger visible to operational tooling.
type PostgresLedger struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to Postgres and ensures the ledger table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresLedger, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("postgres ledger database URL not configured")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create Postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to Postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS processed_messages (
			message_id   TEXT PRIMARY KEY,
			committed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure ledger schema: %w", err)
	}

	slog.Info("postgres ledger initialised")
	return &PostgresLedger{pool: pool}, nil
}

// IsProcessed reports whether id has a committed row.
func (l *PostgresLedger) IsProcessed(ctx context.Context, id string) (bool, error) {
	var processed bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_messages WHERE message_id = $1)`, id,
	).Scan(&processed)
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return processed, nil
}

// Commit records id, ignoring duplicates.
func (l *PostgresLedger) Commit(ctx context.Context, id string) error {
	if _, err := l.pool.Exec(ctx,
		`INSERT INTO processed_messages (message_id) VALUES ($1) ON CONFLICT DO NOTHING`, id,
	); err != nil {
		return fmt.Errorf("ledger commit: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (l *PostgresLedger) Close() error {
	l.pool.Close()
	return nil
}
