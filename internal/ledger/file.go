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
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileLedger is the default backend: one message id per line in an
// append-only file, loaded into memory at the start of a run. Each commit
// is fsynced before returning.
type FileLedger struct {
	mu   sync.Mutex
	f    *os.File
	seen map[string]struct{}
}

// OpenFile opens (creating if needed) the ledger file at path and loads
// the committed ids.
func OpenFile(path string) (*FileLedger, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger file path not configured")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			seen[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	return &FileLedger{f: f, seen: seen}, nil
}

// IsProcessed reports whether id was committed in this or any prior run.
func (l *FileLedger) IsProcessed(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok, nil
}

// Commit appends id to the ledger file and flushes it to disk before
// returning. Re-committing a known id is a no-op.
func (l *FileLedger) Commit(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return nil
	}

	if _, err := fmt.Fprintln(l.f, id); err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("sync ledger: %w", err)
	}

	l.seen[id] = struct{}{}
	return nil
}

// Close releases the underlying file.
func (l *FileLedger) Close() error {
	return l.f.Close()
}
