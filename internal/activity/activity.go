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

// Package activity writes the human-readable record of what happened to
// each processed message. The file is append-only, line-oriented text for
// external observability tooling; nothing in the pipeline reads it back.
package activity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// unknownCase is recorded when a message yielded no case identifier.
const unknownCase = "unrecognized"

// Entry is one activity-record line.
type Entry struct {
	Time    time.Time
	CaseID  string // empty when no case identifier was extracted
	Outcome string // routed, duplicate, not_recognized, malformed, deferred, failed
	Detail  string // destination path on success, failure reason otherwise
}

// Recorder appends entries to the activity file, flushing each line.
type Recorder struct {
	mu sync.Mutex
	f  *os.File
}

// NewRecorder opens (creating if needed) the activity file at path.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("activity record path not configured")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create activity directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open activity record %s: %w", path, err)
	}
	return &Recorder{f: f}, nil
}

// Record appends one line for a processed message. A zero Time is stamped
// with the current time.
func (r *Recorder) Record(e Entry) error {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	caseID := e.CaseID
	if caseID == "" {
		caseID = unknownCase
	}

	detail := strings.ReplaceAll(e.Detail, "\n", " ")

	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("%s\t%s\t%s\t%s\n", ts.UTC().Format(time.RFC3339), caseID, e.Outcome, detail)
	if _, err := r.f.WriteString(line); err != nil {
		return fmt.Errorf("append activity record: %w", err)
	}
	if err := r.f.Sync(); err != nil {
		return fmt.Errorf("sync activity record: %w", err)
	}
	return nil
}

// Close releases the underlying file.
func (r *Recorder) Close() error {
	return r.f.Close()
}
