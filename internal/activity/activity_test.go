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

package activity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestRecord_LineFormat verifies one tab-separated line per entry.
func TestRecord_LineFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	r, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}
	defer r.Close()

	when := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)
	entries := []Entry{
		{Time: when, CaseID: "1:24-cv-00123", Outcome: "routed", Detail: "/clients/smith/2024-06-01_Motion.pdf"},
		{Time: when, Outcome: "not_recognized"},
		{Time: when, CaseID: "2:23-cv-00999", Outcome: "failed", Detail: "link expired"},
	}
	for _, e := range entries {
		if err := r.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read activity file: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	if want := "2024-06-01T15:30:00Z\t1:24-cv-00123\trouted\t/clients/smith/2024-06-01_Motion.pdf"; lines[0] != want {
		t.Errorf("line 1 = %q, want %q", lines[0], want)
	}
	if !strings.Contains(lines[1], "\tunrecognized\tnot_recognized\t") {
		t.Errorf("line 2 missing unrecognized placeholder: %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "failed\tlink expired") {
		t.Errorf("line 3 = %q", lines[2])
	}
}

// TestRecord_AppendsAcrossReopen verifies the file is append-only.
func TestRecord_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")

	r1, err := NewRecorder(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := r1.Record(Entry{Outcome: "routed", CaseID: "1:24-cv-00123"}); err != nil {
		t.Fatal(err)
	}
	r1.Close()

	r2, err := NewRecorder(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := r2.Record(Entry{Outcome: "deferred", CaseID: "1:24-cv-00123"}); err != nil {
		t.Fatal(err)
	}
	r2.Close()

	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("file has %d lines after reopen, want 2", got)
	}
}

// TestRecord_FlattensNewlines verifies multi-line details stay on one line.
func TestRecord_FlattensNewlines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.log")
	r, err := NewRecorder(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if err := r.Record(Entry{Outcome: "failed", Detail: "line one\nline two"}); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "\n"); got != 1 {
		t.Errorf("entry spans %d lines, want 1", got)
	}
}
