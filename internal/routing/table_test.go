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

package routing

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routes.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	return path
}

// TestLoadTable verifies a valid routing file loads with normalized keys.
func TestLoadTable(t *testing.T) {
	path := writeTable(t, `{
		"cases": {
			"1:24-CV-00123": "/clients/smith",
			"9:21-cv-00029-mjt": "/clients/jones"
		}
	}`)

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2", table.Len())
	}

	dir, ok := table.Lookup("1:24-cv-00123")
	if !ok || dir != "/clients/smith" {
		t.Errorf("Lookup(1:24-cv-00123) = %q, %v; want /clients/smith, true", dir, ok)
	}

	// Lookup is insensitive to how the caller cased the id
	if dir, ok := table.Lookup("9:21-CV-00029-MJT"); !ok || dir != "/clients/jones" {
		t.Errorf("Lookup(9:21-CV-00029-MJT) = %q, %v; want /clients/jones, true", dir, ok)
	}
}

// TestLoadTable_UnmappedCase verifies absent cases simply miss.
func TestLoadTable_UnmappedCase(t *testing.T) {
	path := writeTable(t, `{"cases": {}}`)

	table, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	if _, ok := table.Lookup("1:24-cv-00123"); ok {
		t.Error("Lookup on empty table reported a mapping")
	}
}

// TestLoadTable_Invalid verifies corrupt or malformed tables are rejected
// with an error rather than partially applied.
func TestLoadTable_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `cases = oops`},
		{"missing cases key", `{"routes": {}}`},
		{"unknown top-level key", `{"cases": {}, "extra": 1}`},
		{"non-string destination", `{"cases": {"1:24-cv-00123": 7}}`},
		{"empty destination", `{"cases": {"1:24-cv-00123": ""}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadTable(writeTable(t, tt.content)); err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}

// TestLoadTable_MissingFile verifies a descriptive error for an absent file.
func TestLoadTable_MissingFile(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file, got none")
	}
}

// TestLoadTable_ConflictingDuplicateKeys verifies two spellings of the
// same case pointing at different directories are rejected.
func TestLoadTable_ConflictingDuplicateKeys(t *testing.T) {
	path := writeTable(t, `{
		"cases": {
			"1:24-cv-00123": "/clients/smith",
			"1:24-CV-00123": "/clients/jones"
		}
	}`)

	if _, err := LoadTable(path); err == nil {
		t.Error("expected error for conflicting duplicate keys, got none")
	}
}
