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

// Package routing maps case identifiers to destination directories and
// places retrieved documents without ever overwriting an existing file.
// The routing table is loaded fresh at the start of each run and treated
// as a read-only snapshot; operators or external tooling may edit the
// file between runs.
package routing

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/docketdrop/nefwatch/internal/models"
)

// tableSchema validates the routing file before any message is processed.
// A corrupt table would silently misroute every document to quarantine,
// so load failures abort the whole run.
const tableSchema = `{
  "type": "object",
  "required": ["cases"],
  "additionalProperties": false,
  "properties": {
    "cases": {
      "type": "object",
      "additionalProperties": {
        "type": "string",
        "minLength": 1
      }
    }
  }
}`

// Table is a read-only snapshot of the caseID -> destination mapping.
type Table struct {
	entries map[string]string
}

// LoadTable reads and validates the routing file at path. Keys are
// normalized the same way extracted case identifiers are, so lookups are
// insensitive to how the operator typed the docket number.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routing table %s: %w", path, err)
	}

	sch, err := compileTableSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse routing table %s: %w", path, err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("validate routing table %s: %w", path, err)
	}

	raw := inst.(map[string]any)["cases"].(map[string]any)
	entries := make(map[string]string, len(raw))
	for caseID, dir := range raw {
		key := models.NormalizeCaseID(caseID)
		if prev, dup := entries[key]; dup && prev != dir.(string) {
			return nil, fmt.Errorf("routing table %s: case %q mapped to both %q and %q", path, key, prev, dir)
		}
		entries[key] = dir.(string)
	}

	return &Table{entries: entries}, nil
}

func compileTableSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(tableSchema))
	if err != nil {
		return nil, fmt.Errorf("parse routing schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("routes.schema.json", doc); err != nil {
		return nil, fmt.Errorf("add routing schema: %w", err)
	}
	sch, err := c.Compile("routes.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile routing schema: %w", err)
	}
	return sch, nil
}

// Lookup returns the destination directory configured for a case.
func (t *Table) Lookup(caseID string) (string, bool) {
	dir, ok := t.entries[models.NormalizeCaseID(caseID)]
	return dir, ok
}

// Len returns the number of configured mappings.
func (t *Table) Len() int { return len(t.entries) }

// CaseIDs returns the configured case identifiers in sorted order.
func (t *Table) CaseIDs() []string {
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
