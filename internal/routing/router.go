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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/docketdrop/nefwatch/internal/models"
)

const (
	// fallbackSlug names the file when the descriptive text sanitizes to
	// nothing.
	fallbackSlug = "document"

	// maxSlugLen caps the descriptive portion of generated file names.
	maxSlugLen = 50
)

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`\s+`)
)

// Router places retrieved documents into case directories. Unmapped cases
// go to the quarantine directory; that is a steady-state expectation, not
// an error.
type Router struct {
	table         *Table
	quarantineDir string
	now           func() time.Time
}

// NewRouter creates a router over a routing-table snapshot.
func NewRouter(table *Table, quarantineDir string) *Router {
	return &Router{
		table:         table,
		quarantineDir: quarantineDir,
		now:           time.Now,
	}
}

// Route writes the document under the directory mapped for caseID, naming
// it {date}_{slug}.pdf with a numeric suffix on collision. Exactly one new
// file exists after a successful call and no pre-existing file is altered.
// The returned path is the file actually written.
func (r *Router) Route(caseID string, doc *models.Document, descriptive string) (string, error) {
	dir, mapped := r.table.Lookup(caseID)
	if !mapped {
		dir = r.quarantineDir
		slog.Warn("case has no configured destination, quarantining",
			"case_id", caseID,
			"quarantine_dir", dir,
		)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create destination directory %s: %w", dir, err)
	}

	base := fmt.Sprintf("%s_%s", r.now().Format("2006-01-02"), Slugify(descriptive))

	for n := 0; ; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		path := filepath.Join(dir, name+".pdf")

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}

		if _, err := f.Write(doc.Bytes); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("sync %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}
		return path, nil
	}
}

// Slugify derives a filesystem-safe name fragment from descriptive text:
// reserved characters stripped, length capped, whitespace collapsed to
// underscores.
func Slugify(text string) string {
	s := slugStrip.ReplaceAllString(text, "")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	s = strings.TrimSpace(s)
	s = slugCollapse.ReplaceAllString(s, "_")
	if s == "" {
		return fallbackSlug
	}
	return s
}
