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

// Package retrieve performs the one-shot download of a court document
// through its one-time retrieval link. The link expires after first use
// or a fixed validity window, so the fetcher never retries: retry policy
// belongs to the caller across runs, and only for failures that did not
// consume the link.
package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/docketdrop/nefwatch/internal/models"
)

// DefaultTimeout bounds a single document fetch.
const DefaultTimeout = 30 * time.Second

// FailureKind classifies a failed fetch for the caller's retry decision.
type FailureKind int

const (
	// KindNetwork covers transport errors, timeouts, and server-side
	// throttling. The link was not consumed: the message may be retried
	// on a later run.
	KindNetwork FailureKind = iota

	// KindExpired means the server reported the link as used or expired
	// (HTTP 410, or a success status carrying the login page instead of
	// the document). Permanent — the document must be pulled manually.
	KindExpired

	// KindInvalidContent means the server responded successfully but the
	// payload is not the expected document. Permanent.
	KindInvalidContent
)

// String returns the kind name used in logs and the activity record.
func (k FailureKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindExpired:
		return "expired"
	case KindInvalidContent:
		return "invalid_content"
	default:
		return "unknown"
	}
}

// FetchError reports a failed document fetch with its classification.
type FetchError struct {
	Kind   FailureKind
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch document (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch document (%s): HTTP %d", e.Kind, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsPermanent reports whether the failure burned or invalidated the link,
// making a retry pointless.
func (e *FetchError) IsPermanent() bool { return e.Kind != KindNetwork }

// Fetcher downloads documents through their one-time links.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher creates a document fetcher. A nil client uses a dedicated
// client bounded by the given timeout (DefaultTimeout when zero).
func NewFetcher(client *http.Client, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{client: client, timeout: timeout}
}

// Fetch retrieves the document behind the given retrieval link exactly
// once and validates that the payload is a usable PDF. On failure it
// returns a *FetchError; callers must not call Fetch again for the same
// notification within a run.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: KindInvalidContent, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone:
		return nil, &FetchError{Kind: KindExpired, Status: resp.StatusCode}
	case resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= 500:
		return nil, &FetchError{Kind: KindNetwork, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{Kind: KindInvalidContent, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Err: fmt.Errorf("read body: %w", err)}
	}

	contentType := resp.Header.Get("Content-Type")

	// A success status carrying HTML is the ECF login page: the free look
	// was already spent.
	if looksLikeHTML(contentType, body) {
		return nil, &FetchError{Kind: KindExpired, Status: resp.StatusCode}
	}

	if err := validatePDF(body); err != nil {
		slog.Warn("retrieved payload failed document validation",
			"content_type", contentType,
			"bytes", len(body),
			"error", err,
		)
		return nil, &FetchError{Kind: KindInvalidContent, Status: resp.StatusCode, Err: err}
	}

	return &models.Document{Bytes: body, ContentType: contentType}, nil
}

// looksLikeHTML detects the login page by content type or body prefix.
func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype")) || bytes.HasPrefix(head, []byte("<html"))
}

// validatePDF checks the payload signature and structure.
func validatePDF(body []byte) error {
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		return fmt.Errorf("payload missing PDF signature")
	}

	count, err := api.PageCount(bytes.NewReader(body), model.NewDefaultConfiguration())
	if err != nil {
		return fmt.Errorf("parse PDF: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("PDF has no pages")
	}
	return nil
}
