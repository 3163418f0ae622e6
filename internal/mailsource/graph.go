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

// Package mailsource provides access to the monitored mailbox through the
// Microsoft Graph API: listing recent message IDs and fetching full message
// content as plain text.
package mailsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/docketdrop/nefwatch/internal/models"
)

const (
	// DefaultBaseURL is the production Graph API endpoint.
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"

	defaultLookback  = 72 * time.Hour
	defaultPageDelay = 500 * time.Millisecond
)

// GraphSource lists and fetches messages from a single monitored mailbox.
type GraphSource struct {
	httpClient *http.Client
	baseURL    string
	mailbox    string // user ID or UPN
	folder     string // well-known name or folder ID; empty means all mail
	lookback   time.Duration
	pageDelay  time.Duration // delay between list pages to avoid throttling
	now        func() time.Time
}

// GraphConfig holds the mailbox access settings.
type GraphConfig struct {
	HTTPClient *http.Client // must carry Graph credentials
	BaseURL    string
	Mailbox    string
	Folder     string
	Lookback   time.Duration
	PageDelay  time.Duration
}

// NewGraphSource creates a mailbox source.
func NewGraphSource(cfg GraphConfig) *GraphSource {
	s := &GraphSource{
		httpClient: cfg.HTTPClient,
		baseURL:    cfg.BaseURL,
		mailbox:    cfg.Mailbox,
		folder:     cfg.Folder,
		lookback:   cfg.Lookback,
		pageDelay:  cfg.PageDelay,
		now:        time.Now,
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.baseURL == "" {
		s.baseURL = DefaultBaseURL
	}
	if s.lookback == 0 {
		s.lookback = defaultLookback
	}
	if s.pageDelay == 0 {
		s.pageDelay = defaultPageDelay
	}
	return s
}

// messagesResponse represents a page of the /messages list response.
type messagesResponse struct {
	Value    []messageStub `json:"value"`
	NextLink string        `json:"@odata.nextLink"`
}

// messageStub is a minimal message from the list endpoint.
type messageStub struct {
	ID string `json:"id"`
}

// ListIDs returns the IDs of all messages received within the lookback
// window, newest first, following @odata.nextLink pagination.
func (s *GraphSource) ListIDs(ctx context.Context) ([]string, error) {
	sinceTime := s.now().UTC().Add(-s.lookback).Format(time.RFC3339)

	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("receivedDateTime ge %s", sinceTime))
	params.Set("$select", "id")
	params.Set("$orderby", "receivedDateTime desc")
	params.Set("$top", "50")

	listURL := fmt.Sprintf("%s/users/%s%s/messages?%s",
		s.baseURL, s.mailbox, s.folderSegment(), params.Encode())

	var ids []string
	pageCount := 0
	for nextURL := listURL; nextURL != ""; {
		// Rate limit between pages
		if pageCount > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.pageDelay):
			}
		}

		page, err := s.fetchPage(ctx, nextURL)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", pageCount, err)
		}
		pageCount++

		for _, stub := range page.Value {
			ids = append(ids, stub.ID)
		}

		nextURL = page.NextLink
	}

	slog.Debug("mailbox listing complete",
		"mailbox", s.mailbox,
		"since", sinceTime,
		"messages", len(ids),
		"pages", pageCount,
	)

	return ids, nil
}

func (s *GraphSource) folderSegment() string {
	if s.folder == "" {
		return ""
	}
	return "/mailFolders/" + s.folder
}

// fetchPage retrieves a single page of messages from the list endpoint.
func (s *GraphSource) fetchPage(ctx context.Context, pageURL string) (*messagesResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "odata.maxpagesize=50")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch messages page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Error("messages list error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("messages list returned HTTP %d", resp.StatusCode)
	}

	var page messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode messages response: %w", err)
	}

	return &page, nil
}

// Fetch retrieves the full content of a single message. The body is
// requested as plain text so link extraction sees rendered markup rather
// than raw HTML where the mailbox supports it.
func (s *GraphSource) Fetch(ctx context.Context, messageID string) (*models.RawMessage, error) {
	// Select only the fields extraction needs
	fetchURL := fmt.Sprintf("%s/users/%s/messages/%s?$select=id,subject,from,body",
		s.baseURL, s.mailbox, messageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Prefer", "outlook.body-content-type=\"text\"")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		slog.Warn("message not found (may have been deleted)",
			"mailbox", s.mailbox,
			"message_id", messageID,
		)
		return nil, fmt.Errorf("message %s no longer exists", messageID)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph API returned HTTP %d for message %s", resp.StatusCode, messageID)
	}

	msg, err := parseGraphMessage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	return msg, nil
}
