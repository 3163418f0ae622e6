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

// Package extract parses raw court-notification messages into structured
// notifications. Extraction is a pure function of the message text: it
// performs no I/O, so parsing rules for per-court variants can evolve
// without touching retrieval or routing.
package extract

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/docketdrop/nefwatch/internal/models"
)

// Status classifies the outcome of extracting a single message.
type Status int

const (
	// StatusNotification means both the case identifier and the document
	// URL were located and validated.
	StatusNotification Status = iota

	// StatusNotRecognized means the message is not a filing notice at all
	// (wrong sender or subject). This is a normal outcome, not a fault.
	StatusNotRecognized

	// StatusMalformed means the message looks like a filing notice but the
	// case identifier or a usable retrieval link could not be located.
	// Also a normal outcome — the message is skipped permanently without
	// spending the one-time link.
	StatusMalformed
)

// String returns the status name used in logs and the activity record.
func (s Status) String() string {
	switch s {
	case StatusNotification:
		return "notification"
	case StatusNotRecognized:
		return "not_recognized"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Result is the outcome of extracting one raw message. Notification is
// only populated when Status is StatusNotification.
type Result struct {
	Status       Status
	Notification models.Notification
}

const (
	// senderDomain identifies the upstream notification source.
	senderDomain = "uscourts.gov"

	// subjectMarker appears in the subject of every filing notice.
	subjectMarker = "notice of electronic filing"

	// tokenParam is the query parameter that marks a one-time retrieval
	// link. A document URL without it would require an authenticated
	// fetch, so it is rejected before the link is ever dereferenced.
	tokenParam = "magic_num"
)

var (
	// Docket identifiers look like 1:24-cv-00123, optionally followed by
	// uppercase judge initials (9:21-cv-00029-MJT). They can appear
	// anywhere in the body, not just after a "Case Number:" label.
	caseIDPattern = regexp.MustCompile(`(?i)(\d:\d{2}-[a-z]{2}-\d+)(-[a-z]+)?`)

	// Retrieval links point at a district ECF host and carry the
	// retrieval-token parameter. They appear either as plain text or
	// inside href attributes.
	docURLPattern = regexp.MustCompile(`(?i)(https://ecf\.[a-z]+\.uscourts\.gov/doc1/\d+\?[^"\s<>]*magic_num=\d+)`)
)

// Extract parses a raw message into a notification. It never returns an
// error: unrecognizable and malformed messages are distinct statuses so
// callers cannot mistake a non-match for a crash.
func Extract(msg models.RawMessage) Result {
	if !recognized(msg) {
		return Result{Status: StatusNotRecognized}
	}

	// Notification bodies frequently arrive HTML-escaped (&amp; inside
	// the retrieval link), so unescape before matching.
	body := html.UnescapeString(msg.Body)

	caseID := extractCaseID(body)
	if caseID == "" {
		return Result{Status: StatusMalformed}
	}

	docURL := extractDocumentURL(body)
	if docURL == "" {
		return Result{Status: StatusMalformed}
	}

	return Result{
		Status: StatusNotification,
		Notification: models.Notification{
			CaseID:      caseID,
			DocumentURL: docURL,
		},
	}
}

// recognized reports whether the message matches the sender/subject shape
// of a filing notice from the upstream source.
func recognized(msg models.RawMessage) bool {
	sender := strings.ToLower(msg.Sender)
	subject := strings.ToLower(msg.Subject)
	return strings.Contains(sender, senderDomain) && strings.Contains(subject, subjectMarker)
}

// extractCaseID locates the docket identifier and normalizes it so it
// compares equal to routing-table keys.
func extractCaseID(body string) string {
	m := caseIDPattern.FindString(body)
	if m == "" {
		return ""
	}
	return models.NormalizeCaseID(m)
}

// extractDocumentURL locates the one-time retrieval link and validates it
// structurally. A link without the retrieval-token parameter is rejected —
// fetching it would burn a wasted request against an authenticated page.
func extractDocumentURL(body string) string {
	m := docURLPattern.FindString(body)
	if m == "" {
		return ""
	}

	u, err := url.Parse(m)
	if err != nil || !u.IsAbs() || u.Scheme != "https" {
		return ""
	}
	if u.Query().Get(tokenParam) == "" {
		return ""
	}
	return m
}
