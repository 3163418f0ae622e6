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

// Package models defines the data structures shared across the pipeline.
package models

// RawMessage is one notification message as delivered by the mail source.
// The ID is the source's stable identifier for the message and is the key
// the ledger deduplicates on. A RawMessage is immutable once read.
type RawMessage struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notification is the result of successfully extracting a filing notice
// from a raw message. Both fields are always populated: a Notification is
// never constructed with a missing or unvalidated field.
type Notification struct {
	// CaseID is the normalized docket identifier, e.g. "1:24-cv-00123".
	CaseID string `json:"case_id"`

	// DocumentURL is the one-time document retrieval link, validated to be
	// an absolute ECF URL carrying the retrieval-token query parameter.
	DocumentURL string `json:"document_url"`
}

// Document holds the bytes of a retrieved court filing.
type Document struct {
	Bytes       []byte `json:"-"`
	ContentType string `json:"content_type"`
}
