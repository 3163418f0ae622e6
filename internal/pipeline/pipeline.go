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

// Package pipeline sequences the per-message flow: ledger check, message
// fetch, extraction, document retrieval, routing, ledger commit. Messages
// are processed strictly one at a time — the ledger and the collision
// checks in routing assume a single writer — and a failure on one message
// never aborts the rest of the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docketdrop/nefwatch/internal/activity"
	"github.com/docketdrop/nefwatch/internal/extract"
	"github.com/docketdrop/nefwatch/internal/models"
	"github.com/docketdrop/nefwatch/internal/retrieve"
)

// Source yields raw messages from the mailbox collaborator. Listing and
// fetching are separate so the ledger check happens before any message
// body crosses the wire.
type Source interface {
	ListIDs(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, id string) (*models.RawMessage, error)
}

// Ledger gates exactly-once handling (see the ledger package).
type Ledger interface {
	IsProcessed(ctx context.Context, id string) (bool, error)
	Commit(ctx context.Context, id string) error
}

// Retriever performs the one-shot document fetch.
type Retriever interface {
	Fetch(ctx context.Context, url string) (*models.Document, error)
}

// Router places a retrieved document and returns the written path.
type Router interface {
	Route(caseID string, doc *models.Document, descriptive string) (string, error)
}

// Recorder appends one activity line per processed message.
type Recorder interface {
	Record(activity.Entry) error
}

// Outcome is the terminal disposition of one message in a run.
type Outcome string

const (
	// OutcomeRouted — document written and the message committed.
	OutcomeRouted Outcome = "routed"

	// OutcomeDuplicate — ledger hit; nothing was fetched.
	OutcomeDuplicate Outcome = "duplicate"

	// OutcomeNotRecognized — not a filing notice; committed and skipped.
	OutcomeNotRecognized Outcome = "not_recognized"

	// OutcomeMalformed — recognized but unusable; committed and skipped.
	OutcomeMalformed Outcome = "malformed"

	// OutcomeDeferred — transient failure before the link was consumed or
	// while placing the file. Not committed: retried on the next run.
	OutcomeDeferred Outcome = "deferred"

	// OutcomeFailed — the link is burned or the payload unusable.
	// Committed so it is never retried; flagged for manual follow-up
	// through the original document source.
	OutcomeFailed Outcome = "failed"
)

// Result is the disposition of one message.
type Result struct {
	MessageID string
	Outcome   Outcome
	CaseID    string
	Path      string // destination path when routed
	Detail    string // failure reason or skip classification
}

// Summary aggregates one run.
type Summary struct {
	RunID      string
	Total      int
	Routed     int
	Duplicates int
	Skipped    int // not recognized + malformed
	Deferred   int
	Failed     int
	Results    []Result
}

// Pipeline orchestrates one run-to-completion batch.
type Pipeline struct {
	source    Source
	ledger    Ledger
	retriever Retriever
	router    Router
	recorder  Recorder
}

// Config holds the pipeline's collaborators.
type Config struct {
	Source    Source
	Ledger    Ledger
	Retriever Retriever
	Router    Router
	Recorder  Recorder
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		source:    cfg.Source,
		ledger:    cfg.Ledger,
		retriever: cfg.Retriever,
		router:    cfg.Router,
		recorder:  cfg.Recorder,
	}
}

// Run processes the currently available batch of messages and returns a
// summary. Per-message failures are absorbed into the summary; the
// returned error is non-nil only for run-level failures (source listing,
// ledger storage), which abort the batch.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String()}
	log := slog.With("run_id", summary.RunID)

	ids, err := p.source.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	log.Info("run starting", "messages", len(ids))

	for _, id := range ids {
		res, err := p.processOne(ctx, log, id)
		if err != nil {
			// Ledger storage failure: continuing would risk double
			// processing, so the batch stops here.
			return summary, err
		}

		summary.Total++
		summary.Results = append(summary.Results, res)
		switch res.Outcome {
		case OutcomeRouted:
			summary.Routed++
		case OutcomeDuplicate:
			summary.Duplicates++
		case OutcomeNotRecognized, OutcomeMalformed:
			summary.Skipped++
		case OutcomeDeferred:
			summary.Deferred++
		case OutcomeFailed:
			summary.Failed++
		}
	}

	log.Info("run complete",
		"total", summary.Total,
		"routed", summary.Routed,
		"duplicates", summary.Duplicates,
		"skipped", summary.Skipped,
		"deferred", summary.Deferred,
		"failed", summary.Failed,
	)

	return summary, nil
}

// processOne advances a single message to a terminal outcome. The
// returned error is reserved for ledger failures; everything else is
// folded into the Result.
func (p *Pipeline) processOne(ctx context.Context, log *slog.Logger, id string) (Result, error) {
	processed, err := p.ledger.IsProcessed(ctx, id)
	if err != nil {
		return Result{}, fmt.Errorf("ledger check for %s: %w", id, err)
	}
	if processed {
		return p.finish(Result{MessageID: id, Outcome: OutcomeDuplicate})
	}

	raw, err := p.source.Fetch(ctx, id)
	if err != nil {
		log.Warn("message fetch failed, deferring",
			"message_id", id,
			"error", err,
		)
		return p.finish(Result{
			MessageID: id,
			Outcome:   OutcomeDeferred,
			Detail:    fmt.Sprintf("fetch message: %v", err),
		})
	}

	res := extract.Extract(*raw)
	switch res.Status {
	case extract.StatusNotRecognized:
		if err := p.ledger.Commit(ctx, id); err != nil {
			return Result{}, fmt.Errorf("ledger commit for %s: %w", id, err)
		}
		return p.finish(Result{MessageID: id, Outcome: OutcomeNotRecognized})
	case extract.StatusMalformed:
		if err := p.ledger.Commit(ctx, id); err != nil {
			return Result{}, fmt.Errorf("ledger commit for %s: %w", id, err)
		}
		log.Info("recognized notice is missing case id or retrieval link, skipping",
			"message_id", id,
			"subject", raw.Subject,
		)
		return p.finish(Result{MessageID: id, Outcome: OutcomeMalformed})
	}

	n := res.Notification
	log.Info("processing filing notice",
		"message_id", id,
		"case_id", n.CaseID,
	)

	doc, err := p.retriever.Fetch(ctx, n.DocumentURL)
	if err != nil {
		var fe *retrieve.FetchError
		if errors.As(err, &fe) && fe.IsPermanent() {
			// The link is burned: stop retrying and flag for manual
			// retrieval through the original source.
			if err := p.ledger.Commit(ctx, id); err != nil {
				return Result{}, fmt.Errorf("ledger commit for %s: %w", id, err)
			}
			log.Error("document unrecoverable through one-time link",
				"message_id", id,
				"case_id", n.CaseID,
				"kind", fe.Kind.String(),
			)
			return p.finish(Result{
				MessageID: id,
				Outcome:   OutcomeFailed,
				CaseID:    n.CaseID,
				Detail:    fmt.Sprintf("document fetch: %s", fe.Kind),
			})
		}

		log.Warn("document fetch failed transiently, deferring",
			"message_id", id,
			"case_id", n.CaseID,
			"error", err,
		)
		return p.finish(Result{
			MessageID: id,
			Outcome:   OutcomeDeferred,
			CaseID:    n.CaseID,
			Detail:    fmt.Sprintf("document fetch: %v", err),
		})
	}

	path, err := p.router.Route(n.CaseID, doc, raw.Subject)
	if err != nil {
		// An unwritable destination is an environment problem likely to
		// affect every message; report loudly but keep the id
		// uncommitted so the file write is retried next run.
		log.Error("routing failed, deferring",
			"message_id", id,
			"case_id", n.CaseID,
			"error", err,
		)
		return p.finish(Result{
			MessageID: id,
			Outcome:   OutcomeDeferred,
			CaseID:    n.CaseID,
			Detail:    fmt.Sprintf("route document: %v", err),
		})
	}

	// Commit only after the file is durably on disk.
	if err := p.ledger.Commit(ctx, id); err != nil {
		return Result{}, fmt.Errorf("ledger commit for %s after writing %s: %w", id, path, err)
	}

	log.Info("document routed",
		"message_id", id,
		"case_id", n.CaseID,
		"path", path,
	)

	return p.finish(Result{
		MessageID: id,
		Outcome:   OutcomeRouted,
		CaseID:    n.CaseID,
		Path:      path,
	})
}

// finish writes the activity line for a terminal result.
func (p *Pipeline) finish(res Result) (Result, error) {
	detail := res.Detail
	if res.Outcome == OutcomeRouted {
		detail = res.Path
	}

	if err := p.recorder.Record(activity.Entry{
		CaseID:  res.CaseID,
		Outcome: string(res.Outcome),
		Detail:  detail,
	}); err != nil {
		slog.Warn("failed to append activity record",
			"message_id", res.MessageID,
			"error", err,
		)
	}
	return res, nil
}
