// Package inbox searches the authenticated mailbox for RFP-related
// messages and renders subject/preview summaries. The search semantics
// (case handling, partial matches) belong to the mail service; the query
// string is passed through verbatim.
package inbox

import (
	"context"
	"fmt"
)

// NoSubject stands in for messages without a Subject header.
const NoSubject = "No Subject"

// Header is one metadata header of a fetched message.
type Header struct {
	Name  string
	Value string
}

// Message is the metadata slice of one fetched mail.
type Message struct {
	ID      string
	Snippet string
	Headers []Header
}

// MessageService is the mail service contract: list ids matching a
// query, then fetch per-message metadata. Implemented by the Gmail
// adapter and by fakes in tests.
type MessageService interface {
	List(ctx context.Context, query string) ([]string, error)
	Get(ctx context.Context, id string) (Message, error)
}

// Checker runs one inbox query and renders the summaries.
type Checker struct {
	svc   MessageService
	query string
	limit int
}

// NewChecker builds a Checker for the given service and query settings.
func NewChecker(svc MessageService, query string, limit int) *Checker {
	if limit <= 0 {
		limit = 5
	}
	return &Checker{svc: svc, query: query, limit: limit}
}

// Check lists matches for the configured query, fetches at most the
// first limit messages in service order, and returns one two-line
// summary per message. Zero matches yields an empty, non-nil slice and
// no error so the caller can distinguish "nothing found" from a failed
// query (which must leave previously stored results alone).
func (c *Checker) Check(ctx context.Context) ([]string, error) {
	ids, err := c.svc.List(ctx, c.query)
	if err != nil {
		return nil, fmt.Errorf("inbox: list messages: %w", err)
	}
	if len(ids) > c.limit {
		ids = ids[:c.limit]
	}
	updates := make([]string, 0, len(ids))
	for _, id := range ids {
		msg, err := c.svc.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("inbox: fetch message %s: %w", id, err)
		}
		updates = append(updates, renderSummary(msg))
	}
	return updates, nil
}

func renderSummary(msg Message) string {
	subject := NoSubject
	for _, h := range msg.Headers {
		if h.Name == "Subject" {
			subject = h.Value
			break
		}
	}
	return fmt.Sprintf("Subject: %s\nPreview: %s", subject, msg.Snippet)
}
