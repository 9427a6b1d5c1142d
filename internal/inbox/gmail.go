package inbox

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const gmailUser = "me"

// GmailService implements MessageService over the Gmail REST API for the
// authenticated user's read-only inbox.
type GmailService struct {
	svc *gmail.Service
}

// NewGmailService builds the Gmail client from an OAuth token source.
func NewGmailService(ctx context.Context, ts oauth2.TokenSource) (*GmailService, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("inbox: build gmail service: %w", err)
	}
	return &GmailService{svc: svc}, nil
}

// List returns the ids of messages matching the query, in service order.
func (g *GmailService) List(ctx context.Context, query string) ([]string, error) {
	resp, err := g.svc.Users.Messages.List(gmailUser).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// Get fetches subject metadata and the preview snippet for one message.
func (g *GmailService) Get(ctx context.Context, id string) (Message, error) {
	msg, err := g.svc.Users.Messages.Get(gmailUser, id).
		Format("metadata").
		MetadataHeaders("Subject").
		Context(ctx).
		Do()
	if err != nil {
		return Message{}, err
	}
	out := Message{ID: id, Snippet: msg.Snippet}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			out.Headers = append(out.Headers, Header{Name: h.Name, Value: h.Value})
		}
	}
	return out, nil
}
