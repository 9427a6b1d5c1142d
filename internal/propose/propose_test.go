package propose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rfpdesk/rfpdesk/internal/llm"
)

type fakeClient struct {
	req      llm.Request
	response string
	err      error
	calls    int
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls++
	f.req = req
	return f.response, f.err
}

func (f *fakeClient) UploadFile(_ context.Context, _ string, _ []byte) (string, error) {
	return "", errors.New("not used")
}

func TestGenerateEmbedsRequirements(t *testing.T) {
	client := &fakeClient{response: "PROPOSAL TEXT"}
	g := New(client, "propose-model", 4000)

	got, err := g.Generate(context.Background(), []string{"1. Fast", "2. Cheap"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "PROPOSAL TEXT" {
		t.Fatalf("proposal not returned verbatim: %q", got)
	}
	prompt := client.req.Messages[0].Content
	if !strings.Contains(prompt, "1. Fast\n2. Cheap") {
		t.Fatalf("requirements block missing: %q", prompt)
	}
	for _, section := range []string{
		"Executive Summary",
		"Company Introduction",
		"Understanding of Requirements",
		"Proposed Solution",
		"Implementation Plan",
		"Pricing (use placeholder pricing)",
		"Conclusion",
	} {
		if !strings.Contains(prompt, section) {
			t.Fatalf("outline section %q missing from prompt", section)
		}
	}
	if client.req.Model != "propose-model" {
		t.Fatalf("model: %q", client.req.Model)
	}
	if len(client.req.Messages[0].Documents) != 0 {
		t.Fatalf("proposal request must not attach documents")
	}
}

func TestGenerateRejectsEmptyRequirements(t *testing.T) {
	client := &fakeClient{}
	g := New(client, "m", 100)
	if _, err := g.Generate(context.Background(), nil); !errors.Is(err, ErrNoRequirements) {
		t.Fatalf("expected ErrNoRequirements, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("no request should be issued for empty requirements")
	}
}

func TestGenerateWrapsServiceError(t *testing.T) {
	client := &fakeClient{err: llm.ErrUnavailable}
	g := New(client, "m", 100)
	if _, err := g.Generate(context.Background(), []string{"x"}); !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("expected wrapped unavailable error, got %v", err)
	}
}
