// Package analyze extracts a requirements list from a pair of uploaded
// PDF documents via the generative service's file store.
package analyze

import (
	"context"
	"fmt"
	"os"

	"github.com/rfpdesk/rfpdesk/internal/llm"
	"github.com/rfpdesk/rfpdesk/internal/session"
)

const extractionPrompt = `I've uploaded an RFP document and a company profile. Please extract all the requirements from the RFP and list them in a numbered format. Focus on technical, business, and compliance requirements.

Please provide a clear, numbered list of all requirements found in the RFP. Don't include anything else in your response other than the numbered list of requirements.`

// Analyzer uploads the two documents and asks the extraction model for a
// line-delimited requirements list.
type Analyzer struct {
	client    llm.Client
	model     string
	maxTokens int
	tempDir   string
}

// Option customizes Analyzer construction.
type Option func(*Analyzer)

// WithTempDir overrides where the intermediate PDF files are written.
func WithTempDir(dir string) Option {
	return func(a *Analyzer) {
		a.tempDir = dir
	}
}

// New creates an Analyzer bound to a provider client and model.
func New(client llm.Client, model string, maxTokens int, opts ...Option) *Analyzer {
	a := &Analyzer{client: client, model: model, maxTokens: maxTokens}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Extract uploads both documents and returns the trimmed, non-empty
// response lines as requirements. Every line is kept whether or not it
// is numbered. The temp files are removed on every exit path; a failed
// call leaves nothing behind and the caller's prior state untouched.
func (a *Analyzer) Extract(ctx context.Context, rfp, profile []byte) ([]string, error) {
	rfpPath, err := a.writeTemp("rfp-*.pdf", rfp)
	if err != nil {
		return nil, fmt.Errorf("analyze: stage rfp document: %w", err)
	}
	defer os.Remove(rfpPath)

	profilePath, err := a.writeTemp("profile-*.pdf", profile)
	if err != nil {
		return nil, fmt.Errorf("analyze: stage company profile: %w", err)
	}
	defer os.Remove(profilePath)

	rfpID, err := a.uploadFromDisk(ctx, rfpPath, "rfp.pdf")
	if err != nil {
		return nil, fmt.Errorf("analyze: upload rfp: %w", err)
	}
	profileID, err := a.uploadFromDisk(ctx, profilePath, "profile.pdf")
	if err != nil {
		return nil, fmt.Errorf("analyze: upload profile: %w", err)
	}

	raw, err := a.client.Complete(ctx, llm.Request{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []llm.Message{{
			Role:    "user",
			Content: extractionPrompt,
			Documents: []llm.Document{
				{FileID: rfpID},
				{FileID: profileID},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: extraction request: %w", err)
	}
	return session.SplitLines(raw), nil
}

func (a *Analyzer) writeTemp(pattern string, payload []byte) (string, error) {
	tmp, err := os.CreateTemp(a.tempDir, pattern)
	if err != nil {
		return "", err
	}
	path := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(path)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (a *Analyzer) uploadFromDisk(ctx context.Context, path, name string) (string, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return a.client.UploadFile(ctx, name, payload)
}
