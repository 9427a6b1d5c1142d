// Package llm defines the minimal contract the workflow adapters need
// from a generative text service: one completion call and one file
// upload that yields an opaque handle usable as attached context.
package llm

import "context"

// Document references a previously uploaded file by its service handle.
type Document struct {
	FileID string
}

// Message is one entry in the ordered conversation sent to the service.
// Documents ride alongside the text content as attached context.
type Message struct {
	Role      string
	Content   string
	Documents []Document
}

// Request is a single generation call.
type Request struct {
	Model     string
	MaxTokens int
	Messages  []Message
}

// Client is implemented by provider adapters.
type Client interface {
	// Complete issues one generation request and returns the raw
	// concatenated text of the response.
	Complete(ctx context.Context, req Request) (string, error)

	// UploadFile stores a document in the provider's file store and
	// returns the opaque handle to attach in later requests.
	UploadFile(ctx context.Context, filename string, payload []byte) (string, error)
}
