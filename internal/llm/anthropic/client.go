package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rfpdesk/rfpdesk/internal/llm"
)

const defaultBaseURL = "https://api.anthropic.com"
const defaultVersion = "2023-06-01"

// filesBeta is the feature flag required while the files API is in beta.
// Requests that attach documents must carry it; plain text requests must not.
const filesBeta = "files-api-2025-04-14"

// Client implements the Anthropic Messages and Files APIs (minimal
// support: one-shot completions plus file upload).
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Option customizes client construction.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		url = strings.TrimRight(strings.TrimSpace(url), "/")
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient builds a client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete issues one generation request and returns the concatenated
// text blocks of the response.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	messages, hasDocuments := toAnthropicMessages(req.Messages)
	// The files beta rides on the anthropic-beta header only; the
	// Messages body schema has no beta field.
	payload := map[string]any{
		"model":      req.Model,
		"max_tokens": req.MaxTokens,
		"messages":   messages,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(httpReq, hasDocuments)
	httpReq.Header.Set("content-type", "application/json")

	respBody, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	var response messagesResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", err
	}
	content := extractText(response.Content)
	if content == "" {
		return "", errors.New("anthropic empty response")
	}
	return content, nil
}

// UploadFile stores a document in the files API and returns its id.
func (c *Client) UploadFile(ctx context.Context, filename string, payload []byte) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(payload); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", &buf)
	if err != nil {
		return "", err
	}
	c.setHeaders(httpReq, true)
	httpReq.Header.Set("content-type", writer.FormDataContentType())

	respBody, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	var uploaded fileResponse
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return "", err
	}
	if uploaded.ID == "" {
		return "", errors.New("anthropic upload returned no file id")
	}
	return uploaded.ID, nil
}

func (c *Client) setHeaders(req *http.Request, beta bool) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", defaultVersion)
	if beta {
		req.Header.Set("anthropic-beta", filesBeta)
	}
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, llm.ErrUnauthorized
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, llm.ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return nil, llm.ErrUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errorBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("anthropic error: %s - %s", resp.Status, string(errorBody))
	}
	return io.ReadAll(resp.Body)
}

type contentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *documentSource `json:"source,omitempty"`
}

type documentSource struct {
	Type   string `json:"type"`
	FileID string `json:"file_id"`
}

type apiMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
}

type fileResponse struct {
	ID string `json:"id"`
}

func toAnthropicMessages(messages []llm.Message) ([]apiMessage, bool) {
	out := make([]apiMessage, 0, len(messages))
	hasDocuments := false
	for _, msg := range messages {
		blocks := []contentBlock{}
		if msg.Content != "" {
			blocks = append(blocks, contentBlock{Type: "text", Text: msg.Content})
		}
		for _, doc := range msg.Documents {
			hasDocuments = true
			blocks = append(blocks, contentBlock{
				Type:   "document",
				Source: &documentSource{Type: "file", FileID: doc.FileID},
			})
		}
		out = append(out, apiMessage{
			Role:    strings.ToLower(strings.TrimSpace(msg.Role)),
			Content: blocks,
		})
	}
	return out, hasDocuments
}

func extractText(blocks []contentBlock) string {
	var buf bytes.Buffer
	for _, block := range blocks {
		if block.Type == "text" {
			buf.WriteString(block.Text)
		}
	}
	return buf.String()
}
