package analyze

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/rfpdesk/rfpdesk/internal/llm"
)

type fakeClient struct {
	uploads    []string
	uploadErr  error
	completeIn llm.Request
	response   string
	respErr    error
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.completeIn = req
	if f.respErr != nil {
		return "", f.respErr
	}
	return f.response, nil
}

func (f *fakeClient) UploadFile(_ context.Context, filename string, _ []byte) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, filename)
	return "file_" + filename, nil
}

func TestExtractUploadsBothAndSplitsLines(t *testing.T) {
	tempDir := t.TempDir()
	client := &fakeClient{response: "1. Foo\n\n2. Bar  \n"}
	a := New(client, "extract-model", 4000, WithTempDir(tempDir))

	got, err := a.Extract(context.Background(), []byte("%PDF rfp"), []byte("%PDF profile"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := []string{"1. Foo", "2. Bar"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("requirements: %v want %v", got, want)
	}
	if !reflect.DeepEqual(client.uploads, []string{"rfp.pdf", "profile.pdf"}) {
		t.Fatalf("uploads: %v", client.uploads)
	}
	req := client.completeIn
	if req.Model != "extract-model" || req.MaxTokens != 4000 {
		t.Fatalf("request shape: %+v", req)
	}
	if len(req.Messages) != 1 || len(req.Messages[0].Documents) != 2 {
		t.Fatalf("expected one message with two documents: %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[0].Content, "numbered list") {
		t.Fatalf("extraction prompt missing: %q", req.Messages[0].Content)
	}
	assertNoTempFiles(t, tempDir)
}

func TestExtractCleansTempFilesOnFailure(t *testing.T) {
	tempDir := t.TempDir()
	client := &fakeClient{uploadErr: errors.New("boom")}
	a := New(client, "m", 100, WithTempDir(tempDir))

	if _, err := a.Extract(context.Background(), []byte("a"), []byte("b")); err == nil {
		t.Fatalf("expected upload error")
	}
	assertNoTempFiles(t, tempDir)
}

func TestExtractCleansTempFilesOnGenerationFailure(t *testing.T) {
	tempDir := t.TempDir()
	client := &fakeClient{respErr: llm.ErrRateLimited}
	a := New(client, "m", 100, WithTempDir(tempDir))

	_, err := a.Extract(context.Background(), []byte("a"), []byte("b"))
	if !errors.Is(err, llm.ErrRateLimited) {
		t.Fatalf("expected wrapped rate limit error, got %v", err)
	}
	assertNoTempFiles(t, tempDir)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("temp files left behind: %v", names)
	}
}
