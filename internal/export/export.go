// Package export turns the finished proposal into downloadable artifacts.
package export

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the download name for the exported proposal.
const FileName = "proposal.txt"

const dataURIPrefix = "data:file/txt;base64,"

// DataURI encodes the proposal text as a base64 data URI, the same
// shape a browser download link would embed.
func DataURI(text string) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString([]byte(text))
}

// DecodeDataURI reverses DataURI, mainly so the round trip is checkable.
func DecodeDataURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return "", fmt.Errorf("export: not a proposal data URI")
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
	if err != nil {
		return "", fmt.Errorf("export: decode data URI: %w", err)
	}
	return string(decoded), nil
}

// Write stores the proposal as proposal.txt in dir and returns the path.
func Write(dir, text string) (string, error) {
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return path, nil
}
