// Package gmailauth manages the persisted OAuth credential for the
// mailbox and the manual consent flow used to obtain one.
package gmailauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

// Scope is the only mailbox permission this tool ever requests.
const Scope = gmail.GmailReadonlyScope

// ErrConsentRequired means no usable token exists on disk and the caller
// must walk the interactive Flow.
var ErrConsentRequired = errors.New("gmailauth: interactive consent required")

// Credential is a usable mailbox credential: a token whose expiry is in
// the future, or one that was just refreshed.
type Credential struct {
	Token  *oauth2.Token
	Scopes []string
}

// tokenFile is the on-disk layout of token.json.
type tokenFile struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// LoadClientSecret reads the service-provided OAuth client secret file.
func LoadClientSecret(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gmailauth: read client secret %s: %w", path, err)
	}
	cfg, err := google.ConfigFromJSON(data, Scope)
	if err != nil {
		return nil, fmt.Errorf("gmailauth: parse client secret: %w", err)
	}
	return cfg, nil
}

// RefreshFunc exchanges an expired token for a fresh one.
type RefreshFunc func(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)

// Store persists the credential and reloads it across runs.
type Store struct {
	path    string
	cfg     *oauth2.Config
	refresh RefreshFunc
	now     func() time.Time
}

// StoreOption customizes Store construction for tests.
type StoreOption func(*Store)

// WithRefreshFunc overrides the refresh exchange.
func WithRefreshFunc(fn RefreshFunc) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.refresh = fn
		}
	}
}

// WithClock overrides the expiry clock.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store backed by the token file at path.
func NewStore(path string, cfg *oauth2.Config, opts ...StoreOption) *Store {
	s := &Store{path: path, cfg: cfg, now: time.Now}
	s.refresh = s.defaultRefresh
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the token file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns a usable credential. A token whose expiry is in the
// future is used as-is, with no refresh and no consent flow. An expired
// token with a refresh token is refreshed and persisted. Anything else
// reports ErrConsentRequired.
func (s *Store) Load(ctx context.Context) (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrConsentRequired
		}
		return nil, fmt.Errorf("gmailauth: read token file: %w", err)
	}
	var stored tokenFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("gmailauth: parse token file: %w", err)
	}
	tok := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}
	if tok.AccessToken != "" && tok.Expiry.After(s.now()) {
		return &Credential{Token: tok, Scopes: stored.Scopes}, nil
	}
	if tok.RefreshToken == "" {
		return nil, ErrConsentRequired
	}
	refreshed, err := s.refresh(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("gmailauth: refresh token: %w", err)
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tok.RefreshToken
	}
	if err := s.Save(refreshed, stored.Scopes); err != nil {
		return nil, err
	}
	return &Credential{Token: refreshed, Scopes: stored.Scopes}, nil
}

// Save persists the token to disk.
func (s *Store) Save(tok *oauth2.Token, scopes []string) error {
	if len(scopes) == 0 {
		scopes = []string{Scope}
	}
	stored := tokenFile{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("gmailauth: encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("gmailauth: ensure token dir: %w", err)
	}
	// The token grants inbox access; keep it out of other users' reach.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("gmailauth: write token file: %w", err)
	}
	return nil
}

// TokenSource exposes an auto-refreshing source for the Gmail client.
func (s *Store) TokenSource(ctx context.Context, cred *Credential) oauth2.TokenSource {
	return s.cfg.TokenSource(ctx, cred.Token)
}

func (s *Store) defaultRefresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	return s.cfg.TokenSource(ctx, tok).Token()
}
