package gmailauth

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func testOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.example.com/auth",
			TokenURL: "https://accounts.example.com/token",
		},
	}
}

func writeToken(t *testing.T, path string, tok tokenFile) {
	t.Helper()
	data, err := json.Marshal(tok)
	if err != nil {
		t.Fatalf("marshal token: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
}

func TestParseAuthCode(t *testing.T) {
	code, err := ParseAuthCode("https://x/?state=a&code=ABC123&scope=y")
	if err != nil {
		t.Fatalf("ParseAuthCode: %v", err)
	}
	if code != "ABC123" {
		t.Fatalf("code: %q", code)
	}
}

func TestParseAuthCodeMissing(t *testing.T) {
	for _, raw := range []string{
		"https://x/?state=a&scope=y",
		"https://x/",
		"",
		"   ",
	} {
		if _, err := ParseAuthCode(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLoadValidTokenSkipsRefreshAndConsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	writeToken(t, path, tokenFile{
		AccessToken:  "live-token",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
		Scopes:       []string{Scope},
	})
	refreshCalls := 0
	store := NewStore(path, testOAuthConfig(), WithRefreshFunc(func(_ context.Context, _ *oauth2.Token) (*oauth2.Token, error) {
		refreshCalls++
		return nil, errors.New("must not be called")
	}))

	cred, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if refreshCalls != 0 {
		t.Fatalf("valid token must not trigger a refresh")
	}
	if cred.Token.AccessToken != "live-token" {
		t.Fatalf("token: %+v", cred.Token)
	}
}

func TestLoadExpiredTokenRefreshesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	writeToken(t, path, tokenFile{
		AccessToken:  "stale",
		RefreshToken: "refresh-me",
		Expiry:       time.Now().Add(-time.Hour),
		Scopes:       []string{Scope},
	})
	store := NewStore(path, testOAuthConfig(), WithRefreshFunc(func(_ context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
		if tok.RefreshToken != "refresh-me" {
			t.Fatalf("refresh token passed wrong: %q", tok.RefreshToken)
		}
		return &oauth2.Token{
			AccessToken: "fresh",
			Expiry:      time.Now().Add(time.Hour),
		}, nil
	}))

	cred, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cred.Token.AccessToken != "fresh" {
		t.Fatalf("refreshed token not returned: %+v", cred.Token)
	}
	// Refresh token survives when the exchange response omits it.
	if cred.Token.RefreshToken != "refresh-me" {
		t.Fatalf("refresh token dropped: %+v", cred.Token)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read persisted token: %v", err)
	}
	var persisted tokenFile
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("parse persisted token: %v", err)
	}
	if persisted.AccessToken != "fresh" || persisted.RefreshToken != "refresh-me" {
		t.Fatalf("persisted token wrong: %+v", persisted)
	}
}

func TestLoadMissingFileRequiresConsent(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "none.json"), testOAuthConfig())
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
}

func TestLoadExpiredWithoutRefreshTokenRequiresConsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	writeToken(t, path, tokenFile{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Minute),
	})
	store := NewStore(path, testOAuthConfig())
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
}

func TestFlowHappyPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewStore(path, testOAuthConfig())
	flow := NewFlow(testOAuthConfig(), store, WithExchangeFunc(func(_ context.Context, code string) (*oauth2.Token, error) {
		if code != "GOODCODE" {
			t.Fatalf("exchange got code %q", code)
		}
		return &oauth2.Token{AccessToken: "granted", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)}, nil
	}))

	authURL := flow.Begin()
	if flow.Step() != StepAwaitingCode {
		t.Fatalf("step after Begin: %v", flow.Step())
	}
	for _, fragment := range []string{"access_type=offline", "prompt=consent", "include_granted_scopes=true"} {
		if !strings.Contains(authURL, fragment) {
			t.Fatalf("auth URL missing %q: %s", fragment, authURL)
		}
	}

	cred, err := flow.SubmitRedirect(context.Background(), "https://localhost/?state=state-token&code=GOODCODE&scope=x")
	if err != nil {
		t.Fatalf("SubmitRedirect: %v", err)
	}
	if flow.Step() != StepComplete {
		t.Fatalf("step after exchange: %v", flow.Step())
	}
	if cred.Token.AccessToken != "granted" {
		t.Fatalf("credential: %+v", cred.Token)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("token not persisted: %v", err)
	}
}

func TestFlowBadRedirectDoesNotAdvance(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "token.json"), testOAuthConfig())
	flow := NewFlow(testOAuthConfig(), store)
	flow.Begin()

	if _, err := flow.SubmitRedirect(context.Background(), "https://localhost/?state=only"); err == nil {
		t.Fatalf("expected missing-code error")
	}
	if flow.Step() != StepAwaitingCode {
		t.Fatalf("bad input must leave the step unchanged, got %v", flow.Step())
	}
}

func TestFlowFailedExchangeDoesNotAdvance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	store := NewStore(path, testOAuthConfig())
	flow := NewFlow(testOAuthConfig(), store, WithExchangeFunc(func(_ context.Context, _ string) (*oauth2.Token, error) {
		return nil, errors.New("invalid_grant")
	}))
	flow.Begin()

	if _, err := flow.SubmitRedirect(context.Background(), "https://localhost/?code=EXPIRED"); err == nil {
		t.Fatalf("expected exchange error")
	}
	if flow.Step() != StepAwaitingCode {
		t.Fatalf("failed exchange must leave the step unchanged, got %v", flow.Step())
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no token should be persisted on failure")
	}
}

func TestFlowSubmitBeforeBegin(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "token.json"), testOAuthConfig())
	flow := NewFlow(testOAuthConfig(), store)
	if _, err := flow.SubmitRedirect(context.Background(), "https://x/?code=Y"); err == nil {
		t.Fatalf("expected step error before Begin")
	}
}
