package gmailauth

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Step is the consent sub-flow position. The flow only ever moves
// forward; bad input leaves it where it is so the user can retry.
type Step int

const (
	StepStart Step = iota
	StepAwaitingCode
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepAwaitingCode:
		return "awaiting-code"
	case StepComplete:
		return "complete"
	default:
		return "start"
	}
}

// ExchangeFunc trades an authorization code for a token.
type ExchangeFunc func(ctx context.Context, code string) (*oauth2.Token, error)

// Flow walks the manual consent dance: show an authorization URL, let
// the user approve in a browser, then accept the full redirect URL they
// were sent to and extract the code from it.
type Flow struct {
	cfg      *oauth2.Config
	store    *Store
	step     Step
	authURL  string
	exchange ExchangeFunc
}

// FlowOption customizes Flow construction for tests.
type FlowOption func(*Flow)

// WithExchangeFunc overrides the code exchange.
func WithExchangeFunc(fn ExchangeFunc) FlowOption {
	return func(f *Flow) {
		if fn != nil {
			f.exchange = fn
		}
	}
}

// NewFlow creates a consent flow that persists through the given store.
func NewFlow(cfg *oauth2.Config, store *Store, opts ...FlowOption) *Flow {
	f := &Flow{cfg: cfg, store: store}
	f.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		return cfg.Exchange(ctx, code)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Step reports the current sub-flow position.
func (f *Flow) Step() Step {
	return f.step
}

// AuthURL returns the authorization URL generated by Begin.
func (f *Flow) AuthURL() string {
	return f.authURL
}

// Begin generates the authorization URL (offline access, previously
// granted scopes included, forced consent) and advances to AwaitingCode.
func (f *Flow) Begin() string {
	f.authURL = f.cfg.AuthCodeURL("state-token",
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	f.step = StepAwaitingCode
	return f.authURL
}

// SubmitRedirect accepts the full redirect URL the user landed on after
// approving, extracts the authorization code, exchanges it, persists the
// token, and marks the flow complete. Any failure leaves the step
// unchanged so the user can paste again.
func (f *Flow) SubmitRedirect(ctx context.Context, redirectURL string) (*Credential, error) {
	if f.step != StepAwaitingCode {
		return nil, fmt.Errorf("gmailauth: flow is %s, expected %s", f.step, StepAwaitingCode)
	}
	code, err := ParseAuthCode(redirectURL)
	if err != nil {
		return nil, err
	}
	tok, err := f.exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("gmailauth: exchange code: %w", err)
	}
	if err := f.store.Save(tok, f.cfg.Scopes); err != nil {
		return nil, err
	}
	f.step = StepComplete
	return &Credential{Token: tok, Scopes: f.cfg.Scopes}, nil
}

// ParseAuthCode extracts the code query parameter from a pasted redirect
// URL. The URL must parse and carry a non-empty code.
func ParseAuthCode(redirectURL string) (string, error) {
	trimmed := strings.TrimSpace(redirectURL)
	if trimmed == "" {
		return "", fmt.Errorf("gmailauth: redirect URL is empty")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("gmailauth: parse redirect URL: %w", err)
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("gmailauth: redirect URL has no code parameter")
	}
	return code, nil
}
