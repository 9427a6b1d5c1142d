package tui

import (
	"context"
	"fmt"

	"github.com/rfpdesk/rfpdesk/internal/config"
	"github.com/rfpdesk/rfpdesk/internal/gmailauth"
	"github.com/rfpdesk/rfpdesk/internal/inbox"
)

// gmailConnector is the production InboxConnector. It is lazy about the
// OAuth client secret: the file is only read when the user first reaches
// the inbox step, so a missing credentials.json does not block the rest
// of the workflow.
type gmailConnector struct {
	cfg   *config.Config
	store *gmailauth.Store
	flow  *gmailauth.Flow
}

func newGmailConnector(cfg *config.Config) *gmailConnector {
	return &gmailConnector{cfg: cfg}
}

func (c *gmailConnector) ensureAuth() error {
	if c.store != nil {
		return nil
	}
	oauthCfg, err := gmailauth.LoadClientSecret(c.cfg.ClientSecretPath())
	if err != nil {
		return err
	}
	c.store = gmailauth.NewStore(c.cfg.TokenPath(), oauthCfg)
	c.flow = gmailauth.NewFlow(oauthCfg, c.store)
	return nil
}

func (c *gmailConnector) Connect(ctx context.Context) (InboxChecker, error) {
	if err := c.ensureAuth(); err != nil {
		return nil, err
	}
	cred, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return c.buildChecker(ctx, cred)
}

func (c *gmailConnector) BeginConsent() (string, error) {
	if err := c.ensureAuth(); err != nil {
		return "", err
	}
	return c.flow.Begin(), nil
}

func (c *gmailConnector) CompleteConsent(ctx context.Context, redirectURL string) (InboxChecker, error) {
	if c.flow == nil {
		return nil, fmt.Errorf("tui: consent flow not started")
	}
	cred, err := c.flow.SubmitRedirect(ctx, redirectURL)
	if err != nil {
		return nil, err
	}
	return c.buildChecker(ctx, cred)
}

func (c *gmailConnector) buildChecker(ctx context.Context, cred *gmailauth.Credential) (InboxChecker, error) {
	svc, err := inbox.NewGmailService(ctx, c.store.TokenSource(ctx, cred))
	if err != nil {
		return nil, err
	}
	return inbox.NewChecker(svc, c.cfg.Project.Inbox.Query, c.cfg.Project.Inbox.MaxResults), nil
}
