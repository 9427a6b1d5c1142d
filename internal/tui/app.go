// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for rfpdesk.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rfpdesk/rfpdesk/internal/analyze"
	"github.com/rfpdesk/rfpdesk/internal/config"
	"github.com/rfpdesk/rfpdesk/internal/export"
	"github.com/rfpdesk/rfpdesk/internal/gmailauth"
	"github.com/rfpdesk/rfpdesk/internal/llm"
	"github.com/rfpdesk/rfpdesk/internal/llm/anthropic"
	"github.com/rfpdesk/rfpdesk/internal/logbook"
	"github.com/rfpdesk/rfpdesk/internal/propose"
	"github.com/rfpdesk/rfpdesk/internal/session"
)

// appState represents which "screen" we're on
type appState int

const (
	stateUpload       appState = iota // Collect the two PDF paths and run extraction
	stateRequirements                 // Review and edit the extracted requirements
	stateInbox                        // Mailbox connect / consent / check
	stateProposal                     // Generate, edit, and export the proposal
)

// Extractor produces the requirements list from the two uploaded PDFs.
type Extractor interface {
	Extract(ctx context.Context, rfp, profile []byte) ([]string, error)
}

// Generator produces the proposal from the committed requirements.
type Generator interface {
	Generate(ctx context.Context, requirements []string) (string, error)
}

// InboxChecker runs one mailbox query and returns rendered summaries.
type InboxChecker interface {
	Check(ctx context.Context) ([]string, error)
}

// InboxConnector wires the mailbox: Connect returns a ready checker or
// gmailauth.ErrConsentRequired, in which case the consent sub-flow runs
// through BeginConsent and CompleteConsent.
type InboxConnector interface {
	Connect(ctx context.Context) (InboxChecker, error)
	BeginConsent() (string, error)
	CompleteConsent(ctx context.Context, redirectURL string) (InboxChecker, error)
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithExtractor overrides the requirements extractor.
func WithExtractor(e Extractor) AppOption {
	return func(a *App) {
		if e != nil {
			a.extractor = e
		}
	}
}

// WithGenerator overrides the proposal generator.
func WithGenerator(g Generator) AppOption {
	return func(a *App) {
		if g != nil {
			a.generator = g
		}
	}
}

// WithInboxConnector overrides the mailbox connector.
func WithInboxConnector(c InboxConnector) AppOption {
	return func(a *App) {
		if c != nil {
			a.connector = c
		}
	}
}

// Result messages. Each in-flight tea.Cmd resolves to exactly one of
// these; Update clears the busy flag when it lands.

type extractResultMsg struct {
	requirements []string
	err          error
}

type proposalResultMsg struct {
	text string
	err  error
}

type inboxResultMsg struct {
	updates []string
	err     error
}

type connectResultMsg struct {
	checker InboxChecker
	err     error
}

type authResultMsg struct {
	checker InboxChecker
	err     error
}

type exportResultMsg struct {
	path string
	uri  string
	err  error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	logbook *logbook.Logbook
	session *session.Session

	extractor Extractor
	generator Generator
	connector InboxConnector
	checker   InboxChecker

	// UI components
	rfpInput      textinput.Model
	profileInput  textinput.Model
	redirectInput textinput.Model
	editor        textarea.Model
	spin          spinner.Model

	busy          bool // one in-flight command at a time
	editingReq    bool
	editingDoc    bool
	showDiff      bool
	reqSelection  int
	authURL       string
	exportURI     string
	statusMsg     string
	lastLogStatus string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance rooted at the given project directory.
func NewApp(projectDir, apiKey string, opts ...AppOption) (*App, error) {
	if err := config.InitDeskDir(projectDir); err != nil {
		return nil, err
	}
	cfg, err := config.New(projectDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.LogPath(),
		logbook.WithRotation(cfg.Project.Logging.MaxSizeMB, cfg.Project.Logging.MaxBackups))
	if err != nil {
		return nil, err
	}
	sess := session.New()
	lb.Info("Session %s opened", sess.ID)

	client := anthropic.NewClient(apiKey, anthropic.WithBaseURL(cfg.Project.Models.BaseURL))

	rfpInput := textinput.New()
	rfpInput.Placeholder = "path/to/rfp.pdf"
	rfpInput.Focus()
	profileInput := textinput.New()
	profileInput.Placeholder = "path/to/company-profile.pdf"
	redirectInput := textinput.New()
	redirectInput.Placeholder = "https://localhost/?code=..."

	editor := textarea.New()
	editor.SetHeight(8)

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	app := &App{
		state:         stateUpload,
		config:        cfg,
		logbook:       lb,
		session:       sess,
		extractor:     analyze.New(client, cfg.Project.Models.Extraction, cfg.Project.Models.MaxTokens),
		generator:     propose.New(client, cfg.Project.Models.Proposal, cfg.Project.Models.MaxTokens),
		connector:     newGmailConnector(cfg),
		rfpInput:      rfpInput,
		profileInput:  profileInput,
		redirectInput: redirectInput,
		editor:        editor,
		spin:          spin,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

func (a *App) setStatus(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	a.statusMsg = message
	if message == a.lastLogStatus {
		return
	}
	a.lastLogStatus = message
	a.logInfo(message)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.editor.SetWidth(max(40, msg.Width-8))
		return a, nil

	case spinner.TickMsg:
		if !a.busy {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case extractResultMsg:
		return a.handleExtractResult(msg)

	case proposalResultMsg:
		return a.handleProposalResult(msg)

	case inboxResultMsg:
		return a.handleInboxResult(msg)

	case connectResultMsg:
		return a.handleConnectResult(msg)

	case authResultMsg:
		return a.handleAuthResult(msg)

	case exportResultMsg:
		a.busy = false
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Export failed: %v", msg.err))
			a.logError("Export failed: %v", msg.err)
			return a, nil
		}
		a.exportURI = msg.uri
		a.setStatus(fmt.Sprintf("Exported %s · data URI ready (%d chars)", msg.path, len(msg.uri)))
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.busy {
			return a, nil
		}
		switch a.state {
		case stateUpload:
			return a.updateUpload(msg)
		case stateRequirements:
			return a.updateRequirements(msg)
		case stateInbox:
			return a.updateInbox(msg)
		case stateProposal:
			return a.updateProposal(msg)
		}
	}

	return a, nil
}

// --- Upload step ------------------------------------------------------

func (a *App) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "tab", "shift+tab":
		if a.rfpInput.Focused() {
			a.rfpInput.Blur()
			return a, a.profileInput.Focus()
		}
		a.profileInput.Blur()
		return a, a.rfpInput.Focus()
	case "enter":
		if a.rfpInput.Focused() && strings.TrimSpace(a.profileInput.Value()) == "" {
			a.rfpInput.Blur()
			return a, a.profileInput.Focus()
		}
		rfpPath := strings.TrimSpace(a.rfpInput.Value())
		profilePath := strings.TrimSpace(a.profileInput.Value())
		if rfpPath == "" || profilePath == "" {
			a.setStatus("Both the RFP and the company profile are required")
			return a, nil
		}
		if err := validateDocument(rfpPath); err != nil {
			a.setStatus(fmt.Sprintf("RFP document: %v", err))
			return a, nil
		}
		if err := validateDocument(profilePath); err != nil {
			a.setStatus(fmt.Sprintf("Company profile: %v", err))
			return a, nil
		}
		return a, a.startExtraction(rfpPath, profilePath)
	}
	var cmd tea.Cmd
	if a.rfpInput.Focused() {
		a.rfpInput, cmd = a.rfpInput.Update(msg)
	} else {
		a.profileInput, cmd = a.profileInput.Update(msg)
	}
	return a, cmd
}

func (a *App) startExtraction(rfpPath, profilePath string) tea.Cmd {
	a.busy = true
	a.setStatus("Analyzing documents…")
	extractor := a.extractor
	work := func() tea.Msg {
		rfp, err := os.ReadFile(rfpPath)
		if err != nil {
			return extractResultMsg{err: fmt.Errorf("read rfp document: %w", err)}
		}
		profile, err := os.ReadFile(profilePath)
		if err != nil {
			return extractResultMsg{err: fmt.Errorf("read company profile: %w", err)}
		}
		requirements, err := extractor.Extract(context.Background(), rfp, profile)
		return extractResultMsg{requirements: requirements, err: err}
	}
	return tea.Batch(work, a.spin.Tick)
}

func (a *App) handleExtractResult(msg extractResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		a.setStatus(fmt.Sprintf("Extraction failed: %s", describeErr(msg.err)))
		a.logError("Extraction failed: %v", msg.err)
		return a, nil
	}
	if len(msg.requirements) == 0 {
		a.setStatus("The model returned no requirements; try different documents")
		return a, nil
	}
	a.session.SetRequirements(msg.requirements)
	a.reqSelection = 0
	a.state = stateRequirements
	a.setStatus(fmt.Sprintf("Extracted %d requirement(s)", len(msg.requirements)))
	return a, nil
}

// --- Requirements step ------------------------------------------------

func (a *App) updateRequirements(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.editingReq {
		switch msg.String() {
		case "esc":
			a.editingReq = false
			a.editor.Blur()
			a.setStatus("Edit discarded")
			return a, nil
		case "ctrl+s":
			text := strings.TrimSpace(a.editor.Value())
			if text == "" {
				a.setStatus("A requirement cannot be empty")
				return a, nil
			}
			if err := a.session.StageRequirement(a.reqSelection, text); err != nil {
				a.setStatus(fmt.Sprintf("Stage failed: %v", err))
				return a, nil
			}
			a.editingReq = false
			a.editor.Blur()
			a.setStatus(fmt.Sprintf("Staged edit to requirement %d (uncommitted)", a.reqSelection+1))
			return a, nil
		}
		var cmd tea.Cmd
		a.editor, cmd = a.editor.Update(msg)
		return a, cmd
	}

	staged := a.session.StagedRequirements()
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		if a.reqSelection > 0 {
			a.reqSelection--
		}
	case "down", "j":
		if a.reqSelection < len(staged)-1 {
			a.reqSelection++
		}
	case "enter", "e":
		if len(staged) == 0 {
			return a, nil
		}
		a.editor.SetValue(staged[a.reqSelection])
		a.editingReq = true
		return a, a.editor.Focus()
	case "c":
		if !a.session.StagedDirty() {
			a.setStatus("Nothing staged to commit")
			return a, nil
		}
		a.session.CommitRequirements()
		a.showDiff = false
		a.setStatus("Committed staged requirement edits")
	case "u":
		a.session.DiscardStaged()
		a.showDiff = false
		a.setStatus("Discarded staged edits")
	case "d":
		a.showDiff = !a.showDiff
	case "g":
		if !a.session.HasRequirements() {
			a.setStatus("Commit at least one requirement before generating")
			return a, nil
		}
		return a, a.startGeneration()
	case "i":
		a.state = stateInbox
		return a, nil
	case "p":
		if a.session.Proposal() == "" {
			a.setStatus("No proposal yet; press g to generate one")
			return a, nil
		}
		a.state = stateProposal
		return a, nil
	case "esc":
		a.state = stateUpload
		return a, a.rfpInput.Focus()
	}
	return a, nil
}

func (a *App) startGeneration() tea.Cmd {
	a.busy = true
	a.setStatus("Generating proposal…")
	generator := a.generator
	requirements := a.session.Requirements()
	work := func() tea.Msg {
		text, err := generator.Generate(context.Background(), requirements)
		return proposalResultMsg{text: text, err: err}
	}
	return tea.Batch(work, a.spin.Tick)
}

func (a *App) handleProposalResult(msg proposalResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		a.setStatus(fmt.Sprintf("Generation failed: %s", describeErr(msg.err)))
		a.logError("Generation failed: %v", msg.err)
		return a, nil
	}
	a.session.SetProposal(msg.text)
	a.exportURI = ""
	a.state = stateProposal
	a.setStatus("Proposal ready")
	return a, nil
}

// --- Inbox step -------------------------------------------------------

func (a *App) updateInbox(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.session.AuthStep == session.AuthAwaitingCode {
		switch msg.String() {
		case "esc":
			a.redirectInput.Blur()
			a.state = stateRequirements
			return a, nil
		case "enter":
			return a, a.submitRedirect(a.redirectInput.Value())
		}
		var cmd tea.Cmd
		a.redirectInput, cmd = a.redirectInput.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc":
		a.state = stateRequirements
	case "enter", "r":
		if a.checker == nil {
			return a, a.startConnect()
		}
		return a, a.startInboxCheck()
	}
	return a, nil
}

func (a *App) startConnect() tea.Cmd {
	a.busy = true
	a.setStatus("Connecting to the mailbox…")
	connector := a.connector
	work := func() tea.Msg {
		checker, err := connector.Connect(context.Background())
		return connectResultMsg{checker: checker, err: err}
	}
	return tea.Batch(work, a.spin.Tick)
}

func (a *App) handleConnectResult(msg connectResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		if errors.Is(msg.err, gmailauth.ErrConsentRequired) {
			url, err := a.connector.BeginConsent()
			if err != nil {
				a.setStatus(fmt.Sprintf("Consent setup failed: %v", err))
				a.logError("Consent setup failed: %v", err)
				return a, nil
			}
			a.authURL = url
			a.session.AuthStep = session.AuthAwaitingCode
			a.redirectInput.SetValue("")
			a.setStatus("Approve access in your browser, then paste the redirect URL")
			return a, a.redirectInput.Focus()
		}
		a.setStatus(fmt.Sprintf("Mailbox connection failed: %v", msg.err))
		a.logError("Mailbox connection failed: %v", msg.err)
		return a, nil
	}
	a.checker = msg.checker
	a.session.AuthStep = session.AuthComplete
	a.setStatus("Mailbox connected")
	return a, a.startInboxCheck()
}

func (a *App) submitRedirect(redirectURL string) tea.Cmd {
	a.busy = true
	a.setStatus("Exchanging authorization code…")
	connector := a.connector
	work := func() tea.Msg {
		checker, err := connector.CompleteConsent(context.Background(), redirectURL)
		return authResultMsg{checker: checker, err: err}
	}
	return tea.Batch(work, a.spin.Tick)
}

func (a *App) handleAuthResult(msg authResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		// The consent step stays where it is so the user can paste again.
		a.setStatus(fmt.Sprintf("Authorization failed: %v", msg.err))
		a.logError("Authorization failed: %v", msg.err)
		return a, nil
	}
	a.checker = msg.checker
	a.session.AuthStep = session.AuthComplete
	a.redirectInput.Blur()
	a.setStatus("Mailbox authorized")
	return a, a.startInboxCheck()
}

func (a *App) startInboxCheck() tea.Cmd {
	a.busy = true
	a.setStatus("Checking the inbox…")
	checker := a.checker
	work := func() tea.Msg {
		updates, err := checker.Check(context.Background())
		return inboxResultMsg{updates: updates, err: err}
	}
	return tea.Batch(work, a.spin.Tick)
}

func (a *App) handleInboxResult(msg inboxResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		// A failed query leaves the previously stored summaries alone.
		a.setStatus(fmt.Sprintf("Inbox check failed: %v", msg.err))
		a.logError("Inbox check failed: %v", msg.err)
		return a, nil
	}
	a.session.SetInboxUpdates(msg.updates)
	if len(msg.updates) == 0 {
		a.setStatus("No matching messages found")
	} else {
		a.setStatus(fmt.Sprintf("Found %d matching message(s)", len(msg.updates)))
	}
	return a, nil
}

// --- Proposal step ----------------------------------------------------

func (a *App) updateProposal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.editingDoc {
		if msg.String() == "esc" {
			a.editingDoc = false
			a.editor.Blur()
			a.setStatus("Proposal editor closed")
			return a, nil
		}
		var cmd tea.Cmd
		a.editor, cmd = a.editor.Update(msg)
		// Proposal edits apply live; there is no commit step.
		a.session.SetProposal(a.editor.Value())
		a.exportURI = ""
		return a, cmd
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "e":
		a.editor.SetValue(a.session.Proposal())
		a.editingDoc = true
		return a, a.editor.Focus()
	case "g":
		if !a.session.HasRequirements() {
			a.setStatus("Commit at least one requirement before generating")
			return a, nil
		}
		return a, a.startGeneration()
	case "x":
		if a.session.Proposal() == "" {
			a.setStatus("No proposal to export yet; press g to generate one")
			return a, nil
		}
		return a, a.startExport()
	case "i":
		a.state = stateInbox
	case "esc":
		a.state = stateRequirements
	}
	return a, nil
}

func (a *App) startExport() tea.Cmd {
	a.busy = true
	a.setStatus("Exporting proposal…")
	text := a.session.Proposal()
	dir := a.config.ProjectDir
	work := func() tea.Msg {
		path, err := export.Write(dir, text)
		if err != nil {
			return exportResultMsg{err: err}
		}
		return exportResultMsg{path: path, uri: export.DataURI(text)}
	}
	return tea.Batch(work, a.spin.Tick)
}

func validateDocument(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%s is not a .pdf file", filepath.Base(path))
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

// describeErr rewords the provider sentinels for the status line; other
// errors pass through verbatim.
func describeErr(err error) string {
	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		return "the API key was rejected; check ANTHROPIC_API_KEY"
	case errors.Is(err, llm.ErrRateLimited):
		return "the service is rate limiting requests; try again shortly"
	case errors.Is(err, llm.ErrUnavailable):
		return "the service is temporarily unavailable"
	default:
		return err.Error()
	}
}

