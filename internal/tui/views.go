package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rfpdesk/rfpdesk/internal/reqdiff"
	"github.com/rfpdesk/rfpdesk/internal/session"
)

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

var stepNames = []string{"Upload", "Requirements", "Inbox", "Proposal"}

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateUpload:
		content = a.renderUpload()
	case stateRequirements:
		content = a.renderRequirements()
	case stateInbox:
		content = a.renderInbox()
	case stateProposal:
		content = a.renderProposal()
	}

	sections := []string{
		headerStyle.Render("⬡ RFPDESK"),
		a.renderStepLine(),
		panelStyle.Render(content),
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := a.statusMsg
	if a.busy {
		footer = a.spin.View() + " " + footer
	}
	sections = append(sections, footerStyle.Render(footer))
	return strings.Join(sections, "\n")
}

func (a *App) renderStepLine() string {
	parts := make([]string, 0, len(stepNames))
	for i, name := range stepNames {
		label := fmt.Sprintf("%d. %s", i+1, name)
		if appState(i) == a.state {
			parts = append(parts, selectedStyle.Render(label))
		} else {
			parts = append(parts, dimStyle.Render(label))
		}
	}
	return strings.Join(parts, dimStyle.Render("  →  "))
}

func (a *App) renderUpload() string {
	lines := []string{
		titleStyle.Render("Upload documents"),
		"",
		"RFP document:     " + a.rfpInput.View(),
		"Company profile:  " + a.profileInput.View(),
		hintStyle.Render("tab=switch field  enter=analyze  q=quit"),
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderRequirements() string {
	staged := a.session.StagedRequirements()
	lines := []string{titleStyle.Render(fmt.Sprintf("Requirements (%d)", len(staged)))}
	if a.session.StagedDirty() {
		lines = append(lines, dimStyle.Render("staged edits pending · c to commit, u to discard"))
	}
	lines = append(lines, "")
	committed := a.session.Requirements()
	for i, req := range staged {
		indicator := "  "
		if i == a.reqSelection && !a.editingReq {
			indicator = "> "
		}
		marker := ""
		if i < len(committed) && committed[i] != req {
			marker = " *"
		}
		line := indicator + req + marker
		if i == a.reqSelection && !a.editingReq {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if a.editingReq {
		lines = append(lines, "", titleStyle.Render(fmt.Sprintf("Editing requirement %d", a.reqSelection+1)), a.editor.View())
		lines = append(lines, hintStyle.Render("ctrl+s=stage edit  esc=cancel"))
		return strings.Join(lines, "\n")
	}
	if a.showDiff {
		lines = append(lines, "", titleStyle.Render("Staged changes"), a.renderDiff(committed, staged))
	}
	lines = append(lines, hintStyle.Render("enter=edit  c=commit  u=discard  d=diff  g=generate  i=inbox  p=proposal  q=quit"))
	return strings.Join(lines, "\n")
}

func (a *App) renderDiff(committed, staged []string) string {
	diff := reqdiff.Compare(committed, staged)
	if !reqdiff.Changed(diff) {
		return dimStyle.Render("no staged changes")
	}
	var b strings.Builder
	for _, line := range diff {
		switch line.Type {
		case reqdiff.LineAdded:
			b.WriteString(addedStyle.Render("+ " + line.Text))
		case reqdiff.LineRemoved:
			b.WriteString(removedStyle.Render("- " + line.Text))
		default:
			b.WriteString(dimStyle.Render("  " + line.Text))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (a *App) renderInbox() string {
	lines := []string{titleStyle.Render("Inbox updates")}
	switch {
	case a.session.AuthStep == session.AuthAwaitingCode:
		lines = append(lines,
			"",
			"Open this URL in your browser and approve read-only inbox access:",
			a.authURL,
			"",
			"Redirect URL: "+a.redirectInput.View(),
			hintStyle.Render("enter=submit  esc=back"),
		)
	case a.checker == nil:
		lines = append(lines,
			"",
			dimStyle.Render("Not connected."),
			hintStyle.Render("enter=connect  esc=back  q=quit"),
		)
	default:
		updates := a.session.InboxUpdates()
		lines = append(lines, dimStyle.Render(fmt.Sprintf("query: %s", a.config.Project.Inbox.Query)), "")
		if len(updates) == 0 {
			lines = append(lines, dimStyle.Render("No matching messages."))
		}
		for i, update := range updates {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, strings.ReplaceAll(update, "\n", "\n   ")))
		}
		lines = append(lines, hintStyle.Render("r=check again  esc=back  q=quit"))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderProposal() string {
	lines := []string{titleStyle.Render("Proposal")}
	if a.editingDoc {
		lines = append(lines, "", a.editor.View(), hintStyle.Render("edits apply immediately · esc=close editor"))
		return strings.Join(lines, "\n")
	}
	proposal := a.session.Proposal()
	if proposal == "" {
		lines = append(lines, "", dimStyle.Render("No proposal yet."))
	} else {
		lines = append(lines, "", proposal)
	}
	if a.exportURI != "" {
		lines = append(lines, "", dimStyle.Render(fmt.Sprintf("data URI ready (%d chars): %s…", len(a.exportURI), truncate(a.exportURI, 48))))
	}
	lines = append(lines, hintStyle.Render("e=edit  g=regenerate  x=export  i=inbox  esc=back  q=quit"))
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines := a.logbook.Tail(8)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s", fileName))
	body := hintStyle.Render(strings.Join(lines, "\n"))
	return panelStyle.Render(fmt.Sprintf("%s\n%s", head, body))
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
