// Package session owns the in-memory state for one interactive run.
// Handlers receive the Session by pointer; nothing here is global and
// nothing survives a process restart.
package session

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AuthStep tracks where the mailbox consent sub-flow currently stands.
type AuthStep int

const (
	AuthNotStarted AuthStep = iota
	AuthAwaitingCode
	AuthComplete
)

func (s AuthStep) String() string {
	switch s {
	case AuthAwaitingCode:
		return "awaiting-code"
	case AuthComplete:
		return "complete"
	default:
		return "not-started"
	}
}

// Session holds everything the workflow steps read and mutate.
//
// Requirements use a staged-commit policy: edits accumulate in a staging
// copy and replace the committed sequence only on CommitRequirements.
// The proposal is the opposite: SetProposal applies immediately. Both
// policies match the tool's observed behavior and are deliberately kept
// distinct.
type Session struct {
	ID string

	requirements []string
	staged       []string
	proposal     string
	inboxUpdates []string

	AuthStep AuthStep
}

// New creates an empty session with a fresh identifier.
func New() *Session {
	return &Session{ID: uuid.NewString()}
}

// Requirements returns a copy of the committed requirement lines.
func (s *Session) Requirements() []string {
	return cloneStrings(s.requirements)
}

// HasRequirements reports whether any committed requirements exist.
func (s *Session) HasRequirements() bool {
	return len(s.requirements) > 0
}

// SetRequirements replaces the committed sequence wholesale and resets
// the staging copy to match.
func (s *Session) SetRequirements(lines []string) {
	s.requirements = cloneStrings(lines)
	s.staged = cloneStrings(lines)
}

// StagedRequirement returns the staged text at index i.
func (s *Session) StagedRequirement(i int) (string, error) {
	if i < 0 || i >= len(s.staged) {
		return "", fmt.Errorf("session: requirement index %d out of range", i)
	}
	return s.staged[i], nil
}

// StagedRequirements returns a copy of the staging sequence.
func (s *Session) StagedRequirements() []string {
	return cloneStrings(s.staged)
}

// StageRequirement records an edit at index i without committing it.
func (s *Session) StageRequirement(i int, text string) error {
	if i < 0 || i >= len(s.staged) {
		return fmt.Errorf("session: requirement index %d out of range", i)
	}
	s.staged[i] = text
	return nil
}

// CommitRequirements replaces the committed sequence with the staged
// values. Identity is positional; the sequence length never changes here.
func (s *Session) CommitRequirements() {
	s.requirements = cloneStrings(s.staged)
}

// DiscardStaged drops uncommitted edits, restoring the committed values.
func (s *Session) DiscardStaged() {
	s.staged = cloneStrings(s.requirements)
}

// StagedDirty reports whether any staged edit differs from its committed
// counterpart.
func (s *Session) StagedDirty() bool {
	if len(s.staged) != len(s.requirements) {
		return true
	}
	for i := range s.staged {
		if s.staged[i] != s.requirements[i] {
			return true
		}
	}
	return false
}

// Proposal returns the current proposal text.
func (s *Session) Proposal() string {
	return s.proposal
}

// SetProposal overwrites the proposal. Edits apply live, with no staging.
func (s *Session) SetProposal(text string) {
	s.proposal = text
}

// InboxUpdates returns a copy of the last query's summaries.
func (s *Session) InboxUpdates() []string {
	return cloneStrings(s.inboxUpdates)
}

// SetInboxUpdates replaces the stored summaries entirely, including with
// an empty list when a query succeeds with zero matches.
func (s *Session) SetInboxUpdates(updates []string) {
	s.inboxUpdates = cloneStrings(updates)
}

// SplitLines breaks a raw model response into requirement lines: each
// line is whitespace-trimmed, blanks are dropped, order is preserved.
// Numbering is not enforced; an unnumbered line is still a requirement.
func SplitLines(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	dup := make([]string, len(values))
	copy(dup, values)
	return dup
}
