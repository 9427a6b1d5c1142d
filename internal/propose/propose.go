// Package propose turns the edited requirements list into a full
// proposal document.
package propose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rfpdesk/rfpdesk/internal/llm"
)

// ErrNoRequirements is returned when generation is attempted with an
// empty requirements sequence. The UI disables the action, but the
// adapter guards it too.
var ErrNoRequirements = errors.New("propose: no requirements to generate from")

const outlinePrompt = `Please generate a professional proposal based on these RFP requirements:

%s

Create a complete proposal that addresses all the requirements. Include:
1. Executive Summary
2. Company Introduction
3. Understanding of Requirements
4. Proposed Solution
5. Implementation Plan
6. Pricing (use placeholder pricing)
7. Conclusion

Format it professionally.`

// Generator issues the seven-section proposal request.
type Generator struct {
	client    llm.Client
	model     string
	maxTokens int
}

// New creates a Generator bound to a provider client and model.
func New(client llm.Client, model string, maxTokens int) *Generator {
	return &Generator{client: client, model: model, maxTokens: maxTokens}
}

// Generate joins the requirements into the outline prompt and returns
// the response text verbatim.
func (g *Generator) Generate(ctx context.Context, requirements []string) (string, error) {
	if len(requirements) == 0 {
		return "", ErrNoRequirements
	}
	prompt := fmt.Sprintf(outlinePrompt, strings.Join(requirements, "\n"))
	text, err := g.client.Complete(ctx, llm.Request{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("propose: generation request: %w", err)
	}
	return text, nil
}
