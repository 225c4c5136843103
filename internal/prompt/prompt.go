// Package prompt renders chat history into the turn-delimited template the
// model was tuned on, and cleans raw model output back into displayable
// text.
package prompt

import (
	"strings"

	"chatd/pkg/types"
)

const (
	turnStart = "<start_of_turn>"
	turnEnd   = "<end_of_turn>\n"

	userLiteral  = "user"
	modelLiteral = "model"
)

// DefaultMaxChars is the prompt ceiling applied when no limit is configured.
const DefaultMaxChars = 8000

// Format renders history into the turn template: every message wrapped in
// start/end markers with its role literal, then an unclosed model turn so
// generation continues as the assistant.
func Format(msgs []types.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(turnStart)
		b.WriteString(roleLiteral(m.Role))
		b.WriteByte('\n')
		b.WriteString(m.Content)
		b.WriteString(turnEnd)
	}
	b.WriteString(turnStart)
	b.WriteString(modelLiteral)
	b.WriteByte('\n')
	return b.String()
}

func roleLiteral(r types.Role) string {
	if r == types.RoleAssistant {
		return modelLiteral
	}
	return userLiteral
}

// Fit formats msgs, dropping the oldest messages until the rendered prompt
// is within maxChars. Each pass keeps the most recent ceil(n*2/3) messages,
// always at least one fewer, stopping when the prompt fits or a single
// message remains. That last prompt may still exceed maxChars when one
// message alone is oversized; the model's own input handling deals with it.
func Fit(msgs []types.Message, maxChars int) (string, []types.Message) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	p := Format(msgs)
	for len(p) > maxChars && len(msgs) > 1 {
		keep := (len(msgs)*2 + 2) / 3
		if keep >= len(msgs) {
			keep = len(msgs) - 1
		}
		msgs = msgs[len(msgs)-keep:]
		p = Format(msgs)
	}
	return p, msgs
}
