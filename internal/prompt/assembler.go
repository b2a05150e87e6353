// Package prompt assembles the final prompt string sent to the generation
// model: system instructions, retrieved context, a bounded window of recent
// conversation turns, and the new user message, each in a delimited section.
package prompt

import (
	"fmt"
	"strings"

	"github.com/btvvardhan/chatbot-backend/internal/history"
)

// Placeholders substituted for empty sections so the model always sees every
// section header.
const (
	NoContext = "(no context)"
	NoHistory = "(none)"
)

// defaultWindow is the number of recent turns included when Input.Window is
// unset. Independent of the persisted history cap.
const defaultWindow = 10

// Snippet is one retrieved context piece with its source document.
type Snippet struct {
	Source string
	Text   string
}

// Input carries everything Assemble needs.
type Input struct {
	System  string
	Context []Snippet
	History []history.Turn
	Message string

	// Window bounds how many recent turns are included. Zero means the
	// default of 10.
	Window int
}

// Assemble produces the prompt string. History beyond the window is dropped
// from the front so the most recent turns survive.
func Assemble(in Input) string {
	window := in.Window
	if window <= 0 {
		window = defaultWindow
	}

	var sb strings.Builder

	sb.WriteString("### System\n")
	sb.WriteString(strings.TrimSpace(in.System))
	sb.WriteString("\n\n### Context\n")
	if len(in.Context) == 0 {
		sb.WriteString(NoContext)
	} else {
		for i, s := range in.Context {
			if i > 0 {
				sb.WriteString("\n\n")
			}
			fmt.Fprintf(&sb, "[%s]\n%s", s.Source, s.Text)
		}
	}

	sb.WriteString("\n\n### Conversation\n")
	turns := in.History
	if len(turns) > window {
		turns = turns[len(turns)-window:]
	}
	if len(turns) == 0 {
		sb.WriteString(NoHistory)
	} else {
		for i, t := range turns {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "%s: %s", roleLabel(t.Role), t.Text)
		}
	}

	sb.WriteString("\n\n### User\n")
	sb.WriteString(in.Message)

	return sb.String()
}

func roleLabel(r history.Role) string {
	if r == history.RoleBot {
		return "Bot"
	}
	return "User"
}
