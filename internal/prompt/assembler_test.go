package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/btvvardhan/chatbot-backend/internal/history"
)

func TestAssemble_EmptySectionsUsePlaceholders(t *testing.T) {
	got := Assemble(Input{
		System:  "Be helpful.",
		Message: "hello",
	})

	if !strings.Contains(got, "### System\nBe helpful.") {
		t.Errorf("missing system section:\n%s", got)
	}
	if !strings.Contains(got, "### Context\n"+NoContext) {
		t.Errorf("missing context placeholder:\n%s", got)
	}
	if !strings.Contains(got, "### Conversation\n"+NoHistory) {
		t.Errorf("missing history placeholder:\n%s", got)
	}
	if !strings.HasSuffix(got, "### User\nhello") {
		t.Errorf("prompt must end with the user message:\n%s", got)
	}
}

func TestAssemble_ContextSnippetsCarrySources(t *testing.T) {
	got := Assemble(Input{
		System: "sys",
		Context: []Snippet{
			{Source: "a.txt", Text: "alpha"},
			{Source: "b.txt", Text: "beta"},
		},
		Message: "q",
	})

	if !strings.Contains(got, "[a.txt]\nalpha") {
		t.Errorf("missing first snippet:\n%s", got)
	}
	if !strings.Contains(got, "[b.txt]\nbeta") {
		t.Errorf("missing second snippet:\n%s", got)
	}
	if strings.Contains(got, NoContext) {
		t.Errorf("placeholder must not appear with context present:\n%s", got)
	}
}

func TestAssemble_HistoryTruncatedToWindow(t *testing.T) {
	var turns []history.Turn
	for i := range 20 {
		turns = append(turns, history.Turn{
			Role: history.RoleUser,
			Text: fmt.Sprintf("message-%d", i),
		})
	}

	got := Assemble(Input{
		System:  "sys",
		History: turns,
		Message: "q",
		Window:  10,
	})

	if strings.Contains(got, "message-9") {
		t.Errorf("turn beyond the window leaked into the prompt:\n%s", got)
	}
	for i := 10; i < 20; i++ {
		if !strings.Contains(got, fmt.Sprintf("message-%d", i)) {
			t.Errorf("recent turn message-%d missing from prompt", i)
		}
	}
}

func TestAssemble_RoleLabels(t *testing.T) {
	got := Assemble(Input{
		System: "sys",
		History: []history.Turn{
			{Role: history.RoleUser, Text: "hi"},
			{Role: history.RoleBot, Text: "hello there"},
		},
		Message: "q",
	})

	if !strings.Contains(got, "User: hi\nBot: hello there") {
		t.Errorf("unexpected history rendering:\n%s", got)
	}
}

func TestAssemble_SectionOrder(t *testing.T) {
	got := Assemble(Input{System: "s", Message: "m"})

	sys := strings.Index(got, "### System")
	ctx := strings.Index(got, "### Context")
	conv := strings.Index(got, "### Conversation")
	user := strings.Index(got, "### User")
	if !(sys < ctx && ctx < conv && conv < user) {
		t.Errorf("sections out of order (%d, %d, %d, %d):\n%s", sys, ctx, conv, user, got)
	}
}
