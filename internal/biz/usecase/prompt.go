package usecase

import (
	"fmt"
	"strings"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
)

// PromptBuilderUsecase composes generation prompts. Pure string assembly:
// the same inputs always produce the same prompt.
type PromptBuilderUsecase struct {
	persona      string
	senderStyles map[string]string
	historyLimit int
}

// NewPromptBuilderUsecase creates a new prompt builder.
// senderStyles maps sender labels to per-sender style addenda.
func NewPromptBuilderUsecase(persona string, senderStyles map[string]string, historyLimit int) *PromptBuilderUsecase {
	if historyLimit <= 0 {
		historyLimit = 6
	}
	return &PromptBuilderUsecase{
		persona:      persona,
		senderStyles: senderStyles,
		historyLimit: historyLimit,
	}
}

// Build composes the prompt for one inbound message. Sections, joined with
// a blank line: persona (or the chat's style override), the sender's style
// addendum if one is configured, a context line, the prior history with the
// most recent entry last, and the new message.
func (uc *PromptBuilderUsecase) Build(styleOverride string, history []domain.Message, senderLabel, newText string, isImage bool) string {
	var parts []string

	if styleOverride != "" {
		parts = append(parts, styleOverride)
	} else {
		parts = append(parts, uc.persona)
	}

	if addendum, ok := uc.senderStyles[senderLabel]; ok && addendum != "" {
		parts = append(parts, fmt.Sprintf("When replying to %s: %s", senderLabel, addendum))
	}

	parts = append(parts, fmt.Sprintf("Conversation with user %s", senderLabel))

	if text := uc.formatHistory(history); text != "" {
		parts = append(parts, text)
	}

	kind := "Message"
	if isImage {
		kind = "Image"
	}
	parts = append(parts, fmt.Sprintf("%s from user %s:\n%s", kind, senderLabel, newText))

	return strings.Join(parts, "\n\n")
}

func (uc *PromptBuilderUsecase) formatHistory(history []domain.Message) string {
	if len(history) > uc.historyLimit {
		history = history[len(history)-uc.historyLimit:]
	}
	var lines []string
	for _, m := range history {
		if m.IsBot {
			lines = append(lines, fmt.Sprintf("You wrote:\n%s", m.Text))
		} else {
			lines = append(lines, fmt.Sprintf("%s wrote:\n%s", m.SenderLabel(), m.Text))
		}
	}
	return strings.Join(lines, "\n")
}
