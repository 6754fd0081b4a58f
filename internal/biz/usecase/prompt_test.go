package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
)

func TestBuildIsDeterministic(t *testing.T) {
	uc := NewPromptBuilderUsecase("Be helpful.", nil, 6)
	history := []domain.Message{
		messageAt(1, "alice", "hello", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)),
	}

	a := uc.Build("", history, "alice", "how are you", false)
	b := uc.Build("", history, "alice", "how are you", false)
	if a != b {
		t.Error("same inputs must produce the same prompt")
	}
}

func TestBuildSectionOrder(t *testing.T) {
	uc := NewPromptBuilderUsecase("Be helpful.", map[string]string{"alice": "keep it short"}, 6)
	bot := domain.Message{IsBot: true, Text: "earlier reply"}
	history := []domain.Message{
		messageAt(1, "alice", "hello", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)),
		bot,
	}

	got := uc.Build("", history, "alice", "how are you", false)
	want := strings.Join([]string{
		"Be helpful.",
		"When replying to alice: keep it short",
		"Conversation with user alice",
		"alice wrote:\nhello\nYou wrote:\nearlier reply",
		"Message from user alice:\nhow are you",
	}, "\n\n")
	if got != want {
		t.Errorf("Build =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildStyleOverrideReplacesPersona(t *testing.T) {
	uc := NewPromptBuilderUsecase("Base persona.", nil, 6)

	got := uc.Build("Override persona.", nil, "bob", "hi", false)
	if !strings.HasPrefix(got, "Override persona.") {
		t.Errorf("prompt should start with the override, got %q", got)
	}
	if strings.Contains(got, "Base persona.") {
		t.Error("base persona should not appear when overridden")
	}
}

func TestBuildImageVariant(t *testing.T) {
	uc := NewPromptBuilderUsecase("Base persona.", nil, 6)

	got := uc.Build("", nil, "bob", "look at this", true)
	if !strings.Contains(got, "Image from user bob:\nlook at this") {
		t.Errorf("image prompt missing image section: %q", got)
	}
}

func TestBuildTruncatesHistoryToLimit(t *testing.T) {
	uc := NewPromptBuilderUsecase("Base persona.", nil, 2)
	var history []domain.Message
	for i := 0; i < 5; i++ {
		history = append(history, messageAt(int64(i+1), "alice", "msg"+string(rune('a'+i)), time.Date(2024, 3, 15, 12, i, 0, 0, time.UTC)))
	}

	got := uc.Build("", history, "alice", "hi", false)
	if strings.Contains(got, "msgc") {
		t.Error("history beyond the limit should be dropped")
	}
	if !strings.Contains(got, "msgd") || !strings.Contains(got, "msge") {
		t.Error("the most recent history entries should be kept")
	}
}
