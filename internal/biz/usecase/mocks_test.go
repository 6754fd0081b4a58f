package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// Mock implementations shared by the usecase tests

type mockSessionRepo struct {
	triggers     map[string]domain.TriggerSet
	styles       map[string]string
	instructions string
	failTriggers bool
	saved        int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		triggers: make(map[string]domain.TriggerSet),
		styles:   make(map[string]string),
	}
}

func (m *mockSessionRepo) Triggers(ctx context.Context, chatID string) (domain.TriggerSet, error) {
	if m.failTriggers {
		return nil, errors.New("store unavailable")
	}
	return m.triggers[chatID], nil
}

func (m *mockSessionRepo) SaveTriggers(ctx context.Context, chatID string, set domain.TriggerSet) error {
	m.triggers[chatID] = set
	m.saved++
	return nil
}

func (m *mockSessionRepo) Style(ctx context.Context, chatID string) (string, error) {
	return m.styles[chatID], nil
}

func (m *mockSessionRepo) SaveStyle(ctx context.Context, chatID, style string) error {
	m.styles[chatID] = style
	return nil
}

func (m *mockSessionRepo) Instructions(ctx context.Context) (string, error) {
	return m.instructions, nil
}

func (m *mockSessionRepo) SaveInstructions(ctx context.Context, text string) error {
	m.instructions = text
	return nil
}

func (m *mockSessionRepo) Close() error { return nil }

type mockHistoryRepo struct {
	messages map[string][]domain.Message
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{messages: make(map[string][]domain.Message)}
}

func (m *mockHistoryRepo) Append(chatID string, msg *domain.Message) error {
	m.messages[chatID] = append(m.messages[chatID], *msg)
	return nil
}

func (m *mockHistoryRepo) Messages(chatID string) []domain.Message {
	return m.messages[chatID]
}

func (m *mockHistoryRepo) Clear(chatID string) error {
	m.messages[chatID] = nil
	return nil
}

type mockArchiveRepo struct {
	messages []domain.Message
	err      error
}

func (m *mockArchiveRepo) Window(start, end time.Time) ([]domain.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.InWindow(start, end) {
			out = append(out, msg)
		}
	}
	return out, nil
}

type mockCompletionRepo struct {
	result       *repo.CompletionResult
	err          error
	calls        int
	lastPrompt   string
	instructions string
}

func (m *mockCompletionRepo) GenerateText(ctx context.Context, prompt string) (*repo.CompletionResult, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockCompletionRepo) GenerateWithImage(ctx context.Context, prompt, imagePath string) (*repo.CompletionResult, error) {
	return m.GenerateText(ctx, prompt)
}

func (m *mockCompletionRepo) SetSystemInstructions(text string) { m.instructions = text }

func (m *mockCompletionRepo) SystemInstructions() string { return m.instructions }

func messageAt(id int64, sender, text string, ts time.Time) domain.Message {
	m := domain.Message{ID: id, From: sender, Text: text, Type: "message"}
	m.SetCreatedAt(ts)
	return m
}
