package service

import (
	"context"
	"errors"
	"sync"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// Mock implementations shared by the service tests

type sentMessage struct {
	ChatID  string
	Text    string
	ReplyTo int64
}

type mockMessenger struct {
	mu       sync.Mutex
	sent     []sentMessage
	mention  string
	filePath string
	fileErr  error
}

func (m *mockMessenger) Send(ctx context.Context, chatID, text string, replyTo int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{ChatID: chatID, Text: text, ReplyTo: replyTo})
	return nil
}

func (m *mockMessenger) DownloadFile(ctx context.Context, fileID string) (string, error) {
	if m.fileErr != nil {
		return "", m.fileErr
	}
	return m.filePath, nil
}

func (m *mockMessenger) Mention() string { return m.mention }

func (m *mockMessenger) sentTexts() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

type mockSessionRepo struct {
	triggers     map[string]domain.TriggerSet
	styles       map[string]string
	instructions string
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{
		triggers: make(map[string]domain.TriggerSet),
		styles:   make(map[string]string),
	}
}

func (m *mockSessionRepo) Triggers(ctx context.Context, chatID string) (domain.TriggerSet, error) {
	return m.triggers[chatID], nil
}

func (m *mockSessionRepo) SaveTriggers(ctx context.Context, chatID string, set domain.TriggerSet) error {
	m.triggers[chatID] = set
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
	mu       sync.Mutex
	messages map[string][]domain.Message
}

func newMockHistoryRepo() *mockHistoryRepo {
	return &mockHistoryRepo{messages: make(map[string][]domain.Message)}
}

func (m *mockHistoryRepo) Append(chatID string, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[chatID] = append(m.messages[chatID], *msg)
	return nil
}

func (m *mockHistoryRepo) Messages(chatID string) []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.messages[chatID]...)
}

func (m *mockHistoryRepo) Clear(chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[chatID] = nil
	return nil
}

type mockCompletion struct {
	result       *repo.CompletionResult
	err          error
	calls        int
	lastPrompt   string
	instructions string
}

func (m *mockCompletion) GenerateText(ctx context.Context, prompt string) (*repo.CompletionResult, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockCompletion) GenerateWithImage(ctx context.Context, prompt, imagePath string) (*repo.CompletionResult, error) {
	return m.GenerateText(ctx, prompt)
}

func (m *mockCompletion) SetSystemInstructions(text string) { m.instructions = text }

func (m *mockCompletion) SystemInstructions() string { return m.instructions }

var errBackendDown = errors.New("backend down")
