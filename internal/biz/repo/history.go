package repo

import (
	"time"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
)

// HistoryRepo is the live history store interface
// Responsible for the bounded per-chat message log (JSON file per chat)
type HistoryRepo interface {
	// Append stores a message, assigning an ID if the caller left it zero.
	// A message whose text equals the previous message's text in the same
	// chat is dropped. The store keeps at most the configured number of
	// most-recent messages per chat and persists synchronously.
	Append(chatID string, msg *domain.Message) error

	// Messages returns a copy of the chat's messages in insertion order
	Messages(chatID string) []domain.Message

	// Clear truncates the chat's history and persists immediately
	Clear(chatID string) error
}

// ArchiveRepo is the read-only bulk archive interface
// The archive is streamed incrementally, never loaded wholesale
type ArchiveRepo interface {
	// Window returns archived messages whose timestamp falls in [start, end)
	Window(start, end time.Time) ([]domain.Message, error)
}
