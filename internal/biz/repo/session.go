package repo

import (
	"context"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
)

// SessionRepo is the per-chat session state interface
// Responsible for trigger sets and style overrides (SQLite)
type SessionRepo interface {
	// Triggers returns the chat's customized trigger set, or nil if the
	// chat has never customized its triggers
	Triggers(ctx context.Context, chatID string) (domain.TriggerSet, error)

	// SaveTriggers replaces the chat's trigger set
	SaveTriggers(ctx context.Context, chatID string, set domain.TriggerSet) error

	// Style returns the chat's persona override, or "" if unset
	Style(ctx context.Context, chatID string) (string, error)

	// SaveStyle sets the chat's persona override
	SaveStyle(ctx context.Context, chatID, style string) error

	// Instructions returns the stored system instructions, or "" if unset
	Instructions(ctx context.Context) (string, error)

	// SaveInstructions stores the system instructions
	SaveInstructions(ctx context.Context, text string) error

	// Close closes the underlying store
	Close() error
}
