package repo

import "context"

// MessengerRepo is the outbound sink interface
// Responsible for delivering replies and fetching media from the platform
type MessengerRepo interface {
	// Send delivers text to a chat, downgrading through formatting tiers
	// (rich markup, simple markup, plain) until one is accepted.
	// replyTo links the reply to a message; 0 sends without linkage.
	Send(ctx context.Context, chatID string, text string, replyTo int64) error

	// DownloadFile fetches a platform file to a temp path. The caller owns
	// the file and must remove it.
	DownloadFile(ctx context.Context, fileID string) (string, error)

	// Mention returns the bot's mention string ("@username")
	Mention() string
}
