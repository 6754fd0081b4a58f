package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/chuvashini/companion-bot/internal/biz/repo"
	"github.com/chuvashini/companion-bot/internal/infra/telegram"
)

// formatTiers are tried in order until the platform accepts the message.
// MarkdownV2 rejects unescaped generated text often enough that the
// downgrade path is the normal path, not the exception.
var formatTiers = []string{tgbotapi.ModeMarkdownV2, tgbotapi.ModeMarkdown, ""}

// messengerRepo implements the Messenger repository over Telegram
type messengerRepo struct {
	client *telegram.Client
}

// NewMessengerRepo creates a new Telegram-backed Messenger repository
func NewMessengerRepo(client *telegram.Client) repo.MessengerRepo {
	return &messengerRepo{client: client}
}

// Mention returns the bot's mention string
func (r *messengerRepo) Mention() string {
	return "@" + r.client.Username()
}

// Send delivers text, downgrading MarkdownV2 -> Markdown -> plain until a
// tier is accepted. Only the final tier's failure is returned.
func (r *messengerRepo) Send(ctx context.Context, chatID string, text string, replyTo int64) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	var lastErr error
	for _, tier := range formatTiers {
		msg := tgbotapi.NewMessage(id, text)
		msg.ParseMode = tier
		if replyTo != 0 {
			msg.ReplyToMessageID = int(replyTo)
		}
		if lastErr = r.client.Send(msg); lastErr == nil {
			return nil
		}
		if tier != "" {
			fmt.Printf("[Telegram] %s formatting rejected, downgrading: %v\n", tier, lastErr)
		}
	}
	return fmt.Errorf("send to %s failed on all format tiers: %w", chatID, lastErr)
}

// DownloadFile fetches a platform file into a uniquely named temp file.
// The caller removes it when done.
func (r *messengerRepo) DownloadFile(ctx context.Context, fileID string) (string, error) {
	url, err := r.client.FileURL(fileID)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("companion_%s.jpg", uuid.New().String()))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return path, nil
}
