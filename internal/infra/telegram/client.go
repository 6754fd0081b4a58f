package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client wraps the Telegram Bot API
type Client struct {
	api *tgbotapi.BotAPI
}

// NewClient creates a new Telegram client and verifies the token by
// fetching the bot's own identity
func NewClient(token string, debug bool) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	api.Debug = debug
	fmt.Printf("[Telegram] Authorized as @%s\n", api.Self.UserName)
	return &Client{api: api}, nil
}

// Username returns the bot's username without the @ prefix
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// BotID returns the bot's numeric user id
func (c *Client) BotID() int64 {
	return c.api.Self.ID
}

// Updates starts long polling and returns the update channel
func (c *Client) Updates(timeoutSeconds int) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSeconds
	return c.api.GetUpdatesChan(u)
}

// StopUpdates stops the long poll loop
func (c *Client) StopUpdates() {
	c.api.StopReceivingUpdates()
}

// Send sends any chattable payload
func (c *Client) Send(msg tgbotapi.Chattable) error {
	_, err := c.api.Send(msg)
	return err
}

// FileURL resolves a file id to a download URL
func (c *Client) FileURL(fileID string) (string, error) {
	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", fmt.Errorf("failed to get file: %w", err)
	}
	return file.Link(c.api.Token), nil
}
