package domain

import (
	"strconv"
	"time"
)

// ChatKind represents the chat kind
type ChatKind string

const (
	ChatKindPrivate ChatKind = "private"
	ChatKindGroup   ChatKind = "group"
)

// IsPrivate checks if this is a one-to-one chat
func (k ChatKind) IsPrivate() bool {
	return k == ChatKindPrivate
}

// UnknownSender is the label used when the platform gives no display name.
const UnknownSender = "Unknown"

// Message represents a message entity. The persisted shape follows the
// Telegram export format so live history and bulk archives share one codec.
type Message struct {
	ID        int64  `json:"id"`
	ChatID    string `json:"chat_id,omitempty"`
	Type      string `json:"type"`
	Date      string `json:"date"`
	DateUnix  string `json:"date_unixtime"`
	From      string `json:"from"`
	FromID    string `json:"from_id,omitempty"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Text      string `json:"text"`
	ReplyToID int64  `json:"reply_to_message_id,omitempty"`
	MediaKind string `json:"media_type,omitempty"`
	MediaRef  string `json:"media_file_id,omitempty"`
}

// SetCreatedAt sets both timestamp representations. They must agree; every
// write path goes through here.
func (m *Message) SetCreatedAt(t time.Time) {
	t = t.UTC()
	m.Date = t.Format(time.RFC3339)
	m.DateUnix = strconv.FormatInt(t.Unix(), 10)
}

// CreatedAt returns the message time. The epoch form is authoritative; the
// ISO form is only consulted when the epoch form is missing (old records).
func (m *Message) CreatedAt() time.Time {
	if m.DateUnix != "" {
		if sec, err := strconv.ParseInt(m.DateUnix, 10, 64); err == nil {
			return time.Unix(sec, 0).UTC()
		}
	}
	if t, err := time.Parse(time.RFC3339, m.Date); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// SenderLabel returns the display name, falling back to UnknownSender
func (m *Message) SenderLabel() string {
	if m.From == "" {
		return UnknownSender
	}
	return m.From
}

// InWindow checks if the message falls in [start, end)
func (m *Message) InWindow(start, end time.Time) bool {
	ts := m.CreatedAt()
	return !ts.Before(start) && ts.Before(end)
}
