package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// chatFile is the on-disk document: one JSON object per chat
type chatFile struct {
	Messages []domain.Message `json:"messages"`
}

// historyRepo implements the live History repository over one JSON file per
// chat. The in-memory copy is authoritative; saves write the full array, so
// concurrent appends for one chat resolve as last-write-wins on disk.
type historyRepo struct {
	dir         string
	maxMessages int

	mu        sync.RWMutex
	histories map[string][]domain.Message
}

// NewHistoryRepo creates the live history store, loading every existing
// chat file under dir. Corrupt files become empty histories and are
// overwritten on the next save.
func NewHistoryRepo(dir string, maxMessages int) (repo.HistoryRepo, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	r := &historyRepo{
		dir:         dir,
		maxMessages: maxMessages,
		histories:   make(map[string][]domain.Message),
	}
	r.loadAll()
	return r, nil
}

func (r *historyRepo) loadAll() {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		fmt.Printf("[History] Failed to read %s: %v\n", r.dir, err)
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "chat_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		chatID := strings.TrimSuffix(strings.TrimPrefix(name, "chat_"), ".json")
		r.histories[chatID] = r.loadChat(chatID)
	}
}

// loadChat reads one chat file. Accepts both the current object form and
// the older bare-array form; anything unparseable is an empty history.
func (r *historyRepo) loadChat(chatID string) []domain.Message {
	raw, err := os.ReadFile(r.filePath(chatID))
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("[History] Failed to read history for %s: %v\n", chatID, err)
		}
		return nil
	}

	var doc chatFile
	if err := json.Unmarshal(raw, &doc); err == nil {
		return doc.Messages
	}
	var bare []domain.Message
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare
	}
	fmt.Printf("[History] Corrupt history for %s, starting empty\n", chatID)
	return nil
}

func (r *historyRepo) filePath(chatID string) string {
	return filepath.Join(r.dir, fmt.Sprintf("chat_%s.json", chatID))
}

// Append stores a message. Exact-text duplicates of the previous message
// are dropped; the per-chat cap evicts the oldest entries.
func (r *historyRepo) Append(chatID string, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.histories[chatID]
	if len(msgs) > 0 && msgs[len(msgs)-1].Text == msg.Text {
		return nil
	}

	if msg.Type == "" {
		msg.Type = "message"
	}
	if msg.DateUnix == "" {
		msg.SetCreatedAt(time.Now())
	}
	if msg.ID == 0 {
		msg.ID = nextID(msgs)
	}

	msgs = append(msgs, *msg)
	if r.maxMessages > 0 && len(msgs) > r.maxMessages {
		msgs = msgs[len(msgs)-r.maxMessages:]
	}
	r.histories[chatID] = msgs

	r.save(chatID, msgs)
	return nil
}

func nextID(msgs []domain.Message) int64 {
	var max int64
	for _, m := range msgs {
		if m.ID > max {
			max = m.ID
		}
	}
	return max + 1
}

// save writes the full history document. A write failure is logged, not
// returned: the in-memory copy stays authoritative until the next save.
func (r *historyRepo) save(chatID string, msgs []domain.Message) {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	raw, err := json.MarshalIndent(chatFile{Messages: msgs}, "", "  ")
	if err != nil {
		fmt.Printf("[History] Failed to encode history for %s: %v\n", chatID, err)
		return
	}
	if err := os.WriteFile(r.filePath(chatID), raw, 0644); err != nil {
		fmt.Printf("[History] Failed to save history for %s: %v\n", chatID, err)
	}
}

// Messages returns a copy of the chat's messages in insertion order
func (r *historyRepo) Messages(chatID string) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.histories[chatID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}

// Clear truncates the chat's history and persists immediately
func (r *historyRepo) Clear(chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.histories[chatID] = nil
	r.save(chatID, nil)
	return nil
}
