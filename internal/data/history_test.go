package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/usecase"
)

func newTestHistoryRepo(t *testing.T, max int) (string, *historyRepo) {
	t.Helper()
	dir := t.TempDir()
	r, err := NewHistoryRepo(dir, max)
	if err != nil {
		t.Fatalf("NewHistoryRepo: %v", err)
	}
	return dir, r.(*historyRepo)
}

func TestAppendAssignsIDTypeAndTimestamps(t *testing.T) {
	_, r := newTestHistoryRepo(t, 50)

	msg := &domain.Message{From: "alice", Text: "hello"}
	if err := r.Append("c1", msg); err != nil {
		t.Fatalf("Append: %v", err)
	}

	stored := r.Messages("c1")
	if len(stored) != 1 {
		t.Fatalf("stored = %d messages", len(stored))
	}
	got := stored[0]
	if got.ID != 1 {
		t.Errorf("ID = %d, want 1", got.ID)
	}
	if got.Type != "message" {
		t.Errorf("Type = %q", got.Type)
	}
	if got.Date == "" || got.DateUnix == "" {
		t.Errorf("timestamps not set: %q / %q", got.Date, got.DateUnix)
	}
	if got.CreatedAt().IsZero() {
		t.Error("CreatedAt is zero")
	}
}

func TestAppendDropsConsecutiveDuplicateText(t *testing.T) {
	_, r := newTestHistoryRepo(t, 50)

	first := &domain.Message{From: "alice", Text: "same"}
	dup := &domain.Message{From: "alice", Text: "same"}
	different := &domain.Message{From: "alice", Text: "other"}
	again := &domain.Message{From: "alice", Text: "same"}

	for _, m := range []*domain.Message{first, dup, different, again} {
		if err := r.Append("c1", m); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	// Only the back-to-back duplicate is dropped.
	if got := len(r.Messages("c1")); got != 3 {
		t.Errorf("stored = %d messages, want 3", got)
	}
}

func TestAppendEvictsOldestBeyondCap(t *testing.T) {
	_, r := newTestHistoryRepo(t, 5)

	for i := 0; i < 8; i++ {
		msg := &domain.Message{From: "alice", Text: string(rune('a' + i))}
		if err := r.Append("c1", msg); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stored := r.Messages("c1")
	if len(stored) != 5 {
		t.Fatalf("stored = %d messages, want 5", len(stored))
	}
	if stored[0].Text != "d" || stored[4].Text != "h" {
		t.Errorf("window = %q..%q, want d..h", stored[0].Text, stored[4].Text)
	}
}

func TestAppendIDsContinueAfterEviction(t *testing.T) {
	_, r := newTestHistoryRepo(t, 3)

	for i := 0; i < 5; i++ {
		msg := &domain.Message{From: "alice", Text: string(rune('a' + i))}
		r.Append("c1", msg)
	}

	stored := r.Messages("c1")
	if stored[len(stored)-1].ID != 5 {
		t.Errorf("last ID = %d, want 5", stored[len(stored)-1].ID)
	}
}

func TestCappedStoreKeepsLastFifty(t *testing.T) {
	_, r := newTestHistoryRepo(t, 50)

	for i := 0; i < 60; i++ {
		msg := &domain.Message{From: "alice", Text: fmt.Sprintf("message %d", i)}
		if err := r.Append("c1", msg); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stored := r.Messages("c1")
	if len(stored) != 50 {
		t.Fatalf("stored = %d messages, want 50", len(stored))
	}
	if stored[0].Text != "message 10" {
		t.Errorf("oldest retained = %q, want message 10", stored[0].Text)
	}

	uc := usecase.NewHistoryUsecase(r, nil)
	if got := len(uc.Recent("c1", 100)); got != 49 {
		t.Errorf("Recent(100) = %d messages, want 49", got)
	}
}

func TestHistorySurvivesReload(t *testing.T) {
	dir, r := newTestHistoryRepo(t, 50)

	msg := &domain.Message{From: "alice", Text: "persisted"}
	if err := r.Append("c1", msg); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reloaded, err := NewHistoryRepo(dir, 50)
	if err != nil {
		t.Fatalf("NewHistoryRepo reload: %v", err)
	}
	stored := reloaded.Messages("c1")
	if len(stored) != 1 || stored[0].Text != "persisted" {
		t.Errorf("reloaded = %+v", stored)
	}
}

func TestLoadAcceptsBareArrayForm(t *testing.T) {
	dir := t.TempDir()
	legacy := []domain.Message{{ID: 1, Type: "message", From: "alice", Text: "old format"}}
	raw, _ := json.Marshal(legacy)
	if err := os.WriteFile(filepath.Join(dir, "chat_c1.json"), raw, 0644); err != nil {
		t.Fatal(err)
	}

	r, err := NewHistoryRepo(dir, 50)
	if err != nil {
		t.Fatalf("NewHistoryRepo: %v", err)
	}
	stored := r.Messages("c1")
	if len(stored) != 1 || stored[0].Text != "old format" {
		t.Errorf("bare-array load = %+v", stored)
	}
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "chat_c1.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := NewHistoryRepo(dir, 50)
	if err != nil {
		t.Fatalf("NewHistoryRepo: %v", err)
	}
	if got := r.Messages("c1"); len(got) != 0 {
		t.Errorf("corrupt file loaded %d messages", len(got))
	}

	// The chat is still writable afterwards.
	msg := &domain.Message{From: "alice", Text: "fresh start"}
	if err := r.Append("c1", msg); err != nil {
		t.Fatalf("Append after corrupt load: %v", err)
	}
}

func TestClearTruncatesAndPersists(t *testing.T) {
	dir, r := newTestHistoryRepo(t, 50)

	msg := &domain.Message{From: "alice", Text: "hello"}
	r.Append("c1", msg)
	if err := r.Clear("c1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := r.Messages("c1"); len(got) != 0 {
		t.Errorf("messages after clear = %d", len(got))
	}

	reloaded, err := NewHistoryRepo(dir, 50)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Messages("c1"); len(got) != 0 {
		t.Errorf("persisted messages after clear = %d", len(got))
	}
}

func TestAppendKeepsCallerTimestamp(t *testing.T) {
	_, r := newTestHistoryRepo(t, 50)

	msg := &domain.Message{From: "alice", Text: "hello"}
	ts := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	msg.SetCreatedAt(ts)
	r.Append("c1", msg)

	if got := r.Messages("c1")[0].CreatedAt(); !got.Equal(ts) {
		t.Errorf("CreatedAt = %v, want %v", got, ts)
	}
}
