package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// HistoryUsecase handles history retrieval logic on top of the live store
// and the optional bulk archive
type HistoryUsecase struct {
	live    repo.HistoryRepo
	archive repo.ArchiveRepo // nil when no archive is configured
}

// NewHistoryUsecase creates a new history usecase
func NewHistoryUsecase(live repo.HistoryRepo, archive repo.ArchiveRepo) *HistoryUsecase {
	return &HistoryUsecase{live: live, archive: archive}
}

// Record appends a message to the live store
func (uc *HistoryUsecase) Record(chatID string, msg *domain.Message) error {
	return uc.live.Append(chatID, msg)
}

// Recent returns up to limit most-recent messages in chronological order,
// excluding the very latest one (the message currently being answered).
// Fewer than two stored messages yields nothing.
func (uc *HistoryUsecase) Recent(chatID string, limit int) []domain.Message {
	msgs := uc.live.Messages(chatID)
	if len(msgs) < 2 || limit <= 0 {
		return nil
	}
	start := len(msgs) - limit - 1
	if start < 0 {
		start = 0
	}
	return msgs[start : len(msgs)-1]
}

// All returns the chat's full live history in insertion order
func (uc *HistoryUsecase) All(chatID string) []domain.Message {
	return uc.live.Messages(chatID)
}

// Clear truncates the chat's live history. The archive is untouched.
func (uc *HistoryUsecase) Clear(chatID string) error {
	return uc.live.Clear(chatID)
}

// Window merges archive and live messages with timestamps in [start, end),
// deduplicated by id with the live copy winning, sorted ascending by time.
// Archive read failures degrade to live-only results.
func (uc *HistoryUsecase) Window(chatID string, start, end time.Time) []domain.Message {
	var merged []domain.Message
	seen := make(map[int64]int) // id -> index in merged

	if uc.archive != nil {
		archived, err := uc.archive.Window(start, end)
		if err != nil {
			fmt.Printf("[History] Archive read failed: %v\n", err)
		}
		for _, m := range archived {
			if i, ok := seen[m.ID]; ok {
				merged[i] = m
				continue
			}
			seen[m.ID] = len(merged)
			merged = append(merged, m)
		}
	}

	for _, m := range uc.live.Messages(chatID) {
		if !m.InWindow(start, end) {
			continue
		}
		if i, ok := seen[m.ID]; ok {
			merged[i] = m // live copy wins over a re-imported archive record
			continue
		}
		seen[m.ID] = len(merged)
		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt().Before(merged[j].CreatedAt())
	})
	return merged
}

// WindowHours returns the merged window covering the last hours hours
func (uc *HistoryUsecase) WindowHours(chatID string, hours float64, now time.Time) []domain.Message {
	start := now.Add(-time.Duration(hours * float64(time.Hour)))
	return uc.Window(chatID, start, now)
}

// WindowToday returns the merged window since local midnight
func (uc *HistoryUsecase) WindowToday(chatID string, now time.Time) []domain.Message {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return uc.Window(chatID, start, now)
}

// WindowDate returns the merged window covering one calendar day
func (uc *HistoryUsecase) WindowDate(chatID string, day time.Time) []domain.Message {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return uc.Window(chatID, start, start.AddDate(0, 0, 1))
}
