package usecase

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestRecentExcludesLatestMessage(t *testing.T) {
	live := newMockHistoryRepo()
	uc := NewHistoryUsecase(live, nil)

	for i := 0; i < 5; i++ {
		msg := messageAt(int64(i+1), "alice", "msg", base.Add(time.Duration(i)*time.Minute))
		if err := uc.Record("c1", &msg); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent := uc.Recent("c1", 3)
	if len(recent) != 3 {
		t.Fatalf("Recent len = %d, want 3", len(recent))
	}
	// The latest message (id 5) is the one being answered; it must be absent.
	if recent[len(recent)-1].ID != 4 {
		t.Errorf("last recent id = %d, want 4", recent[len(recent)-1].ID)
	}
}

func TestRecentNeedsAtLeastTwoMessages(t *testing.T) {
	live := newMockHistoryRepo()
	uc := NewHistoryUsecase(live, nil)

	msg := messageAt(1, "alice", "hi", base)
	uc.Record("c1", &msg)

	if got := uc.Recent("c1", 10); got != nil {
		t.Errorf("Recent with one stored message = %v, want nil", got)
	}
}

func TestRecentClampsAtFront(t *testing.T) {
	live := newMockHistoryRepo()
	uc := NewHistoryUsecase(live, nil)

	for i := 0; i < 3; i++ {
		msg := messageAt(int64(i+1), "alice", "msg", base.Add(time.Duration(i)*time.Minute))
		uc.Record("c1", &msg)
	}

	recent := uc.Recent("c1", 100)
	if len(recent) != 2 {
		t.Errorf("Recent len = %d, want 2", len(recent))
	}
}

func TestWindowMergesArchiveAndLiveWithLiveWinning(t *testing.T) {
	live := newMockHistoryRepo()
	archive := &mockArchiveRepo{}
	uc := NewHistoryUsecase(live, archive)

	archive.messages = append(archive.messages,
		messageAt(5, "alice", "archived copy", base),
		messageAt(6, "bob", "only in archive", base.Add(time.Minute)),
	)

	liveCopy := messageAt(5, "alice", "live copy", base)
	liveOnly := messageAt(7, "carol", "only live", base.Add(2*time.Minute))
	live.Append("c1", &liveCopy)
	live.Append("c1", &liveOnly)

	got := uc.Window("c1", base, base.Add(time.Hour))
	if len(got) != 3 {
		t.Fatalf("Window len = %d, want 3", len(got))
	}

	seen := make(map[int64]bool)
	for i, m := range got {
		if seen[m.ID] {
			t.Errorf("duplicate id %d in merged window", m.ID)
		}
		seen[m.ID] = true
		if i > 0 && got[i].CreatedAt().Before(got[i-1].CreatedAt()) {
			t.Error("merged window is not sorted ascending")
		}
	}
	if got[0].ID != 5 || got[0].Text != "live copy" {
		t.Errorf("id 5 = %q, want the live copy", got[0].Text)
	}
}

func TestWindowFiltersLiveByTimestamp(t *testing.T) {
	live := newMockHistoryRepo()
	uc := NewHistoryUsecase(live, nil)

	inside := messageAt(1, "alice", "inside", base)
	outside := messageAt(2, "alice", "outside", base.Add(2*time.Hour))
	live.Append("c1", &inside)
	live.Append("c1", &outside)

	got := uc.Window("c1", base, base.Add(time.Hour))
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Window = %+v, want only id 1", got)
	}
}

func TestWindowDegradesToLiveOnArchiveFailure(t *testing.T) {
	live := newMockHistoryRepo()
	archive := &mockArchiveRepo{err: errors.New("archive unreadable")}
	uc := NewHistoryUsecase(live, archive)

	msg := messageAt(1, "alice", "hi", base)
	live.Append("c1", &msg)

	got := uc.Window("c1", base.Add(-time.Hour), base.Add(time.Hour))
	if len(got) != 1 {
		t.Errorf("Window len = %d, want 1 (live only)", len(got))
	}
}

func TestWindowDateCoversOneUTCDay(t *testing.T) {
	live := newMockHistoryRepo()
	uc := NewHistoryUsecase(live, nil)

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	inDay := messageAt(1, "alice", "in day", day.Add(23*time.Hour))
	nextDay := messageAt(2, "alice", "next day", day.AddDate(0, 0, 1))
	live.Append("c1", &inDay)
	live.Append("c1", &nextDay)

	got := uc.WindowDate("c1", day.Add(10*time.Hour))
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("WindowDate = %+v, want only id 1", got)
	}
}
