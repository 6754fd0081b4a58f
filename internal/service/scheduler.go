package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chuvashini/companion-bot/internal/biz/repo"
	"github.com/chuvashini/companion-bot/internal/biz/usecase"
)

// DigestScheduler posts a daily digest of a chat on a cron schedule
type DigestScheduler struct {
	history   *usecase.HistoryUsecase
	summaries *usecase.SummaryUsecase
	messenger repo.MessengerRepo

	spec         string
	chatID       string
	summaryStyle string

	cron *cron.Cron
	now  func() time.Time
}

// NewDigestScheduler creates a new digest scheduler
func NewDigestScheduler(
	history *usecase.HistoryUsecase,
	summaries *usecase.SummaryUsecase,
	messenger repo.MessengerRepo,
	spec, chatID, summaryStyle string,
) *DigestScheduler {
	return &DigestScheduler{
		history:      history,
		summaries:    summaries,
		messenger:    messenger,
		spec:         spec,
		chatID:       chatID,
		summaryStyle: summaryStyle,
		now:          time.Now,
	}
}

// Start starts the scheduler
func (s *DigestScheduler) Start() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.spec, s.postDigest); err != nil {
		return fmt.Errorf("failed to schedule digest: %w", err)
	}
	s.cron.Start()
	fmt.Printf("[Scheduler] Started with schedule %q for chat %s\n", s.spec, s.chatID)
	return nil
}

// Stop stops the scheduler and waits for a running digest to finish
func (s *DigestScheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	fmt.Println("[Scheduler] Stopped")
}

func (s *DigestScheduler) postDigest() {
	ctx := context.Background()

	batch := s.history.WindowToday(s.chatID, s.now())
	opts := usecase.DefaultSummaryOptions()
	opts.Style = s.summaryStyle

	text := s.summaries.Generate(ctx, batch, opts)
	if err := s.messenger.Send(ctx, s.chatID, "Daily digest:\n\n"+text, 0); err != nil {
		fmt.Printf("[Scheduler] Digest send failed for chat %s: %v\n", s.chatID, err)
	}
}
