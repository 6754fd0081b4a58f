package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// MatcherUsecase decides whether an inbound message addresses the bot and
// strips the addressing tokens from it
type MatcherUsecase struct {
	sessions repo.SessionRepo
	defaults domain.TriggerSet
}

// NewMatcherUsecase creates a new matcher usecase
func NewMatcherUsecase(sessions repo.SessionRepo, defaults domain.TriggerSet) *MatcherUsecase {
	return &MatcherUsecase{sessions: sessions, defaults: defaults}
}

// EffectiveTriggers returns the chat's customized trigger set, falling back
// to the default set. Store errors degrade to the default set.
func (uc *MatcherUsecase) EffectiveTriggers(ctx context.Context, chatID string) domain.TriggerSet {
	set, err := uc.sessions.Triggers(ctx, chatID)
	if err != nil {
		fmt.Printf("[Matcher] Failed to load triggers for %s: %v\n", chatID, err)
		return uc.defaults
	}
	if set == nil {
		return uc.defaults
	}
	return set
}

// ShouldRespond reports whether the bot treats itself as addressed.
// Private chats always respond. Trigger matching is substring containment,
// deliberately looser than Clean's whole-word removal: a trigger embedded in
// a longer word still wakes the bot.
func (uc *MatcherUsecase) ShouldRespond(kind domain.ChatKind, text string, triggers domain.TriggerSet, mention string, isReplyToBot bool) bool {
	if kind.IsPrivate() || isReplyToBot {
		return true
	}
	lower := strings.ToLower(text)
	for trigger := range triggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return mention != "" && strings.Contains(lower, strings.ToLower(mention))
}

// Clean removes whole-word trigger and mention tokens, preserving the
// casing and order of everything else. Idempotent: cleaning a cleaned
// string changes nothing.
func (uc *MatcherUsecase) Clean(text string, triggers domain.TriggerSet, mention string) string {
	mention = strings.ToLower(mention)
	var kept []string
	for _, word := range strings.Fields(text) {
		lower := strings.ToLower(word)
		if triggers.Has(lower) {
			continue
		}
		if mention != "" && lower == mention {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// AddTrigger adds a word to the chat's trigger set, creating a customized
// copy of the defaults on first use. Returns the updated set.
func (uc *MatcherUsecase) AddTrigger(ctx context.Context, chatID, word string) (domain.TriggerSet, error) {
	set := uc.customized(ctx, chatID)
	set.Add(word)
	if err := uc.sessions.SaveTriggers(ctx, chatID, set); err != nil {
		return nil, fmt.Errorf("save triggers: %w", err)
	}
	return set, nil
}

// RemoveTrigger removes a word from the chat's trigger set. The second
// return reports whether the word was present.
func (uc *MatcherUsecase) RemoveTrigger(ctx context.Context, chatID, word string) (domain.TriggerSet, bool, error) {
	set := uc.customized(ctx, chatID)
	removed := set.Remove(word)
	if removed {
		if err := uc.sessions.SaveTriggers(ctx, chatID, set); err != nil {
			return nil, false, fmt.Errorf("save triggers: %w", err)
		}
	}
	return set, removed, nil
}

func (uc *MatcherUsecase) customized(ctx context.Context, chatID string) domain.TriggerSet {
	set, err := uc.sessions.Triggers(ctx, chatID)
	if err != nil {
		fmt.Printf("[Matcher] Failed to load triggers for %s: %v\n", chatID, err)
	}
	if set == nil {
		return uc.defaults.Clone()
	}
	return set
}
