package service

import (
	"context"
	"fmt"
	"os"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
	"github.com/chuvashini/companion-bot/internal/biz/usecase"
)

const (
	imageFailedText  = "Couldn't make sense of that image"
	imageBlockedText = " (content blocked)"
	imageErrorText   = "Something went wrong with that image. Try again in a bit."
)

// InboundEvent represents one platform update flattened for routing
type InboundEvent struct {
	ChatID      string
	ChatKind    domain.ChatKind
	MessageID   int64
	SenderName  string
	SenderID    string
	SenderIsBot bool
	Text        string
	Caption     string
	PhotoFileID string
	ReplyToID   int64
	// IsReplyToBot is set when the message replies to one of ours
	IsReplyToBot bool
	Command      string
	Args         []string
}

// RouterService decides whether a message deserves a reply and produces it
type RouterService struct {
	matcher      *usecase.MatcherUsecase
	history      *usecase.HistoryUsecase
	prompts      *usecase.PromptBuilderUsecase
	imagePrompts *usecase.PromptBuilderUsecase
	completion   repo.CompletionRepo
	messenger    repo.MessengerRepo
	sessions     repo.SessionRepo

	botName       string
	promptHistory int
}

// NewRouterService creates a new router service
func NewRouterService(
	matcher *usecase.MatcherUsecase,
	history *usecase.HistoryUsecase,
	prompts *usecase.PromptBuilderUsecase,
	imagePrompts *usecase.PromptBuilderUsecase,
	completion repo.CompletionRepo,
	messenger repo.MessengerRepo,
	sessions repo.SessionRepo,
	botName string,
	promptHistory int,
) *RouterService {
	return &RouterService{
		matcher:       matcher,
		history:       history,
		prompts:       prompts,
		imagePrompts:  imagePrompts,
		completion:    completion,
		messenger:     messenger,
		sessions:      sessions,
		botName:       botName,
		promptHistory: promptHistory,
	}
}

// HandleText processes an inbound text message
func (s *RouterService) HandleText(ctx context.Context, ev *InboundEvent) {
	defer s.recoverQuiet(ev)

	// Record first so the chat log is complete regardless of whether
	// this message earns a reply.
	s.record(ev, ev.Text)

	triggers := s.matcher.EffectiveTriggers(ctx, ev.ChatID)
	mention := s.messenger.Mention()
	if !s.matcher.ShouldRespond(ev.ChatKind, ev.Text, triggers, mention, ev.IsReplyToBot) {
		return
	}
	cleaned := s.matcher.Clean(ev.Text, triggers, mention)
	if cleaned == "" {
		return
	}

	style := s.styleFor(ctx, ev.ChatID)
	recent := s.history.Recent(ev.ChatID, s.promptHistory)
	prompt := s.prompts.Build(style, recent, ev.SenderName, cleaned, false)

	result, err := s.completion.GenerateText(ctx, prompt)
	if err != nil || result.Text == "" {
		// A text message that got no answer stays unanswered; the silence
		// reads as the bot choosing not to reply.
		fmt.Printf("[Router] Completion failed for chat %s: %v\n", ev.ChatID, err)
		return
	}
	s.recordBotReply(ev.ChatID, result.Text)
	s.reply(ctx, ev, result.Text)
}

// HandleImage processes an inbound photo. The caption stands in for text at
// the gate, but there is no emptiness check: an image alone is a valid query.
func (s *RouterService) HandleImage(ctx context.Context, ev *InboundEvent) {
	defer s.recoverApologetic(ctx, ev)

	placeholder := "[Image]"
	if ev.Caption != "" {
		placeholder = "[Image] with caption: " + ev.Caption
	}
	s.record(ev, placeholder)

	triggers := s.matcher.EffectiveTriggers(ctx, ev.ChatID)
	mention := s.messenger.Mention()
	if !s.matcher.ShouldRespond(ev.ChatKind, ev.Caption, triggers, mention, ev.IsReplyToBot) {
		return
	}

	path, err := s.messenger.DownloadFile(ctx, ev.PhotoFileID)
	if err != nil {
		fmt.Printf("[Router] Photo download failed for chat %s: %v\n", ev.ChatID, err)
		s.reply(ctx, ev, imageErrorText)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			fmt.Printf("[Router] Temp file cleanup failed: %v\n", err)
		}
	}()

	style := s.styleFor(ctx, ev.ChatID)
	recent := s.history.Recent(ev.ChatID, s.promptHistory)
	prompt := s.imagePrompts.Build(style, recent, ev.SenderName, ev.Caption, true)

	result, err := s.completion.GenerateWithImage(ctx, prompt, path)
	if err != nil {
		fmt.Printf("[Router] Vision completion failed for chat %s: %v\n", ev.ChatID, err)
		s.reply(ctx, ev, imageErrorText)
		return
	}
	// A mid-stream block still yields whatever text made it through.
	if result.Text != "" {
		s.recordBotReply(ev.ChatID, result.Text)
		s.reply(ctx, ev, result.Text)
		return
	}
	failed := imageFailedText
	if result.WasBlocked {
		failed += imageBlockedText
	}
	s.reply(ctx, ev, failed)
}

// HandleMembership greets the chat when the bot is added to it
func (s *RouterService) HandleMembership(ctx context.Context, chatID string, addedBot bool) {
	if !addedBot {
		return
	}
	greeting := fmt.Sprintf("Hi, I'm %s! Mention me or use a trigger word and I'll join the conversation.\n\n%s", s.botName, helpText)
	if err := s.messenger.Send(ctx, chatID, greeting, 0); err != nil {
		fmt.Printf("[Router] Greeting failed for chat %s: %v\n", chatID, err)
	}
}

func (s *RouterService) styleFor(ctx context.Context, chatID string) string {
	style, err := s.sessions.Style(ctx, chatID)
	if err != nil {
		fmt.Printf("[Router] Style lookup failed for chat %s: %v\n", chatID, err)
		return ""
	}
	return style
}

func (s *RouterService) record(ev *InboundEvent, text string) {
	msg := &domain.Message{
		ID:        ev.MessageID,
		ChatID:    ev.ChatID,
		From:      ev.SenderName,
		FromID:    ev.SenderID,
		IsBot:     ev.SenderIsBot,
		Text:      text,
		ReplyToID: ev.ReplyToID,
	}
	if ev.PhotoFileID != "" {
		msg.MediaKind = "photo"
		msg.MediaRef = ev.PhotoFileID
	}
	if err := s.history.Record(ev.ChatID, msg); err != nil {
		fmt.Printf("[Router] Record failed for chat %s: %v\n", ev.ChatID, err)
	}
}

func (s *RouterService) recordBotReply(chatID, text string) {
	msg := &domain.Message{
		From:  s.botName,
		IsBot: true,
		Text:  text,
	}
	if err := s.history.Record(chatID, msg); err != nil {
		fmt.Printf("[Router] Record reply failed for chat %s: %v\n", chatID, err)
	}
}

// reply sends text, linking it to the inbound message in group chats so the
// addressee is unambiguous. Private chats read better without the linkage.
func (s *RouterService) reply(ctx context.Context, ev *InboundEvent, text string) {
	replyTo := int64(0)
	if ev.ChatKind == domain.ChatKindGroup {
		replyTo = ev.MessageID
	}
	if err := s.messenger.Send(ctx, ev.ChatID, text, replyTo); err != nil {
		fmt.Printf("[Router] Send failed for chat %s: %v\n", ev.ChatID, err)
	}
}

func (s *RouterService) recoverQuiet(ev *InboundEvent) {
	if r := recover(); r != nil {
		fmt.Printf("[Router] Panic handling chat %s: %v\n", ev.ChatID, r)
	}
}

func (s *RouterService) recoverApologetic(ctx context.Context, ev *InboundEvent) {
	if r := recover(); r != nil {
		fmt.Printf("[Router] Panic handling chat %s: %v\n", ev.ChatID, r)
		s.reply(ctx, ev, imageErrorText)
	}
}
