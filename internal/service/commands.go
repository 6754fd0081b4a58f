package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
	"github.com/chuvashini/companion-bot/internal/biz/usecase"
)

const helpText = `Commands:
/start - introduce the bot
/help - show this message
/add_trigger <word> - add a trigger word for this chat
/remove_trigger <word> - remove a trigger word
/list_triggers - show active trigger words
/style <text> - set a persona override for this chat
/set_instructions <text> - replace the system instructions
/show_history - show the stored chat log
/clear_history - wipe the stored chat log
/summarize_today - digest of today's messages
/summarize_hours <n> - digest of the last n hours
/summarize_date <YYYY-MM-DD> - digest for a calendar day`

// CommandService handles the slash-command surface
type CommandService struct {
	matcher    *usecase.MatcherUsecase
	history    *usecase.HistoryUsecase
	summaries  *usecase.SummaryUsecase
	sessions   repo.SessionRepo
	completion repo.CompletionRepo
	messenger  repo.MessengerRepo

	botName      string
	summaryStyle string
	now          func() time.Time
}

// NewCommandService creates a new command service
func NewCommandService(
	matcher *usecase.MatcherUsecase,
	history *usecase.HistoryUsecase,
	summaries *usecase.SummaryUsecase,
	sessions repo.SessionRepo,
	completion repo.CompletionRepo,
	messenger repo.MessengerRepo,
	botName string,
	summaryStyle string,
) *CommandService {
	return &CommandService{
		matcher:      matcher,
		history:      history,
		summaries:    summaries,
		sessions:     sessions,
		completion:   completion,
		messenger:    messenger,
		botName:      botName,
		summaryStyle: summaryStyle,
		now:          time.Now,
	}
}

// HandleCommand dispatches one slash command
func (s *CommandService) HandleCommand(ctx context.Context, ev *InboundEvent) {
	switch ev.Command {
	case "start":
		s.send(ctx, ev, fmt.Sprintf("Hi, I'm %s! Mention me or use a trigger word and I'll join the conversation.\n\n%s", s.botName, helpText))
	case "help":
		s.send(ctx, ev, helpText)
	case "add_trigger":
		s.addTrigger(ctx, ev)
	case "remove_trigger":
		s.removeTrigger(ctx, ev)
	case "list_triggers":
		s.listTriggers(ctx, ev)
	case "style":
		s.setStyle(ctx, ev)
	case "set_instructions":
		s.setInstructions(ctx, ev)
	case "show_history":
		s.showHistory(ctx, ev)
	case "clear_history":
		s.clearHistory(ctx, ev)
	case "summarize_today":
		s.summarize(ctx, ev, s.history.WindowToday(ev.ChatID, s.now()))
	case "summarize_hours":
		s.summarizeHours(ctx, ev)
	case "summarize_date":
		s.summarizeDate(ctx, ev)
	default:
		// Unknown commands are ignored; other bots in a group chat have
		// their own command namespaces.
	}
}

func (s *CommandService) addTrigger(ctx context.Context, ev *InboundEvent) {
	if len(ev.Args) == 0 {
		s.send(ctx, ev, "Usage: /add_trigger <word>")
		return
	}
	set, err := s.matcher.AddTrigger(ctx, ev.ChatID, ev.Args[0])
	if err != nil {
		fmt.Printf("[Command] add_trigger failed for chat %s: %v\n", ev.ChatID, err)
		s.send(ctx, ev, "Couldn't save the trigger word, try again later.")
		return
	}
	s.send(ctx, ev, fmt.Sprintf("Added trigger %q. Active triggers: %s", strings.ToLower(ev.Args[0]), strings.Join(set.Words(), ", ")))
}

func (s *CommandService) removeTrigger(ctx context.Context, ev *InboundEvent) {
	if len(ev.Args) == 0 {
		s.send(ctx, ev, "Usage: /remove_trigger <word>")
		return
	}
	set, removed, err := s.matcher.RemoveTrigger(ctx, ev.ChatID, ev.Args[0])
	if err != nil {
		fmt.Printf("[Command] remove_trigger failed for chat %s: %v\n", ev.ChatID, err)
		s.send(ctx, ev, "Couldn't remove the trigger word, try again later.")
		return
	}
	if !removed {
		s.send(ctx, ev, fmt.Sprintf("%q is not an active trigger.", strings.ToLower(ev.Args[0])))
		return
	}
	words := set.Words()
	if len(words) == 0 {
		s.send(ctx, ev, "Trigger removed. No trigger words remain; I'll only answer mentions and replies.")
		return
	}
	s.send(ctx, ev, "Trigger removed. Active triggers: "+strings.Join(words, ", "))
}

func (s *CommandService) listTriggers(ctx context.Context, ev *InboundEvent) {
	words := s.matcher.EffectiveTriggers(ctx, ev.ChatID).Words()
	if len(words) == 0 {
		s.send(ctx, ev, "No trigger words are active; I only answer mentions and replies.")
		return
	}
	s.send(ctx, ev, "Active triggers: "+strings.Join(words, ", "))
}

func (s *CommandService) setStyle(ctx context.Context, ev *InboundEvent) {
	if len(ev.Args) == 0 {
		s.send(ctx, ev, "Usage: /style <persona text>")
		return
	}
	style := strings.Join(ev.Args, " ")
	if err := s.sessions.SaveStyle(ctx, ev.ChatID, style); err != nil {
		fmt.Printf("[Command] style failed for chat %s: %v\n", ev.ChatID, err)
		s.send(ctx, ev, "Couldn't save the style, try again later.")
		return
	}
	s.send(ctx, ev, "Style updated for this chat.")
}

func (s *CommandService) setInstructions(ctx context.Context, ev *InboundEvent) {
	if len(ev.Args) == 0 {
		s.send(ctx, ev, "Usage: /set_instructions <text>")
		return
	}
	text := strings.Join(ev.Args, " ")
	if err := s.sessions.SaveInstructions(ctx, text); err != nil {
		fmt.Printf("[Command] set_instructions persist failed: %v\n", err)
		s.send(ctx, ev, "Couldn't save the instructions, try again later.")
		return
	}
	s.completion.SetSystemInstructions(text)
	s.send(ctx, ev, "System instructions updated.")
}

func (s *CommandService) showHistory(ctx context.Context, ev *InboundEvent) {
	messages := s.history.All(ev.ChatID)
	if len(messages) == 0 {
		s.send(ctx, ev, "The chat log is empty.")
		return
	}
	var sb strings.Builder
	sb.WriteString("Chat log:\n\n")
	for _, m := range messages {
		sender := m.SenderLabel()
		if m.IsBot {
			sender = "Bot"
		}
		sb.WriteString(fmt.Sprintf("%s %s:\n%s\n\n", m.CreatedAt().Format("2006-01-02 15:04:05"), sender, m.Text))
	}
	s.send(ctx, ev, strings.TrimRight(sb.String(), "\n"))
}

func (s *CommandService) clearHistory(ctx context.Context, ev *InboundEvent) {
	if err := s.history.Clear(ev.ChatID); err != nil {
		fmt.Printf("[Command] clear_history failed for chat %s: %v\n", ev.ChatID, err)
		s.send(ctx, ev, "Couldn't clear the chat log, try again later.")
		return
	}
	s.send(ctx, ev, "Chat log cleared.")
}

func (s *CommandService) summarizeHours(ctx context.Context, ev *InboundEvent) {
	if len(ev.Args) == 0 {
		s.send(ctx, ev, "Usage: /summarize_hours <hours>")
		return
	}
	hours, err := strconv.ParseFloat(ev.Args[0], 64)
	if err != nil || hours <= 0 {
		s.send(ctx, ev, "Usage: /summarize_hours <hours>")
		return
	}
	s.summarize(ctx, ev, s.history.WindowHours(ev.ChatID, hours, s.now()))
}

func (s *CommandService) summarizeDate(ctx context.Context, ev *InboundEvent) {
	if len(ev.Args) == 0 {
		s.send(ctx, ev, "Usage: /summarize_date <YYYY-MM-DD>")
		return
	}
	day, err := time.Parse("2006-01-02", ev.Args[0])
	if err != nil {
		s.send(ctx, ev, "Usage: /summarize_date <YYYY-MM-DD>")
		return
	}
	s.summarize(ctx, ev, s.history.WindowDate(ev.ChatID, day))
}

func (s *CommandService) summarize(ctx context.Context, ev *InboundEvent, batch []domain.Message) {
	s.send(ctx, ev, "Analyzing the conversation, one moment...")

	opts := usecase.DefaultSummaryOptions()
	opts.Style = s.summaryStyle
	s.send(ctx, ev, s.summaries.Generate(ctx, batch, opts))
}

func (s *CommandService) send(ctx context.Context, ev *InboundEvent, text string) {
	if err := s.messenger.Send(ctx, ev.ChatID, text, 0); err != nil {
		fmt.Printf("[Command] Send failed for chat %s: %v\n", ev.ChatID, err)
	}
}
