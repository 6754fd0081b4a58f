package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/infra/telegram"
	"github.com/chuvashini/companion-bot/internal/service"
)

// TelegramServer consumes the long-poll update stream and hands each
// update to the router or the command service
type TelegramServer struct {
	client    *telegram.Client
	router    *service.RouterService
	commands  *service.CommandService
	scheduler *service.DigestScheduler

	pollTimeout int
	done        chan struct{}
}

// NewTelegramServer creates a new Telegram server
func NewTelegramServer(
	client *telegram.Client,
	router *service.RouterService,
	commands *service.CommandService,
	scheduler *service.DigestScheduler,
	pollTimeout int,
) *TelegramServer {
	return &TelegramServer{
		client:      client,
		router:      router,
		commands:    commands,
		scheduler:   scheduler,
		pollTimeout: pollTimeout,
		done:        make(chan struct{}),
	}
}

// Start starts the scheduler and the update loop. Blocks until Stop.
// The done channel is closed on every exit path so Stop never hangs.
func (s *TelegramServer) Start() error {
	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			close(s.done)
			return err
		}
	}

	updates := s.client.Updates(s.pollTimeout)
	fmt.Println("[Server] Listening for updates")
	for update := range updates {
		s.handleUpdate(update)
	}
	close(s.done)
	return nil
}

// Stop stops the update loop and the scheduler
func (s *TelegramServer) Stop() {
	s.client.StopUpdates()
	<-s.done
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *TelegramServer) handleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	ev := s.buildEvent(msg)
	ctx := context.Background()

	switch {
	case len(msg.NewChatMembers) > 0:
		go s.router.HandleMembership(ctx, ev.ChatID, s.addedSelf(msg.NewChatMembers))
	case msg.IsCommand():
		ev.Command = msg.Command()
		if args := strings.TrimSpace(msg.CommandArguments()); args != "" {
			ev.Args = strings.Fields(args)
		}
		go s.commands.HandleCommand(ctx, ev)
	case len(msg.Photo) > 0:
		// Telegram sends several sizes of the same photo; the last one is
		// the largest.
		ev.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
		ev.Caption = msg.Caption
		go s.router.HandleImage(ctx, ev)
	case msg.Text != "":
		go s.router.HandleText(ctx, ev)
	}
}

func (s *TelegramServer) buildEvent(msg *tgbotapi.Message) *service.InboundEvent {
	ev := &service.InboundEvent{
		ChatID:    strconv.FormatInt(msg.Chat.ID, 10),
		ChatKind:  domain.ChatKindGroup,
		MessageID: int64(msg.MessageID),
		Text:      msg.Text,
	}
	if msg.Chat.IsPrivate() {
		ev.ChatKind = domain.ChatKindPrivate
	}
	if from := msg.From; from != nil {
		ev.SenderName = senderName(from)
		ev.SenderID = strconv.FormatInt(from.ID, 10)
		ev.SenderIsBot = from.IsBot
	}
	if reply := msg.ReplyToMessage; reply != nil {
		ev.ReplyToID = int64(reply.MessageID)
		ev.IsReplyToBot = reply.From != nil && reply.From.ID == s.client.BotID()
	}
	return ev
}

func (s *TelegramServer) addedSelf(members []tgbotapi.User) bool {
	for _, m := range members {
		if m.ID == s.client.BotID() {
			return true
		}
	}
	return false
}

func senderName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	if u.FirstName != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return domain.UnknownSender
}
