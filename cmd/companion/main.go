package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
	"github.com/chuvashini/companion-bot/internal/biz/usecase"
	"github.com/chuvashini/companion-bot/internal/conf"
	"github.com/chuvashini/companion-bot/internal/data"
	"github.com/chuvashini/companion-bot/internal/infra/telegram"
	"github.com/chuvashini/companion-bot/internal/server"
	"github.com/chuvashini/companion-bot/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := conf.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	tgClient, err := telegram.NewClient(cfg.Telegram.Token, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create Telegram client: %v", err)
	}

	repos, err := data.NewRepositories(tgClient, cfg.History.Dir, cfg.History.MaxMessages, cfg.History.ArchivePath, cfg.Session.DBPath)
	if err != nil {
		log.Fatalf("Failed to create repositories: %v", err)
	}
	defer repos.Session.Close()

	fmt.Printf("[Companion] Session DB: %s\n", cfg.Session.DBPath)
	if cfg.History.ArchivePath != "" {
		fmt.Printf("[Companion] Bulk archive: %s\n", cfg.History.ArchivePath)
	}

	ctx := context.Background()

	// Stored instructions win over the YAML seed.
	instructions, err := repos.Session.Instructions(ctx)
	if err != nil {
		fmt.Printf("[Companion] Failed to load stored instructions: %v\n", err)
	}
	if instructions == "" {
		instructions = cfg.Personas.Instructions
	}

	completion, err := newCompletion(ctx, cfg, instructions)
	if err != nil {
		log.Fatalf("Failed to create completion backend: %v", err)
	}
	repos.Completion = completion

	// Usecase layer
	matcherUC := usecase.NewMatcherUsecase(repos.Session, domain.NewTriggerSet(cfg.DefaultTriggers...))
	historyUC := usecase.NewHistoryUsecase(repos.History, repos.Archive)
	promptUC := usecase.NewPromptBuilderUsecase(cfg.Personas.Base, cfg.Personas.SenderStyles, cfg.History.PromptLimit)
	imagePromptUC := usecase.NewPromptBuilderUsecase(cfg.Personas.Image, cfg.Personas.SenderStyles, cfg.History.PromptLimit)
	summaryUC := usecase.NewSummaryUsecase(completion, usecase.NewAnalyzerUsecase())

	// Service layer
	botName := tgClient.Username()
	routerSvc := service.NewRouterService(
		matcherUC, historyUC, promptUC, imagePromptUC,
		completion, repos.Messenger, repos.Session,
		botName, cfg.History.PromptLimit,
	)
	commandSvc := service.NewCommandService(
		matcherUC, historyUC, summaryUC,
		repos.Session, completion, repos.Messenger,
		botName, cfg.Personas.Summary,
	)

	var scheduler *service.DigestScheduler
	if cfg.Digest.Enabled() {
		scheduler = service.NewDigestScheduler(historyUC, summaryUC, repos.Messenger, cfg.Digest.CronSpec, cfg.Digest.ChatID, cfg.Personas.Summary)
	}

	srv := server.NewTelegramServer(tgClient, routerSvc, commandSvc, scheduler, cfg.Telegram.PollTimeout)

	if cfg.OwnerChatID != "" {
		if err := repos.Messenger.Send(ctx, cfg.OwnerChatID, fmt.Sprintf("%s is up and listening.", botName), 0); err != nil {
			fmt.Printf("[Companion] Startup notification failed: %v\n", err)
		}
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		srv.Stop()
	}()

	fmt.Println("Starting companion bot...")
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func newCompletion(ctx context.Context, cfg *conf.Config, instructions string) (repo.CompletionRepo, error) {
	switch cfg.Completion.Provider {
	case "openai":
		return data.NewOpenAIRepo(data.OpenAIConfig{
			APIKey:       cfg.Completion.APIKey,
			BaseURL:      cfg.Completion.BaseURL,
			Model:        cfg.Completion.Model,
			Instructions: instructions,
			Timeout:      cfg.Completion.Timeout,
			MaxAttempts:  cfg.Completion.MaxAttempts,
		}), nil
	default:
		return data.NewGeminiRepo(ctx, data.GeminiConfig{
			APIKey:       cfg.Completion.APIKey,
			Model:        cfg.Completion.Model,
			Instructions: instructions,
			Timeout:      cfg.Completion.Timeout,
			MaxAttempts:  cfg.Completion.MaxAttempts,
		})
	}
}
