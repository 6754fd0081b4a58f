package data

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// OpenAIConfig contains configuration for an OpenAI-compatible backend
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	Instructions string
	Timeout      time.Duration
	MaxAttempts  int
}

// openaiRepo implements the Completion repository over any
// OpenAI-compatible chat completion endpoint
type openaiRepo struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	maxAttempts int

	mu           sync.RWMutex
	instructions string
}

// NewOpenAIRepo creates a new OpenAI-compatible Completion repository
func NewOpenAIRepo(cfg OpenAIConfig) repo.CompletionRepo {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &openaiRepo{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		timeout:      cfg.Timeout,
		maxAttempts:  cfg.MaxAttempts,
		instructions: cfg.Instructions,
	}
}

// SetSystemInstructions replaces the system message sent with each request
func (r *openaiRepo) SetSystemInstructions(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instructions = text
}

// SystemInstructions returns the current system instructions
func (r *openaiRepo) SystemInstructions() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instructions
}

// GenerateText runs a text completion with bounded retries
func (r *openaiRepo) GenerateText(ctx context.Context, prompt string) (*repo.CompletionResult, error) {
	return r.generate(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
}

// GenerateWithImage runs a vision completion with the image attached as a
// data URL. OpenAI-compatible endpoints report blocked content through the
// content_filter finish reason rather than streamed block metadata.
func (r *openaiRepo) GenerateWithImage(ctx context.Context, prompt, imagePath string) (*repo.CompletionResult, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)

	return r.generate(ctx, []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
			},
		},
	})
}

func (r *openaiRepo) generate(ctx context.Context, messages []openai.ChatCompletionMessage) (*repo.CompletionResult, error) {
	if instructions := r.SystemInstructions(); instructions != "" {
		messages = append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
		}, messages...)
	}

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, err := r.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model:       r.model,
			Messages:    messages,
			Temperature: 1.0,
			MaxTokens:   1000,
		})
		cancel()

		if err == nil {
			if len(resp.Choices) == 0 {
				return nil, fmt.Errorf("no response choices")
			}
			choice := resp.Choices[0]
			return &repo.CompletionResult{
				Text:         choice.Message.Content,
				FinishReason: string(choice.FinishReason),
				WasBlocked:   choice.FinishReason == openai.FinishReasonContentFilter,
			}, nil
		}

		lastErr = err
		fmt.Printf("[OpenAI] Attempt %d/%d failed: %v\n", attempt+1, r.maxAttempts, err)
		if attempt < r.maxAttempts-1 {
			backoff(ctx, attempt)
		}
	}
	return nil, fmt.Errorf("completion failed after %d attempts: %w", r.maxAttempts, lastErr)
}
