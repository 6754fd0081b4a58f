package data

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// GeminiConfig contains Gemini client configuration
type GeminiConfig struct {
	APIKey       string
	Model        string
	Instructions string
	Timeout      time.Duration
	MaxAttempts  int
}

// geminiRepo implements the Completion repository over the Gemini API
type geminiRepo struct {
	client      *genai.Client
	model       *genai.GenerativeModel
	timeout     time.Duration
	maxAttempts int

	mu           sync.RWMutex
	instructions string
}

// NewGeminiRepo creates a new Gemini-backed Completion repository
func NewGeminiRepo(ctx context.Context, cfg GeminiConfig) (repo.CompletionRepo, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-002"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetCandidateCount(1)
	model.SetMaxOutputTokens(1000)
	model.SetTemperature(1.0)
	model.SetTopP(1.0)
	model.SetTopK(40)
	// This persona runs with all four harm categories unfiltered
	model.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}

	r := &geminiRepo{
		client:      client,
		model:       model,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
	}
	r.SetSystemInstructions(cfg.Instructions)
	return r, nil
}

// SetSystemInstructions replaces the instructions applied to subsequent
// requests. In-flight requests keep the snapshot they started with.
func (r *geminiRepo) SetSystemInstructions(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instructions = text
}

// requestModel returns a per-request copy of the model with the current
// instructions applied. The shared model is never written after
// construction, so generations racing an instruction update never touch
// the same memory.
func (r *geminiRepo) requestModel() *genai.GenerativeModel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	model := *r.model
	if r.instructions != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(r.instructions)}}
	}
	return &model
}

// SystemInstructions returns the current system instructions
func (r *geminiRepo) SystemInstructions() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instructions
}

// GenerateText runs a text completion with bounded retries
func (r *geminiRepo) GenerateText(ctx context.Context, prompt string) (*repo.CompletionResult, error) {
	model := r.requestModel()

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
		resp, err := model.GenerateContent(attemptCtx, genai.Text(prompt))
		cancel()

		if err == nil {
			result := resultFromResponse(resp)
			if result.Text != "" || !result.WasBlocked {
				return result, nil
			}
			return result, fmt.Errorf("generation blocked: %s", result.BlockReason)
		}

		lastErr = err
		fmt.Printf("[Gemini] Attempt %d/%d failed: %v\n", attempt+1, r.maxAttempts, err)
		if attempt < r.maxAttempts-1 {
			backoff(ctx, attempt)
		}
	}
	return nil, fmt.Errorf("text generation failed after %d attempts: %w", r.maxAttempts, lastErr)
}

// GenerateWithImage runs a streamed vision completion. Text accumulated
// before a block or stream error is still returned, flagged partial.
func (r *geminiRepo) GenerateWithImage(ctx context.Context, prompt, imagePath string) (*repo.CompletionResult, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image file: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		result, err := r.streamOnce(ctx, prompt, imageData)
		if result != nil && result.Text != "" {
			return result, nil
		}
		if err != nil {
			lastErr = err
			fmt.Printf("[Gemini] Vision attempt %d/%d failed: %v\n", attempt+1, r.maxAttempts, err)
			if attempt < r.maxAttempts-1 {
				backoff(ctx, attempt)
				continue
			}
			if result != nil {
				return result, err
			}
			return nil, fmt.Errorf("vision generation failed after %d attempts: %w", r.maxAttempts, lastErr)
		}
		// Empty but unblocked response; nothing more will come of retrying
		return result, nil
	}
	return nil, fmt.Errorf("vision generation failed after %d attempts: %w", r.maxAttempts, lastErr)
}

func (r *geminiRepo) streamOnce(ctx context.Context, prompt string, imageData []byte) (*repo.CompletionResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	iter := r.requestModel().GenerateContentStream(attemptCtx, genai.Text(prompt), genai.ImageData("jpeg", imageData))

	result := &repo.CompletionResult{}
	var streamErr error
	for {
		chunk, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			streamErr = err
			break
		}

		if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			result.BlockReason = chunk.PromptFeedback.BlockReason.String()
		}
		for _, cand := range chunk.Candidates {
			if cand.FinishReason != genai.FinishReasonUnspecified {
				result.FinishReason = cand.FinishReason.String()
				if blockedFinish(cand.FinishReason) {
					result.WasBlocked = true
				}
			}
			result.Text += contentText(cand.Content)
		}
	}

	if result.BlockReason != "" {
		result.WasBlocked = true
	}
	result.Partial = result.Text != "" && (result.WasBlocked || streamErr != nil)

	if streamErr != nil {
		return result, fmt.Errorf("stream: %w", streamErr)
	}
	return result, nil
}

func resultFromResponse(resp *genai.GenerateContentResponse) *repo.CompletionResult {
	result := &repo.CompletionResult{}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		result.BlockReason = resp.PromptFeedback.BlockReason.String()
		result.WasBlocked = true
	}
	for _, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonUnspecified {
			result.FinishReason = cand.FinishReason.String()
			if blockedFinish(cand.FinishReason) {
				result.WasBlocked = true
			}
		}
		result.Text += contentText(cand.Content)
	}
	return result
}

func blockedFinish(reason genai.FinishReason) bool {
	switch reason {
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return true
	}
	return false
}

func contentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var text string
	for _, part := range content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	return text
}

// backoff sleeps 2^attempt seconds, bailing early on context cancellation
func backoff(ctx context.Context, attempt int) {
	select {
	case <-time.After(time.Duration(1<<uint(attempt)) * time.Second):
	case <-ctx.Done():
	}
}
