package repo

import "context"

// CompletionResult is the outcome of a generation request. Text may be
// non-empty even when the stream was cut short; Partial marks that case.
type CompletionResult struct {
	Text         string
	FinishReason string
	BlockReason  string
	WasBlocked   bool
	Partial      bool
}

// CompletionRepo is the generative backend interface
type CompletionRepo interface {
	// GenerateText runs a text completion with bounded retries
	GenerateText(ctx context.Context, prompt string) (*CompletionResult, error)

	// GenerateWithImage runs a vision completion for the image at path,
	// streaming the response and accumulating partial text
	GenerateWithImage(ctx context.Context, prompt, imagePath string) (*CompletionResult, error)

	// SetSystemInstructions replaces the model's system instructions
	SetSystemInstructions(text string)

	// SystemInstructions returns the current system instructions
	SystemInstructions() string
}
