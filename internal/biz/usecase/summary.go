package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
	"github.com/chuvashini/companion-bot/internal/biz/repo"
)

// NoMessagesSummary is returned when a summary window contains nothing.
// The completion service is not consulted in that case.
const NoMessagesSummary = "No messages for this period."

// SummaryOptions controls summary generation
type SummaryOptions struct {
	IncludePatterns bool
	Style           string
	MaxLength       int
}

// DefaultSummaryOptions returns the options used by the summary commands
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{IncludePatterns: true}
}

// SummaryUsecase builds chat digests from windowed history batches
type SummaryUsecase struct {
	completion repo.CompletionRepo
	analyzer   *AnalyzerUsecase
}

// NewSummaryUsecase creates a new summary usecase
func NewSummaryUsecase(completion repo.CompletionRepo, analyzer *AnalyzerUsecase) *SummaryUsecase {
	return &SummaryUsecase{completion: completion, analyzer: analyzer}
}

// Generate produces a digest for a message batch. When the completion
// service fails, the plain statistics description is returned instead.
func (uc *SummaryUsecase) Generate(ctx context.Context, messages []domain.Message, opts SummaryOptions) string {
	if len(messages) == 0 {
		return NoMessagesSummary
	}

	analysis := uc.analyzer.Analyze(messages)
	description := uc.analyzer.Describe(analysis)
	prompt := uc.buildPrompt(messages, analysis, description, opts)

	result, err := uc.completion.GenerateText(ctx, prompt)
	if err != nil || result.Text == "" {
		fmt.Printf("[Summary] Generation failed, falling back to statistics: %v\n", err)
		return description
	}
	return result.Text
}

func (uc *SummaryUsecase) buildPrompt(messages []domain.Message, analysis *domain.ChatAnalysis, description string, opts SummaryOptions) string {
	var parts []string
	parts = append(parts,
		"Analyze the chat transcript and write an informative digest of what happened.",
		"Statistics:\n"+description,
	)

	if opts.IncludePatterns {
		patterns := uc.analyzer.SenderPatterns(analysis)
		if len(patterns) > 0 {
			var lines []string
			for _, label := range uc.analyzer.rankedSenders(analysis) {
				lines = append(lines, fmt.Sprintf("- %s: %s", label, patterns[label]))
			}
			parts = append(parts, "Participant behavior:\n"+strings.Join(lines, "\n"))
		}
	}

	parts = append(parts, strings.Join([]string{
		"Requirements:",
		"1. Focus on the main topics and how the discussion developed",
		"2. Describe the role each active participant played",
		"3. Call out notable moments and interactions",
		"4. Close with a line starting \"In summary...\"",
	}, "\n"))

	if opts.Style != "" {
		parts = append(parts, "Writing style: "+opts.Style)
	}
	if opts.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("Length limit: %d characters", opts.MaxLength))
	}

	parts = append(parts, "Transcript:\n"+formatTranscript(messages))

	return strings.Join(parts, "\n\n")
}

func formatTranscript(messages []domain.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n", m.CreatedAt().Format("15:04"), m.SenderLabel(), m.Text))
	}
	return strings.TrimRight(sb.String(), "\n")
}
