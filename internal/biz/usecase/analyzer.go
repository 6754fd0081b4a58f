package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chuvashini/companion-bot/internal/biz/domain"
)

// AnalyzerUsecase produces chat statistics used to ground summary prompts
type AnalyzerUsecase struct{}

// NewAnalyzerUsecase creates a new analyzer usecase
func NewAnalyzerUsecase() *AnalyzerUsecase {
	return &AnalyzerUsecase{}
}

const (
	topWordCount  = 10
	topHourCount  = 5
	topPairCount  = 5
	minWordLength = 4
)

var stopWords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "have": {}, "what": {},
	"your": {}, "just": {}, "like": {}, "about": {}, "there": {},
	"когда": {}, "только": {}, "это": {}, "чтобы": {}, "если": {},
}

// Analyze runs a single statistics pass over a message batch. Replies are
// resolved through an id index built once per batch.
func (uc *AnalyzerUsecase) Analyze(messages []domain.Message) *domain.ChatAnalysis {
	analysis := &domain.ChatAnalysis{
		TotalMessages: len(messages),
		Senders:       make(map[string]*domain.SenderActivity),
	}
	if len(messages) == 0 {
		return analysis
	}

	senderByID := make(map[int64]string, len(messages))
	for _, m := range messages {
		senderByID[m.ID] = m.SenderLabel()
	}

	hourActivity := make(map[string]int)
	wordFrequency := make(map[string]int)
	interactions := make(map[[2]string]int)

	for _, m := range messages {
		label := m.SenderLabel()
		ts := m.CreatedAt()

		stats := analysis.Senders[label]
		if stats == nil {
			stats = &domain.SenderActivity{}
			analysis.Senders[label] = stats
		}
		stats.MessageCount++
		stats.TotalLength += len([]rune(m.Text))
		if stats.FirstMessage.IsZero() || ts.Before(stats.FirstMessage) {
			stats.FirstMessage = ts
		}
		if ts.After(stats.LastMessage) {
			stats.LastMessage = ts
		}

		if m.ReplyToID != 0 {
			if target, ok := senderByID[m.ReplyToID]; ok {
				stats.RepliesSent++
				targetStats := analysis.Senders[target]
				if targetStats == nil {
					targetStats = &domain.SenderActivity{}
					analysis.Senders[target] = targetStats
				}
				targetStats.RepliesReceived++
				interactions[[2]string{label, target}]++
			}
		}

		hourActivity[ts.Format("15:00")]++

		for _, word := range strings.Fields(strings.ToLower(m.Text)) {
			wordFrequency[word]++
		}
	}

	first := messages[0].CreatedAt()
	last := messages[len(messages)-1].CreatedAt()
	analysis.DurationHours = last.Sub(first).Hours()

	analysis.TopWords = topWords(wordFrequency)
	analysis.BusiestHours = topHours(hourActivity)
	analysis.ReplyPairs = topPairs(interactions)

	return analysis
}

func topWords(freq map[string]int) []domain.WordCount {
	var words []domain.WordCount
	for word, count := range freq {
		if _, skip := stopWords[word]; skip {
			continue
		}
		if len([]rune(word)) < minWordLength {
			continue
		}
		words = append(words, domain.WordCount{Word: word, Count: count})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if len(words) > topWordCount {
		words = words[:topWordCount]
	}
	return words
}

func topHours(activity map[string]int) []domain.HourCount {
	var hours []domain.HourCount
	for hour, count := range activity {
		hours = append(hours, domain.HourCount{Hour: hour, Count: count})
	}
	sort.Slice(hours, func(i, j int) bool {
		if hours[i].Count != hours[j].Count {
			return hours[i].Count > hours[j].Count
		}
		return hours[i].Hour < hours[j].Hour
	})
	if len(hours) > topHourCount {
		hours = hours[:topHourCount]
	}
	return hours
}

func topPairs(interactions map[[2]string]int) []domain.PairCount {
	var pairs []domain.PairCount
	for pair, count := range interactions {
		pairs = append(pairs, domain.PairCount{From: pair[0], To: pair[1], Count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].From != pairs[j].From {
			return pairs[i].From < pairs[j].From
		}
		return pairs[i].To < pairs[j].To
	})
	if len(pairs) > topPairCount {
		pairs = pairs[:topPairCount]
	}
	return pairs
}

// Describe renders an analysis as deterministic text. Used as grounding
// context in summary prompts and as the degraded output when the
// completion service fails.
func (uc *AnalyzerUsecase) Describe(analysis *domain.ChatAnalysis) string {
	var sb strings.Builder

	if analysis.DurationHours > 0 {
		sb.WriteString(fmt.Sprintf("Over %s, %d messages were sent.\n",
			formatDuration(analysis.DurationHours), analysis.TotalMessages))
	} else {
		sb.WriteString(fmt.Sprintf("%d messages in total.\n", analysis.TotalMessages))
	}

	if top := uc.rankedSenders(analysis); len(top) > 0 {
		sb.WriteString("\nMost active participants:\n")
		if len(top) > 3 {
			top = top[:3]
		}
		for _, label := range top {
			stats := analysis.Senders[label]
			sb.WriteString(fmt.Sprintf("- %s: %d messages (%d replies sent, %d received)\n",
				label, stats.MessageCount, stats.RepliesSent, stats.RepliesReceived))
		}
	}

	if len(analysis.TopWords) > 0 {
		sb.WriteString("\nFrequent topics:\n")
		for _, wc := range analysis.TopWords {
			if wc.Count < 2 {
				continue
			}
			sb.WriteString(fmt.Sprintf("- %s: mentioned %d times\n", wc.Word, wc.Count))
		}
	}

	if len(analysis.BusiestHours) > 0 {
		sb.WriteString("\nBusiest hours:\n")
		hours := analysis.BusiestHours
		if len(hours) > 3 {
			hours = hours[:3]
		}
		for _, hc := range hours {
			sb.WriteString(fmt.Sprintf("- %s: %d messages\n", hc.Hour, hc.Count))
		}
	}

	if len(analysis.ReplyPairs) > 0 {
		sb.WriteString("\nActive exchanges:\n")
		pairs := analysis.ReplyPairs
		if len(pairs) > 3 {
			pairs = pairs[:3]
		}
		for _, pc := range pairs {
			sb.WriteString(fmt.Sprintf("- %s -> %s: %d replies\n", pc.From, pc.To, pc.Count))
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// SenderPatterns classifies each sender's behavior for the summary prompt
func (uc *AnalyzerUsecase) SenderPatterns(analysis *domain.ChatAnalysis) map[string]string {
	patterns := make(map[string]string, len(analysis.Senders))
	for label, stats := range analysis.Senders {
		var traits []string

		switch {
		case stats.MessageCount > 20:
			traits = append(traits, "very active")
		case stats.MessageCount > 10:
			traits = append(traits, "regular participant")
		default:
			traits = append(traits, "occasional participant")
		}

		switch avg := stats.AverageLength(); {
		case avg > 100:
			traits = append(traits, "writes long messages")
		case avg < 20 && avg > 0:
			traits = append(traits, "writes briefly")
		}

		if stats.RepliesSent > stats.RepliesReceived {
			traits = append(traits, "actively replies to others")
		} else if stats.RepliesReceived > stats.RepliesSent {
			traits = append(traits, "draws many replies")
		}

		patterns[label] = strings.Join(traits, ", ")
	}
	return patterns
}

func (uc *AnalyzerUsecase) rankedSenders(analysis *domain.ChatAnalysis) []string {
	labels := make([]string, 0, len(analysis.Senders))
	for label := range analysis.Senders {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := analysis.Senders[labels[i]], analysis.Senders[labels[j]]
		if a.MessageCount != b.MessageCount {
			return a.MessageCount > b.MessageCount
		}
		return labels[i] < labels[j]
	})
	return labels
}

func formatDuration(hours float64) string {
	switch {
	case hours < 1:
		return fmt.Sprintf("%d minutes", int(hours*60))
	case hours < 24:
		return fmt.Sprintf("%d hours", int(hours))
	default:
		return fmt.Sprintf("%d days", int(hours/24))
	}
}
