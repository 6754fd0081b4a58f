package domain

import "time"

// SenderActivity holds per-sender statistics for one analyzed batch
type SenderActivity struct {
	MessageCount    int
	TotalLength     int
	RepliesSent     int
	RepliesReceived int
	FirstMessage    time.Time
	LastMessage     time.Time
}

// AverageLength returns the mean message length in runes
func (a *SenderActivity) AverageLength() int {
	if a.MessageCount == 0 {
		return 0
	}
	return a.TotalLength / a.MessageCount
}

// WordCount is a word with its occurrence count
type WordCount struct {
	Word  string
	Count int
}

// HourCount is an hour bucket ("15:00") with its message count
type HourCount struct {
	Hour  string
	Count int
}

// PairCount is a pair of senders with the number of replies between them
type PairCount struct {
	From  string
	To    string
	Count int
}

// ChatAnalysis is the result of a statistics pass over one message batch
type ChatAnalysis struct {
	TotalMessages int
	Senders       map[string]*SenderActivity
	DurationHours float64
	TopWords      []WordCount
	BusiestHours  []HourCount
	ReplyPairs    []PairCount
}
