package insight

import (
	"context"
	"strings"
)

// Mood is the coarse polarity bucket the aggregator reports.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNegative Mood = "negative"
	MoodNeutral  Mood = "neutral"
)

// SentimentAnalyzer classifies user text into a mood bucket. The keyword
// heuristic is the default implementation; richer backends plug in behind
// the same interface without touching the aggregator.
type SentimentAnalyzer interface {
	Classify(ctx context.Context, texts []string) (Mood, error)
}

// KeywordAnalyzer infers mood by polarity counting: positive-word hits
// minus negative-word hits across the supplied texts.
type KeywordAnalyzer struct {
	positive []string
	negative []string
}

// NewKeywordAnalyzer creates the default keyword-based analyzer.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{
		positive: []string{
			"great", "good", "happy", "excited", "productive", "accomplished",
			"motivated", "energized", "focused", "progress", "win", "done",
			"proud", "confident", "awesome",
		},
		negative: []string{
			"tired", "stressed", "stuck", "frustrated", "overwhelmed", "anxious",
			"behind", "failed", "worried", "exhausted", "procrastinating",
			"distracted", "bad", "hard", "blocked",
		},
	}
}

// Classify counts keyword hits across all texts.
func (a *KeywordAnalyzer) Classify(_ context.Context, texts []string) (Mood, error) {
	score := 0
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, word := range a.positive {
			if strings.Contains(lower, word) {
				score++
			}
		}
		for _, word := range a.negative {
			if strings.Contains(lower, word) {
				score--
			}
		}
	}

	switch {
	case score > 0:
		return MoodPositive, nil
	case score < 0:
		return MoodNegative, nil
	default:
		return MoodNeutral, nil
	}
}
