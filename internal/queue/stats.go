package queue

import (
	"time"

	"github.com/conorfennell/studydeck/internal/day"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/options"
)

// OverviewCounts summarizes a deck for the overview screen: total new cards,
// learning cards currently due, and review cards currently due.
type OverviewCounts struct {
	NewCount       int
	LearningCount  int
	ReviewDueCount int
}

// Overview counts the eligible cards of a deck scope by lifecycle stage.
func Overview(cards []domain.Card, deckName string, now time.Time) OverviewCounts {
	normalized := options.NormalizeDeckName(deckName)
	localDayNumber := day.ToLocalDayNumber(now)

	var counts OverviewCounts
	for _, card := range cards {
		if !inDeck(card, normalized) || card.IsSuspended || isBuriedToday(card, localDayNumber) {
			continue
		}

		switch {
		case card.ReviewState == domain.StateNew:
			counts.NewCount++
		case card.ReviewState.IsLearning():
			if !card.DueAt.After(now) {
				counts.LearningCount++
			}
		case card.ReviewState == domain.StateReview && !card.DueAt.After(now):
			counts.ReviewDueCount++
		}
	}
	return counts
}
