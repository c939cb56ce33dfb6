// Package session drives a live study session over the queue engine:
// initial construction, advancing after each graded card, and refreshing to
// promote time-delayed learning cards. Session states are immutable values;
// every transition derives a new state from the previous one.
package session

import (
	"time"

	"github.com/conorfennell/studydeck/internal/daily"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/options"
	"github.com/conorfennell/studydeck/internal/queue"
)

// State is one snapshot of a study session.
type State struct {
	DeckName      string // normalized; empty means all decks
	Options       options.DeckStudyOptions
	Custom        options.CustomStudy
	Daily         daily.State
	Queue         []domain.QueueEntry
	Build         queue.BuildResult
	ReviewedCount int
	Streak        EasyStreak

	// NextPendingLearningDueAt is the instant the earliest not-yet-due
	// learning card becomes available; callers arm a refresh timer for it.
	NextPendingLearningDueAt time.Time
	HasPendingLearning       bool
}

// CreateArgs are the inputs for building a session snapshot.
type CreateArgs struct {
	Cards         []domain.Card
	DeckName      string
	Now           time.Time
	Options       options.DeckStudyOptions
	Custom        options.CustomStudy
	Daily         daily.State
	ReviewedCount int
	Streak        EasyStreak
}

// Create builds a session snapshot: it normalizes the deck scope, applies
// the lazy day-rollover rule to the daily counters, composes the queue, and
// finds the next pending-learning instant.
func Create(args CreateArgs) State {
	deckName := options.NormalizeDeckName(args.DeckName)

	dailyState := args.Daily
	if !dailyState.IsFreshFor(args.Now) {
		dailyState = daily.Empty(deckName, args.Now)
	}

	build := queue.Compose(queue.Args{
		Cards:    args.Cards,
		DeckName: deckName,
		Now:      args.Now,
		Options:  args.Options,
		Daily:    dailyState,
		Custom:   args.Custom,
	})

	pendingAt, hasPending := queue.NextPendingLearningDueAt(args.Cards, deckName, args.Now)

	return State{
		DeckName:                 deckName,
		Options:                  args.Options,
		Custom:                   args.Custom,
		Daily:                    dailyState,
		Queue:                    build.Entries,
		Build:                    build,
		ReviewedCount:            args.ReviewedCount,
		Streak:                   args.Streak,
		NextPendingLearningDueAt: pendingAt,
		HasPendingLearning:       hasPending,
	}
}

// Advance moves the session past a just-graded card: it credits the card's
// lane against the daily counters (learning lanes credit neither), folds the
// grade into the easy streak, then rebuilds the whole session from the
// updated card set. A card id that is no longer in the queue credits
// nothing but still rebuilds, favoring forward progress over strict
// validation.
func Advance(state State, cards []domain.Card, currentCardID string, rating domain.ReviewRating, now time.Time) State {
	entry, found := findEntry(state.Queue, currentCardID)

	nextDaily := state.Daily
	nextStreak := state.Streak
	if found {
		nextDaily = creditLane(nextDaily, entry.Lane)
		nextStreak = AdvanceStreak(nextStreak, rating)
	}

	return Create(CreateArgs{
		Cards:         cards,
		DeckName:      state.DeckName,
		Now:           now,
		Options:       state.Options,
		Custom:        state.Custom,
		Daily:         nextDaily,
		ReviewedCount: state.ReviewedCount + 1,
		Streak:        nextStreak,
	})
}

// Refresh rebuilds the session against the current card set and instant,
// without crediting any counter. Used when card data changes externally and
// when the pending-learning timer fires.
func Refresh(state State, cards []domain.Card, now time.Time) State {
	return Create(CreateArgs{
		Cards:         cards,
		DeckName:      state.DeckName,
		Now:           now,
		Options:       state.Options,
		Custom:        state.Custom,
		Daily:         state.Daily,
		ReviewedCount: state.ReviewedCount,
		Streak:        state.Streak,
	})
}

// HasWork reports whether anything remains: a non-empty queue or a learning
// card that will become due. False signals session complete.
func HasWork(state State) bool {
	return len(state.Queue) > 0 || state.HasPendingLearning
}

// Current returns the head of the queue, the card to present next.
func Current(state State) (domain.QueueEntry, bool) {
	if len(state.Queue) == 0 {
		return domain.QueueEntry{}, false
	}
	return state.Queue[0], true
}

func findEntry(entries []domain.QueueEntry, cardID string) (domain.QueueEntry, bool) {
	if len(entries) > 0 && entries[0].CardID == cardID {
		return entries[0], true
	}
	for _, entry := range entries {
		if entry.CardID == cardID {
			return entry, true
		}
	}
	return domain.QueueEntry{}, false
}

func creditLane(state daily.State, lane domain.StudyLane) daily.State {
	switch {
	case lane.CountsAgainstNewBudget():
		state.NewShown++
	case lane.CountsAgainstReviewBudget():
		state.ReviewShown++
	}
	return state
}
