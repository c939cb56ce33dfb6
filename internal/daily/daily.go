// Package daily tracks per-(deck, calendar-day) study consumption: how many
// new and review cards were served today plus today-only custom-study
// deltas. There is no reset job; a record whose day stamp is not today's is
// stale and replaced with a fresh zeroed record on read.
package daily

import (
	"time"

	"github.com/conorfennell/studydeck/internal/day"
	"github.com/conorfennell/studydeck/internal/options"
)

// State is one day's counters for a deck scope.
type State struct {
	DeckName          string // normalized; empty means all decks
	DayStamp          string
	NewShown          int
	ReviewShown       int
	CustomNewDelta    int
	CustomReviewDelta int
	LastResetAt       time.Time
}

// IsFreshFor reports whether the state belongs to the calendar day of now.
// A stale state must be replaced, never read through.
func (s State) IsFreshFor(now time.Time) bool {
	return s.DayStamp == day.ToLocalDayStamp(now)
}

// Record is a raw daily-state row as loaded from storage; nil fields are
// absent and default to zero.
type Record struct {
	ID                string
	DeckName          *string
	DayStamp          *string
	NewShown          *int
	ReviewShown       *int
	CustomNewDelta    *int
	CustomReviewDelta *int
	LastResetAt       *time.Time
}

// Empty returns a zeroed state stamped to the day of now.
func Empty(deckName string, now time.Time) State {
	return emptyWithStamp(deckName, now, day.ToLocalDayStamp(now))
}

func emptyWithStamp(deckName string, now time.Time, dayStamp string) State {
	return State{
		DeckName:    options.NormalizeDeckName(deckName),
		DayStamp:    dayStamp,
		LastResetAt: now,
	}
}

// Parse returns the state carried by a raw record, or a fresh empty state
// when the record is absent or stamped to a different day (the lazy-reset
// rule: stale counters never leak into a new day). Counter fields default
// defensively: shown counts to non-negative ints, deltas to signed ints.
func Parse(record *Record, deckName string, now time.Time) State {
	expectedStamp := day.ToLocalDayStamp(now)
	if record == nil {
		return emptyWithStamp(deckName, now, expectedStamp)
	}

	recordStamp := expectedStamp
	if record.DayStamp != nil && *record.DayStamp != "" {
		recordStamp = *record.DayStamp
	}
	if recordStamp != expectedStamp {
		return emptyWithStamp(deckName, now, expectedStamp)
	}

	state := emptyWithStamp(deckName, now, recordStamp)
	state.NewShown = nonNegative(record.NewShown)
	state.ReviewShown = nonNegative(record.ReviewShown)
	state.CustomNewDelta = orZero(record.CustomNewDelta)
	state.CustomReviewDelta = orZero(record.CustomReviewDelta)
	if record.LastResetAt != nil {
		state.LastResetAt = *record.LastResetAt
	}
	return state
}

// ApplyCustomOverrides adds the custom-study limit additions onto the
// state's deltas. The function is additive, not idempotent: callers must
// apply it at most once per session (the study start handler guards this).
func ApplyCustomOverrides(state State, custom options.CustomStudy) State {
	state.CustomNewDelta += custom.AddNewCards
	state.CustomReviewDelta += custom.AddReviewCards
	return state
}

// IsRecordForDeck reports whether a raw record belongs to the deck scope.
// An absent or global-scope record matches an absent target deck.
func IsRecordForDeck(record Record, deckName string) bool {
	recordDeck := ""
	if record.DeckName != nil {
		recordDeck = options.NormalizeDeckName(*record.DeckName)
	}
	target := options.NormalizeDeckName(deckName)

	if target == "" {
		return recordDeck == "" || recordDeck == options.GlobalDeckScope
	}
	return recordDeck == target
}

func nonNegative(value *int) int {
	if value == nil || *value < 0 {
		return 0
	}
	return *value
}

func orZero(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}
