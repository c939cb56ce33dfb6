package domain

import "time"

// ReviewState is a card's coarse memory-model lifecycle stage.
type ReviewState string

const (
	StateNew        ReviewState = "new"
	StateLearning   ReviewState = "learning"
	StateReview     ReviewState = "review"
	StateRelearning ReviewState = "relearning"
)

// IsValidReviewState reports whether value is one of the four lifecycle stages.
func IsValidReviewState(value string) bool {
	switch ReviewState(value) {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	}
	return false
}

// IsLearning reports whether the state is a short-term learning stage.
func (s ReviewState) IsLearning() bool {
	return s == StateLearning || s == StateRelearning
}

// ReviewRating is the user's answer grade for a card review.
type ReviewRating string

const (
	RatingAgain ReviewRating = "again"
	RatingHard  ReviewRating = "hard"
	RatingGood  ReviewRating = "good"
	RatingEasy  ReviewRating = "easy"
)

// IsValidReviewRating reports whether value is one of the four grades.
func IsValidReviewRating(value string) bool {
	switch ReviewRating(value) {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	}
	return false
}

// Card is a single flashcard. A note may yield several sibling cards
// (e.g. a reversed pair) that share a NoteID.
type Card struct {
	ID          string
	NoteID      string
	CardOrdinal int
	DeckName    string // empty means unassigned / global scope
	Title       string
	FrontText   string
	BackText    string

	IsSuspended    bool
	BuriedUntilDay *int // local day number; card hidden while today <= this

	ReviewState   ReviewState
	DueAt         time.Time
	Stability     *float64 // nil before first review
	Difficulty    *float64 // nil before first review
	ElapsedDays   float64
	ScheduledDays float64
	LearningSteps int
	Reps          int
	Lapses        int
	LastReviewAt  *time.Time // nil before first review

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewUpdate is the subset of card fields the scheduler rewrites after a
// grading event. The storage layer persists it back onto the card record.
type ReviewUpdate struct {
	ReviewState   ReviewState
	DueAt         time.Time
	Stability     *float64
	Difficulty    *float64
	ElapsedDays   float64
	ScheduledDays float64
	LearningSteps int
	Reps          int
	Lapses        int
	LastReviewAt  *time.Time
}

// Apply writes the update onto the card and bumps UpdatedAt.
func (c *Card) Apply(update ReviewUpdate, now time.Time) {
	c.ReviewState = update.ReviewState
	c.DueAt = update.DueAt
	c.Stability = update.Stability
	c.Difficulty = update.Difficulty
	c.ElapsedDays = update.ElapsedDays
	c.ScheduledDays = update.ScheduledDays
	c.LearningSteps = update.LearningSteps
	c.Reps = update.Reps
	c.Lapses = update.Lapses
	c.LastReviewAt = update.LastReviewAt
	c.UpdatedAt = now
}
