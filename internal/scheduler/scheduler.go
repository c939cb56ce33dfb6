// Package scheduler adapts the FSRS memory model to the app's card records:
// state-tag and grade mapping, step-minute conversion, and a per-config
// model cache.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/fsrs"
	"github.com/conorfennell/studydeck/internal/options"
)

var (
	cacheMu sync.Mutex
	cache   = map[string]*fsrs.Scheduler{}
)

// CreateInitialReviewMeta is the zero scheduling state for a freshly
// created card: new, due immediately, no continuous parameters.
func CreateInitialReviewMeta(now time.Time) domain.ReviewUpdate {
	return domain.ReviewUpdate{
		ReviewState: domain.StateNew,
		DueAt:       now,
	}
}

// ScheduleReview computes a card's next scheduling state for one grade.
// The only error class is malformed model configuration, which the options
// resolver's defaulting normally prevents.
func ScheduleReview(card domain.Card, rating domain.ReviewRating, now time.Time, opts options.DeckStudyOptions) (domain.ReviewUpdate, error) {
	model, err := modelFor(opts)
	if err != nil {
		return domain.ReviewUpdate{}, err
	}

	next := model.Review(toMemory(card), toGrade(rating), now)

	return domain.ReviewUpdate{
		ReviewState:   fromModelState(next.State),
		DueAt:         next.Due,
		Stability:     next.Stability,
		Difficulty:    next.Difficulty,
		ElapsedDays:   next.ElapsedDays,
		ScheduledDays: next.ScheduledDays,
		LearningSteps: next.Step,
		Reps:          next.Reps,
		Lapses:        next.Lapses,
		LastReviewAt:  next.LastReview,
	}, nil
}

// modelFor returns a cached model instance for the scheduling-relevant
// option subset. Caching is a performance optimization only; instances are
// read-only after construction apart from the fuzz rng.
func modelFor(opts options.DeckStudyOptions) (*fsrs.Scheduler, error) {
	key := cacheKey(opts)

	cacheMu.Lock()
	defer cacheMu.Unlock()

	if model, ok := cache[key]; ok {
		return model, nil
	}

	model, err := fsrs.NewScheduler(fsrs.Config{
		DesiredRetention: opts.DesiredRetention,
		LearningSteps:    toStepDurations(opts.LearningSteps, []time.Duration{time.Minute, 10 * time.Minute}),
		RelearningSteps:  toStepDurations(opts.RelearningSteps, []time.Duration{10 * time.Minute}),
	})
	if err != nil {
		return nil, fmt.Errorf("building memory model: %w", err)
	}
	cache[key] = model
	return model, nil
}

func cacheKey(opts options.DeckStudyOptions) string {
	return fmt.Sprintf("%v|%v|%g", opts.LearningSteps, opts.RelearningSteps, opts.DesiredRetention)
}

// toStepDurations converts step minutes to durations, dropping non-positive
// entries; an empty result falls back to the model defaults.
func toStepDurations(minutes []int, fallback []time.Duration) []time.Duration {
	steps := make([]time.Duration, 0, len(minutes))
	for _, m := range minutes {
		if m > 0 {
			steps = append(steps, time.Duration(m)*time.Minute)
		}
	}
	if len(steps) == 0 {
		return fallback
	}
	return steps
}

func toMemory(card domain.Card) fsrs.Memory {
	return fsrs.Memory{
		State:         toModelState(card.ReviewState),
		Step:          card.LearningSteps,
		Stability:     card.Stability,
		Difficulty:    card.Difficulty,
		Due:           card.DueAt,
		LastReview:    card.LastReviewAt,
		ElapsedDays:   card.ElapsedDays,
		ScheduledDays: card.ScheduledDays,
		Reps:          card.Reps,
		Lapses:        card.Lapses,
	}
}

func toGrade(rating domain.ReviewRating) fsrs.Rating {
	switch rating {
	case domain.RatingAgain:
		return fsrs.Again
	case domain.RatingHard:
		return fsrs.Hard
	case domain.RatingEasy:
		return fsrs.Easy
	default:
		return fsrs.Good
	}
}

func toModelState(state domain.ReviewState) fsrs.State {
	switch state {
	case domain.StateLearning:
		return fsrs.Learning
	case domain.StateReview:
		return fsrs.Review
	case domain.StateRelearning:
		return fsrs.Relearning
	default:
		return fsrs.New
	}
}

func fromModelState(state fsrs.State) domain.ReviewState {
	switch state {
	case fsrs.Learning:
		return domain.StateLearning
	case fsrs.Review:
		return domain.StateReview
	case fsrs.Relearning:
		return domain.StateRelearning
	default:
		return domain.StateNew
	}
}
