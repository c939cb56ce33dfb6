// Package fsrs implements the FSRS v6 spaced-repetition memory model:
// stability/difficulty transitions, the learning-step state machine, and
// interval computation with optional fuzzing.
package fsrs

import (
	"fmt"
	"math/rand"
	"time"
)

// State is the memory-model lifecycle stage of a card.
type State int

const (
	New State = iota
	Learning
	Review
	Relearning
)

// Rating is the four-point grade scale of the model.
type Rating int

const (
	Again Rating = iota + 1
	Hard
	Good
	Easy
)

// Memory is the scheduling state the model reads and rewrites on each
// review. Stability and Difficulty are nil before the first review.
type Memory struct {
	State         State
	Step          int
	Stability     *float64
	Difficulty    *float64
	Due           time.Time
	LastReview    *time.Time
	ElapsedDays   float64
	ScheduledDays float64
	Reps          int
	Lapses        int
}

// NewMemory returns the zero state for a freshly created card: New, due
// immediately, no continuous parameters yet.
func NewMemory(now time.Time) Memory {
	return Memory{State: New, Due: now}
}

// Config configures a Scheduler. Zero values fill in with defaults;
// out-of-range values are rejected by NewScheduler.
type Config struct {
	Weights          [21]float64     // zero -> DefaultWeights
	DesiredRetention float64         // zero -> 0.9
	LearningSteps    []time.Duration // nil -> [1m, 10m]; empty -> no steps
	RelearningSteps  []time.Duration // nil -> [10m]; empty -> no steps
	MaximumInterval  int             // zero -> 36500 days
	DisableFuzzing   bool
}

// Scheduler applies the FSRS v6 transition function. Safe for concurrent
// reads once constructed, except that fuzzing shares one rng.
type Scheduler struct {
	algo             algo
	desiredRetention float64
	learningSteps    []time.Duration
	relearningSteps  []time.Duration
	maximumInterval  int
	disableFuzzing   bool
	rng              *rand.Rand
}

// NewScheduler builds a Scheduler, filling zero-value config fields with
// defaults. Malformed configuration is the one fatal error class of the
// scheduling core.
func NewScheduler(cfg Config) (*Scheduler, error) {
	weights := cfg.Weights
	if weights == ([21]float64{}) {
		weights = DefaultWeights
	}
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}

	retention := cfg.DesiredRetention
	if retention == 0 {
		retention = 0.9
	}
	if retention < 0 || retention > 1 {
		return nil, fmt.Errorf("%w: desired retention %f outside (0, 1]", ErrInvalidConfig, retention)
	}

	maxIvl := cfg.MaximumInterval
	if maxIvl == 0 {
		maxIvl = 36500
	}
	if maxIvl < 0 {
		return nil, fmt.Errorf("%w: maximum interval %d must be positive", ErrInvalidConfig, maxIvl)
	}

	learning := cfg.LearningSteps
	if learning == nil {
		learning = []time.Duration{time.Minute, 10 * time.Minute}
	}
	relearning := cfg.RelearningSteps
	if relearning == nil {
		relearning = []time.Duration{10 * time.Minute}
	}
	for _, step := range append(append([]time.Duration{}, learning...), relearning...) {
		if step <= 0 {
			return nil, fmt.Errorf("%w: non-positive step duration %s", ErrInvalidConfig, step)
		}
	}

	return &Scheduler{
		algo:             newAlgo(weights),
		desiredRetention: retention,
		learningSteps:    learning,
		relearningSteps:  relearning,
		maximumInterval:  maxIvl,
		disableFuzzing:   cfg.DisableFuzzing,
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Review applies one graded review at now and returns the next memory
// state. The input value is not mutated.
func (s *Scheduler) Review(m Memory, rating Rating, now time.Time) Memory {
	next := m

	var elapsedDays float64
	if next.LastReview != nil {
		elapsedDays = now.Sub(*next.LastReview).Hours() / 24.0
	}

	if rating == Again && next.State == Review {
		next.Lapses++
	}
	next.Reps++

	s.updateMemory(&next, rating, elapsedDays)

	// A never-reviewed card enters the learning steps at step zero.
	if next.State == New {
		next.State = Learning
		next.Step = 0
	}

	interval := s.transition(&next, rating)

	if !s.disableFuzzing && next.State == Review {
		days := int(interval.Hours() / 24.0)
		if days > 0 {
			interval = time.Duration(applyFuzz(days, s.maximumInterval, s.rng)) * 24 * time.Hour
		}
	}

	next.Due = now.Add(interval)
	next.ElapsedDays = elapsedDays
	next.ScheduledDays = interval.Hours() / 24.0
	reviewedAt := now
	next.LastReview = &reviewedAt

	return next
}

// Retrievability returns the modelled probability of recall at now.
// Zero for a card that has never been reviewed.
func (s *Scheduler) Retrievability(m Memory, now time.Time) float64 {
	if m.LastReview == nil || m.Stability == nil {
		return 0
	}
	elapsed := now.Sub(*m.LastReview).Hours() / 24.0
	return s.algo.retrievability(elapsed, *m.Stability)
}

func (s *Scheduler) updateMemory(m *Memory, rating Rating, elapsedDays float64) {
	if m.Stability == nil {
		stability := s.algo.initStability(rating)
		difficulty := s.algo.initDifficulty(rating, true)
		m.Stability = &stability
		m.Difficulty = &difficulty
		return
	}

	stability := *m.Stability
	difficulty := *m.Difficulty

	var nextStability float64
	if elapsedDays < 1 {
		nextStability = s.algo.shortTermStability(stability, rating)
	} else {
		r := s.algo.retrievability(elapsedDays, stability)
		nextStability = s.algo.nextStability(difficulty, stability, r, rating)
	}
	nextDifficulty := s.algo.nextDifficulty(difficulty, rating)

	m.Stability = &nextStability
	m.Difficulty = &nextDifficulty
}

func (s *Scheduler) stepsFor(state State) []time.Duration {
	switch state {
	case Learning:
		return s.learningSteps
	case Relearning:
		return s.relearningSteps
	default:
		return nil
	}
}

func (s *Scheduler) transition(m *Memory, rating Rating) time.Duration {
	switch m.State {
	case Learning, Relearning:
		return s.transitionLearning(m, rating)
	default:
		return s.transitionReview(m, rating)
	}
}

func (s *Scheduler) transitionLearning(m *Memory, rating Rating) time.Duration {
	steps := s.stepsFor(m.State)

	if len(steps) == 0 || (m.Step >= len(steps) && rating != Again) {
		return s.graduate(m)
	}

	switch rating {
	case Again:
		m.Step = 0
		return steps[0]

	case Hard:
		// Hard repeats the current step; at the first step the delay is
		// stretched toward the next one.
		if m.Step == 0 && len(steps) == 1 {
			return time.Duration(float64(steps[0]) * 1.5)
		}
		if m.Step == 0 && len(steps) >= 2 {
			return (steps[0] + steps[1]) / 2
		}
		return steps[m.Step]

	case Good:
		if m.Step+1 >= len(steps) {
			return s.graduate(m)
		}
		m.Step++
		return steps[m.Step]

	default: // Easy skips the remaining steps.
		return s.graduate(m)
	}
}

func (s *Scheduler) transitionReview(m *Memory, rating Rating) time.Duration {
	if rating == Again && len(s.relearningSteps) > 0 {
		m.State = Relearning
		m.Step = 0
		return s.relearningSteps[0]
	}

	// Successful recall, or Again with no relearning steps configured.
	m.Step = 0
	days := s.algo.nextInterval(*m.Stability, s.desiredRetention, s.maximumInterval)
	return time.Duration(days) * 24 * time.Hour
}

func (s *Scheduler) graduate(m *Memory) time.Duration {
	m.State = Review
	m.Step = 0
	days := s.algo.nextInterval(*m.Stability, s.desiredRetention, s.maximumInterval)
	return time.Duration(days) * 24 * time.Hour
}
