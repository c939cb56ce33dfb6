package fsrs

import (
	"errors"
	"math"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func mustScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	cfg.DisableFuzzing = true
	s, err := NewScheduler(cfg)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func TestNewSchedulerRejectsBadConfig(t *testing.T) {
	badWeights := DefaultWeights
	badWeights[0] = -1

	testCases := []struct {
		name string
		cfg  Config
		want error
	}{
		{"weights below bounds", Config{Weights: badWeights}, ErrInvalidWeights},
		{"retention above one", Config{DesiredRetention: 1.5}, ErrInvalidConfig},
		{"negative retention", Config{DesiredRetention: -0.1}, ErrInvalidConfig},
		{"negative max interval", Config{MaximumInterval: -1}, ErrInvalidConfig},
		{"non-positive step", Config{LearningSteps: []time.Duration{0}}, ErrInvalidConfig},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewScheduler(tc.cfg); !errors.Is(err, tc.want) {
				t.Errorf("NewScheduler error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFirstReviewEntersLearning(t *testing.T) {
	s := mustScheduler(t, Config{})
	m := NewMemory(t0)

	next := s.Review(m, Again, t0)

	if next.State != Learning {
		t.Errorf("State = %v, want Learning", next.State)
	}
	if next.Step != 0 {
		t.Errorf("Step = %d, want 0", next.Step)
	}
	if next.Reps != 1 {
		t.Errorf("Reps = %d, want 1", next.Reps)
	}
	if next.Lapses != 0 {
		t.Errorf("Lapses = %d, want 0", next.Lapses)
	}
	if next.Stability == nil || next.Difficulty == nil {
		t.Fatal("stability/difficulty not initialized")
	}
	if got := *next.Stability; math.Abs(got-DefaultWeights[0]) > 1e-9 {
		t.Errorf("Stability = %f, want S0(Again) = %f", got, DefaultWeights[0])
	}
	if want := t0.Add(time.Minute); !next.Due.Equal(want) {
		t.Errorf("Due = %v, want first learning step %v", next.Due, want)
	}
}

func TestGoodWalksLearningStepsThenGraduates(t *testing.T) {
	s := mustScheduler(t, Config{})
	m := NewMemory(t0)

	first := s.Review(m, Good, t0)
	if first.State != Learning || first.Step != 1 {
		t.Fatalf("after first Good: state=%v step=%d, want Learning step 1", first.State, first.Step)
	}
	if want := t0.Add(10 * time.Minute); !first.Due.Equal(want) {
		t.Errorf("Due = %v, want second step %v", first.Due, want)
	}

	second := s.Review(first, Good, t0.Add(10*time.Minute))
	if second.State != Review {
		t.Errorf("after last Good: state = %v, want Review", second.State)
	}
	if second.Step != 0 {
		t.Errorf("graduated Step = %d, want 0", second.Step)
	}
	if !second.Due.After(t0.Add(24 * time.Hour)) {
		t.Errorf("graduated Due = %v, want at least one day out", second.Due)
	}
}

func TestEasySkipsRemainingSteps(t *testing.T) {
	s := mustScheduler(t, Config{})

	next := s.Review(NewMemory(t0), Easy, t0)

	if next.State != Review {
		t.Errorf("State = %v, want Review", next.State)
	}
}

func TestAgainOnReviewEntersRelearningAndCountsLapse(t *testing.T) {
	s := mustScheduler(t, Config{})
	stability, difficulty := 10.0, 5.0
	m := Memory{State: Review, Stability: &stability, Difficulty: &difficulty, Reps: 4}
	last := t0.Add(-10 * 24 * time.Hour)
	m.LastReview = &last

	next := s.Review(m, Again, t0)

	if next.State != Relearning {
		t.Errorf("State = %v, want Relearning", next.State)
	}
	if next.Lapses != 1 {
		t.Errorf("Lapses = %d, want 1", next.Lapses)
	}
	if want := t0.Add(10 * time.Minute); !next.Due.Equal(want) {
		t.Errorf("Due = %v, want relearning step %v", next.Due, want)
	}
	if *next.Stability >= stability {
		t.Errorf("forget stability = %f, want < %f", *next.Stability, stability)
	}
}

func TestAgainOnReviewWithoutRelearningStepsStaysReview(t *testing.T) {
	s := mustScheduler(t, Config{RelearningSteps: []time.Duration{}})
	stability, difficulty := 10.0, 5.0
	last := t0.Add(-10 * 24 * time.Hour)
	m := Memory{State: Review, Stability: &stability, Difficulty: &difficulty, LastReview: &last}

	next := s.Review(m, Again, t0)

	if next.State != Review {
		t.Errorf("State = %v, want Review", next.State)
	}
}

func TestCrossDayGoodGrowsStability(t *testing.T) {
	s := mustScheduler(t, Config{})
	stability, difficulty := 10.0, 5.0
	last := t0.Add(-10 * 24 * time.Hour)
	m := Memory{State: Review, Stability: &stability, Difficulty: &difficulty, LastReview: &last}

	next := s.Review(m, Good, t0)

	if *next.Stability <= stability {
		t.Errorf("Stability = %f, want > %f", *next.Stability, stability)
	}
	if next.ElapsedDays != 10 {
		t.Errorf("ElapsedDays = %f, want 10", next.ElapsedDays)
	}
	if next.ScheduledDays <= 0 {
		t.Errorf("ScheduledDays = %f, want > 0", next.ScheduledDays)
	}
}

func TestMaximumIntervalCaps(t *testing.T) {
	s := mustScheduler(t, Config{MaximumInterval: 30})
	stability, difficulty := 10000.0, 1.0
	last := t0.Add(-40 * 24 * time.Hour)
	m := Memory{State: Review, Stability: &stability, Difficulty: &difficulty, LastReview: &last}

	next := s.Review(m, Easy, t0)

	if want := t0.Add(30 * 24 * time.Hour); !next.Due.Equal(want) {
		t.Errorf("Due = %v, want capped at %v", next.Due, want)
	}
}

func TestRetrievability(t *testing.T) {
	s := mustScheduler(t, Config{})

	if got := s.Retrievability(NewMemory(t0), t0); got != 0 {
		t.Errorf("Retrievability of unreviewed card = %f, want 0", got)
	}

	stability := 10.0
	m := Memory{State: Review, Stability: &stability, LastReview: &t0}
	r := s.Retrievability(m, t0.Add(10*24*time.Hour))
	if r <= 0 || r >= 1 {
		t.Errorf("Retrievability = %f, want in (0, 1)", r)
	}
}

func TestFuzzStaysWithinBounds(t *testing.T) {
	s, err := NewScheduler(Config{})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	stability, difficulty := 20.0, 5.0
	last := t0.Add(-20 * 24 * time.Hour)
	m := Memory{State: Review, Stability: &stability, Difficulty: &difficulty, LastReview: &last}

	for i := 0; i < 50; i++ {
		next := s.Review(m, Good, t0)
		days := next.Due.Sub(t0).Hours() / 24.0
		if days < 1 || days > 36500 {
			t.Fatalf("fuzzed interval %f days out of bounds", days)
		}
	}
}
