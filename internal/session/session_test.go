package session

import (
	"testing"
	"time"

	"github.com/conorfennell/studydeck/internal/daily"
	"github.com/conorfennell/studydeck/internal/day"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/options"
)

var now = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

func sessionOptions() options.DeckStudyOptions {
	opts := options.Defaults()
	opts.NewPerDay = 20
	opts.ReviewPerDay = 20
	return opts
}

func makeCard(id string, state domain.ReviewState, dueAt, created time.Time) domain.Card {
	return domain.Card{
		ID:          id,
		NoteID:      "note-" + id,
		ReviewState: state,
		DueAt:       dueAt,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func queueIDs(state State) []string {
	ids := make([]string, len(state.Queue))
	for i, entry := range state.Queue {
		ids[i] = entry.CardID
	}
	return ids
}

func TestAdvanceCreditsLaneCounters(t *testing.T) {
	reviewCard := makeCard("review", domain.StateReview, now.Add(-10*time.Second), now)
	newCard := makeCard("new", domain.StateNew, now, now.Add(-5*time.Second))

	first := Create(CreateArgs{
		Cards:   []domain.Card{reviewCard, newCard},
		Now:     now,
		Options: sessionOptions(),
		Daily:   daily.Empty("", now),
	})

	if got := queueIDs(first); len(got) != 2 || got[0] != "review" || got[1] != "new" {
		t.Fatalf("initial queue = %v, want [review new]", got)
	}

	reviewAnswered := reviewCard
	reviewAnswered.DueAt = now.Add(24 * time.Hour)

	second := Advance(first, []domain.Card{reviewAnswered, newCard}, "review", domain.RatingGood, now)

	if second.Daily.ReviewShown != 1 || second.Daily.NewShown != 0 {
		t.Errorf("counters after review grade = (%d, %d), want (1, 0)",
			second.Daily.ReviewShown, second.Daily.NewShown)
	}
	if got := queueIDs(second); len(got) != 1 || got[0] != "new" {
		t.Fatalf("queue after review grade = %v, want [new]", got)
	}
	if second.ReviewedCount != 1 {
		t.Errorf("ReviewedCount = %d, want 1", second.ReviewedCount)
	}

	newAnswered := newCard
	newAnswered.ReviewState = domain.StateLearning
	newAnswered.DueAt = now.Add(30 * time.Second)

	third := Advance(second, []domain.Card{reviewAnswered, newAnswered}, "new", domain.RatingGood, now)

	if third.Daily.ReviewShown != 1 || third.Daily.NewShown != 1 {
		t.Errorf("counters after new grade = (%d, %d), want (1, 1)",
			third.Daily.ReviewShown, third.Daily.NewShown)
	}
	if len(third.Queue) != 0 {
		t.Errorf("queue = %v, want empty", queueIDs(third))
	}
	if !third.HasPendingLearning || !third.NextPendingLearningDueAt.Equal(now.Add(30*time.Second)) {
		t.Errorf("pending learning = (%v, %v), want due in 30s",
			third.HasPendingLearning, third.NextPendingLearningDueAt)
	}
	if !HasWork(third) {
		t.Error("session with a pending learning card still has work")
	}
}

func TestAdvanceUnknownCardCreditsNothing(t *testing.T) {
	reviewCard := makeCard("review", domain.StateReview, now.Add(-time.Second), now)

	first := Create(CreateArgs{
		Cards:   []domain.Card{reviewCard},
		Now:     now,
		Options: sessionOptions(),
		Daily:   daily.Empty("", now),
	})

	next := Advance(first, []domain.Card{reviewCard}, "not-in-queue", domain.RatingEasy, now)

	if next.Daily.ReviewShown != 0 || next.Daily.NewShown != 0 {
		t.Errorf("counters = (%d, %d), want untouched (0, 0)", next.Daily.ReviewShown, next.Daily.NewShown)
	}
	if next.Streak.Current != 0 || next.Streak.TotalEasy != 0 {
		t.Errorf("streak = %+v, want untouched for an unknown card", next.Streak)
	}
	if next.ReviewedCount != 1 {
		t.Errorf("ReviewedCount = %d, want 1: the session still progresses", next.ReviewedCount)
	}
}

func TestRefreshPromotesPendingLearningCard(t *testing.T) {
	learning := makeCard("learning", domain.StateLearning, now.Add(10*time.Second), now)

	first := Create(CreateArgs{
		Cards:   []domain.Card{learning},
		Now:     now,
		Options: sessionOptions(),
		Daily:   daily.Empty("", now),
	})

	if len(first.Queue) != 0 {
		t.Fatalf("initial queue = %v, want empty", queueIDs(first))
	}
	if !first.HasPendingLearning || !first.NextPendingLearningDueAt.Equal(now.Add(10*time.Second)) {
		t.Fatalf("pending = (%v, %v), want due in 10s", first.HasPendingLearning, first.NextPendingLearningDueAt)
	}

	refreshed := Refresh(first, []domain.Card{learning}, now.Add(11*time.Second))

	if got := queueIDs(refreshed); len(got) != 1 || got[0] != "learning" {
		t.Fatalf("refreshed queue = %v, want [learning]", got)
	}
	if refreshed.HasPendingLearning {
		t.Error("no pending learning card expected after promotion")
	}
	if refreshed.ReviewedCount != 0 {
		t.Errorf("ReviewedCount = %d, want 0: refresh does not count reviews", refreshed.ReviewedCount)
	}
}

func TestRefreshResetsDailyStateOnDayRollover(t *testing.T) {
	reviewCard := makeCard("review", domain.StateReview, now.Add(-time.Second), now)

	state := daily.Empty("", now)
	state.ReviewShown = 7
	state.NewShown = 3

	first := Create(CreateArgs{
		Cards:   []domain.Card{reviewCard},
		Now:     now,
		Options: sessionOptions(),
		Daily:   state,
	})

	nextDay := now.Add(24 * time.Hour)
	refreshed := Refresh(first, []domain.Card{reviewCard}, nextDay)

	if refreshed.Daily.DayStamp != day.ToLocalDayStamp(nextDay) {
		t.Errorf("DayStamp = %q, want next day's stamp", refreshed.Daily.DayStamp)
	}
	if refreshed.Daily.ReviewShown != 0 || refreshed.Daily.NewShown != 0 {
		t.Errorf("counters = (%d, %d), want reset to (0, 0)",
			refreshed.Daily.ReviewShown, refreshed.Daily.NewShown)
	}
}

func TestCurrent(t *testing.T) {
	reviewCard := makeCard("review", domain.StateReview, now.Add(-time.Second), now)

	state := Create(CreateArgs{
		Cards:   []domain.Card{reviewCard},
		Now:     now,
		Options: sessionOptions(),
		Daily:   daily.Empty("", now),
	})

	entry, ok := Current(state)
	if !ok || entry.CardID != "review" || entry.Lane != domain.LaneReview {
		t.Errorf("Current = (%+v, %v), want head review entry", entry, ok)
	}

	empty := Create(CreateArgs{Now: now, Options: sessionOptions(), Daily: daily.Empty("", now)})
	if _, ok := Current(empty); ok {
		t.Error("Current of empty queue should report no entry")
	}
}

func TestAdvanceCarriesEasyStreak(t *testing.T) {
	first := makeCard("first", domain.StateReview, now.Add(-10*time.Second), now)
	second := makeCard("second", domain.StateReview, now.Add(-5*time.Second), now)
	third := makeCard("third", domain.StateReview, now.Add(-time.Second), now)
	cards := []domain.Card{first, second, third}

	state := Create(CreateArgs{
		Cards:   cards,
		Now:     now,
		Options: sessionOptions(),
		Daily:   daily.Empty("", now),
	})

	entry, _ := Current(state)
	state = Advance(state, cards, entry.CardID, domain.RatingEasy, now)
	if state.Streak.Current != 1 || state.Streak.Best != 1 {
		t.Fatalf("streak after first easy = %+v", state.Streak)
	}

	entry, _ = Current(state)
	state = Advance(state, cards, entry.CardID, domain.RatingEasy, now)
	if state.Streak.Current != 2 || state.Streak.Best != 2 || state.Streak.TotalEasy != 2 {
		t.Fatalf("streak after second easy = %+v", state.Streak)
	}

	entry, _ = Current(state)
	state = Advance(state, cards, entry.CardID, domain.RatingAgain, now)
	if state.Streak.Current != 0 {
		t.Errorf("Current = %d, want reset after a non-easy grade", state.Streak.Current)
	}
	if state.Streak.Best != 2 || state.Streak.TotalEasy != 2 {
		t.Errorf("Best/TotalEasy = (%d, %d), want preserved (2, 2)", state.Streak.Best, state.Streak.TotalEasy)
	}
}

func TestAdvanceStreak(t *testing.T) {
	streak := EasyStreak{}

	streak = AdvanceStreak(streak, domain.RatingEasy)
	streak = AdvanceStreak(streak, domain.RatingEasy)
	if streak.Current != 2 || streak.Best != 2 || streak.TotalEasy != 2 {
		t.Fatalf("streak after two easy = %+v", streak)
	}

	streak = AdvanceStreak(streak, domain.RatingGood)
	if streak.Current != 0 {
		t.Errorf("Current = %d, want reset to 0", streak.Current)
	}
	if streak.Best != 2 || streak.TotalEasy != 2 {
		t.Errorf("Best/TotalEasy = (%d, %d), want preserved (2, 2)", streak.Best, streak.TotalEasy)
	}

	streak = AdvanceStreak(streak, domain.RatingEasy)
	if streak.Current != 1 || streak.Best != 2 || streak.TotalEasy != 3 {
		t.Errorf("streak after recovery = %+v", streak)
	}
}
