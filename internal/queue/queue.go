// Package queue composes the bounded, lane-ordered daily study queue: six
// candidate lanes with independent eligibility and ordering, admitted in a
// fixed priority order under the deck's daily budgets.
package queue

import (
	"fmt"
	"sort"
	"time"

	"github.com/conorfennell/studydeck/internal/daily"
	"github.com/conorfennell/studydeck/internal/day"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/options"
)

// Args are the inputs of one composition pass.
type Args struct {
	Cards    []domain.Card
	DeckName string // empty means all decks
	Now      time.Time
	Options  options.DeckStudyOptions
	Daily    daily.State
	Custom   options.CustomStudy
}

// LimitFlags records which daily budgets ran out while same-lane candidates
// remained.
type LimitFlags struct {
	New    bool
	Review bool
}

// Remaining is the budget left after composition; -1 means unlimited.
type Remaining struct {
	New    int
	Review int
}

// BuildResult is the outcome of one composition pass.
type BuildResult struct {
	Entries         []domain.QueueEntry
	AvailableByLane map[domain.StudyLane]int // raw candidate counts before admission
	SelectedByLane  map[domain.StudyLane]int
	LimitExhausted  LimitFlags
	Remaining       Remaining
}

// Compose builds the study queue for one instant. Pure: it reads Args and
// returns a fresh result, mutating nothing.
func Compose(args Args) BuildResult {
	now := args.Now
	dayStart := day.StartOfLocalDay(now)
	dayStamp := day.ToLocalDayStamp(now)
	localDayNumber := day.ToLocalDayNumber(now)
	deckName := options.NormalizeDeckName(args.DeckName)

	eligible := make([]domain.Card, 0, len(args.Cards))
	for _, card := range args.Cards {
		if inDeck(card, deckName) && !card.IsSuspended && !isBuriedToday(card, localDayNumber) {
			eligible = append(eligible, card)
		}
	}

	learningIntraday := filterCards(eligible, func(c domain.Card) bool {
		return c.ReviewState.IsLearning() && !c.DueAt.After(now) && !c.DueAt.Before(dayStart)
	})
	sortByDueThenUpdated(learningIntraday)

	learningInterday := filterCards(eligible, func(c domain.Card) bool {
		return c.ReviewState.IsLearning() && !c.DueAt.After(now) && c.DueAt.Before(dayStart)
	})
	sortByDueThenUpdated(learningInterday)

	reviewDue := filterCards(eligible, func(c domain.Card) bool {
		return c.ReviewState == domain.StateReview && !c.DueAt.After(now)
	})
	sortReviewCandidates(reviewDue, args.Options, dayStamp+":review")

	newCards := filterCards(eligible, func(c domain.Card) bool {
		return c.ReviewState == domain.StateNew
	})
	sortNewCandidates(newCards, args.Options, dayStamp+":new")

	var forgotten []domain.Card
	if args.Custom.IncludeForgotten {
		forgotten = filterCards(eligible, func(c domain.Card) bool {
			return c.ReviewState != domain.StateNew && c.Lapses > 0 && !c.ReviewState.IsLearning()
		})
		sortForgottenCandidates(forgotten)
	}

	var reviewAhead []domain.Card
	if args.Custom.IncludeReviewAhead {
		reviewAhead = filterCards(eligible, func(c domain.Card) bool {
			return c.ReviewState == domain.StateReview && c.DueAt.After(now)
		})
		sortReviewCandidates(reviewAhead, args.Options, dayStamp+":ahead")
	}

	available := emptyLaneCounts()
	available[domain.LaneLearningIntraday] = len(learningIntraday)
	available[domain.LaneLearningInterday] = len(learningInterday)
	available[domain.LaneReview] = len(reviewDue)
	available[domain.LaneNew] = len(newCards)
	available[domain.LaneForgotten] = len(forgotten)
	available[domain.LaneAhead] = len(reviewAhead)

	newBudget := makeBudget(args.Options.NewPerDay, args.Daily.CustomNewDelta, args.Daily.NewShown)
	reviewBudget := makeBudget(args.Options.ReviewPerDay, args.Daily.CustomReviewDelta, args.Daily.ReviewShown)

	pass := admissionPass{
		burySiblings: args.Options.BurySiblings,
		selected:     emptyLaneCounts(),
		selectedIDs:  make(map[string]bool),
		buriedNotes:  make(map[string]bool),
		newBudget:    &newBudget,
		reviewBudget: &reviewBudget,
	}

	// Fixed lane priority; the bury set spans lanes.
	pass.admit(domain.LaneLearningIntraday, learningIntraday)
	pass.admit(domain.LaneLearningInterday, learningInterday)
	pass.admit(domain.LaneForgotten, forgotten)
	pass.admit(domain.LaneReview, reviewDue)
	pass.admit(domain.LaneAhead, reviewAhead)
	pass.admit(domain.LaneNew, newCards)

	return BuildResult{
		Entries:         pass.entries,
		AvailableByLane: available,
		SelectedByLane:  pass.selected,
		LimitExhausted:  LimitFlags{New: pass.newExhausted, Review: pass.reviewExhausted},
		Remaining:       Remaining{New: newBudget.remaining(), Review: reviewBudget.remaining()},
	}
}

// NextPendingLearningDueAt returns the earliest future due time among
// eligible learning-state cards, or false when none is pending. Callers
// schedule a refresh at that instant to promote the card into the queue.
func NextPendingLearningDueAt(cards []domain.Card, deckName string, now time.Time) (time.Time, bool) {
	normalized := options.NormalizeDeckName(deckName)
	localDayNumber := day.ToLocalDayNumber(now)

	var earliest time.Time
	found := false
	for _, card := range cards {
		if !inDeck(card, normalized) || card.IsSuspended || isBuriedToday(card, localDayNumber) {
			continue
		}
		if !card.ReviewState.IsLearning() || !card.DueAt.After(now) {
			continue
		}
		if !found || card.DueAt.Before(earliest) {
			earliest = card.DueAt
			found = true
		}
	}
	return earliest, found
}

// admissionPass carries the mutable state of one admission walk.
type admissionPass struct {
	burySiblings bool
	entries      []domain.QueueEntry
	selected     map[domain.StudyLane]int
	selectedIDs  map[string]bool
	buriedNotes  map[string]bool
	newBudget    *budget
	reviewBudget *budget

	newExhausted    bool
	reviewExhausted bool
}

func (p *admissionPass) admit(lane domain.StudyLane, candidates []domain.Card) {
	for _, card := range candidates {
		if p.selectedIDs[card.ID] {
			continue
		}

		applyBury := p.burySiblings && !card.ReviewState.IsLearning()
		if applyBury && p.buriedNotes[card.NoteID] {
			continue
		}

		if lane.CountsAgainstNewBudget() {
			if !p.newBudget.take() {
				p.newExhausted = true
				continue
			}
		}
		if lane.CountsAgainstReviewBudget() {
			if !p.reviewBudget.take() {
				p.reviewExhausted = true
				continue
			}
		}

		p.selectedIDs[card.ID] = true
		p.selected[lane]++
		p.entries = append(p.entries, domain.QueueEntry{CardID: card.ID, Lane: lane})

		if applyBury {
			p.buriedNotes[card.NoteID] = true
		}
	}
}

// budget is a daily admission allowance; perDay <= 0 means unconstrained
// rather than zero, deliberately.
type budget struct {
	unlimited bool
	left      int
}

func makeBudget(perDay, customDelta, shown int) budget {
	if perDay <= 0 {
		return budget{unlimited: true}
	}
	left := perDay + customDelta - shown
	if left < 0 {
		left = 0
	}
	return budget{left: left}
}

func (b *budget) take() bool {
	if b.unlimited {
		return true
	}
	if b.left <= 0 {
		return false
	}
	b.left--
	return true
}

func (b *budget) remaining() int {
	if b.unlimited {
		return -1
	}
	return b.left
}

func emptyLaneCounts() map[domain.StudyLane]int {
	counts := make(map[domain.StudyLane]int, len(domain.StudyLanes))
	for _, lane := range domain.StudyLanes {
		counts[lane] = 0
	}
	return counts
}

func inDeck(card domain.Card, deckName string) bool {
	if deckName == "" {
		return true
	}
	return options.NormalizeDeckName(card.DeckName) == deckName
}

func isBuriedToday(card domain.Card, localDayNumber int) bool {
	return card.BuriedUntilDay != nil && *card.BuriedUntilDay >= localDayNumber
}

func filterCards(cards []domain.Card, keep func(domain.Card) bool) []domain.Card {
	var out []domain.Card
	for _, card := range cards {
		if keep(card) {
			out = append(out, card)
		}
	}
	return out
}

func lessByDueThenUpdated(left, right domain.Card) bool {
	if !left.DueAt.Equal(right.DueAt) {
		return left.DueAt.Before(right.DueAt)
	}
	if !left.UpdatedAt.Equal(right.UpdatedAt) {
		return left.UpdatedAt.Before(right.UpdatedAt)
	}
	return left.CreatedAt.Before(right.CreatedAt)
}

func lessByCreatedThenUpdated(left, right domain.Card) bool {
	if !left.CreatedAt.Equal(right.CreatedAt) {
		return left.CreatedAt.Before(right.CreatedAt)
	}
	return left.UpdatedAt.Before(right.UpdatedAt)
}

func sortByDueThenUpdated(cards []domain.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		return lessByDueThenUpdated(cards[i], cards[j])
	})
}

func sortReviewCandidates(cards []domain.Card, opts options.DeckStudyOptions, salt string) {
	if opts.ReviewOrder == options.ReviewOrderRandom {
		sortDeterministicRandom(cards, salt)
		return
	}
	sortByDueThenUpdated(cards)
}

func sortNewCandidates(cards []domain.Card, opts options.DeckStudyOptions, salt string) {
	if opts.NewOrder == options.NewOrderRandom {
		sortDeterministicRandom(cards, salt)
		return
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return lessByCreatedThenUpdated(cards[i], cards[j])
	})
}

func sortForgottenCandidates(cards []domain.Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Lapses != cards[j].Lapses {
			return cards[i].Lapses > cards[j].Lapses
		}
		return lessByDueThenUpdated(cards[i], cards[j])
	})
}

// sortDeterministicRandom produces a shuffle that is stable within one day:
// the salt embeds the day stamp, so mid-session rebuilds never reorder.
func sortDeterministicRandom(cards []domain.Card, salt string) {
	sort.SliceStable(cards, func(i, j int) bool {
		left := hashString(fmt.Sprintf("%s:%s", salt, cards[i].ID))
		right := hashString(fmt.Sprintf("%s:%s", salt, cards[j].ID))
		if left != right {
			return left < right
		}
		return lessByCreatedThenUpdated(cards[i], cards[j])
	})
}

// hashString is the classic 31x rolling hash over the bytes of s, kept in
// int32 arithmetic so the ordering is reproducible everywhere.
func hashString(s string) int32 {
	var hash int32
	for i := 0; i < len(s); i++ {
		hash = (hash << 5) - hash + int32(s[i])
	}
	return hash
}
