// Package options resolves effective study configuration from untrusted
// records. All external configuration is field-independently defaulted:
// a missing, malformed, or out-of-range field silently falls back to its
// documented default, never to an error.
package options

import "strings"

// GlobalDeckScope is the reserved scope token for "all decks combined".
const GlobalDeckScope = "__all__"

// NewCardOrder selects the ordering of the new-card lane.
type NewCardOrder string

const (
	NewOrderInsertion NewCardOrder = "insertion"
	NewOrderRandom    NewCardOrder = "random"
)

// ReviewCardOrder selects the ordering of the review lane.
type ReviewCardOrder string

const (
	ReviewOrderDue    ReviewCardOrder = "due"
	ReviewOrderRandom ReviewCardOrder = "random"
)

// DeckStudyOptions are the effective per-deck study settings.
type DeckStudyOptions struct {
	NewPerDay        int // <= 0 means unlimited
	ReviewPerDay     int // <= 0 means unlimited
	NewOrder         NewCardOrder
	ReviewOrder      ReviewCardOrder
	BurySiblings     bool
	LearningSteps    []int // minutes
	RelearningSteps  []int // minutes
	MaxInterval      int   // days
	DesiredRetention float64
	EasyBonus        float64
	IntervalModifier float64
}

// Defaults returns the hard-coded deck study options.
func Defaults() DeckStudyOptions {
	return DeckStudyOptions{
		NewPerDay:        20,
		ReviewPerDay:     200,
		NewOrder:         NewOrderInsertion,
		ReviewOrder:      ReviewOrderDue,
		BurySiblings:     true,
		LearningSteps:    []int{1, 10},
		RelearningSteps:  []int{10},
		MaxInterval:      36500,
		DesiredRetention: 0.9,
		EasyBonus:        1.3,
		IntervalModifier: 1,
	}
}

// Record is a raw deck-study-options row as loaded from storage. Nil fields
// are absent; Parse defaults each one independently.
type Record struct {
	ID               string
	DeckName         *string
	NewPerDay        *int
	ReviewPerDay     *int
	NewOrder         *string
	ReviewOrder      *string
	BurySiblings     *bool
	LearningSteps    []int
	RelearningSteps  []int
	MaxInterval      *int
	DesiredRetention *float64
	EasyBonus        *float64
	IntervalModifier *float64
}

// NormalizeDeckName trims the name; empty means "unassigned / all decks".
func NormalizeDeckName(deckName string) string {
	return strings.TrimSpace(deckName)
}

// DeckScope maps a deck name to its storage scope key; the empty name maps
// to the reserved global scope token.
func DeckScope(deckName string) string {
	if normalized := NormalizeDeckName(deckName); normalized != "" {
		return normalized
	}
	return GlobalDeckScope
}

// Parse builds effective options from a raw record, defaulting every field
// independently. A nil record yields the defaults.
func Parse(record *Record) DeckStudyOptions {
	defaults := Defaults()
	if record == nil {
		return defaults
	}

	return DeckStudyOptions{
		NewPerDay:    coerceNonNegativeInt(record.NewPerDay, defaults.NewPerDay),
		ReviewPerDay: coerceNonNegativeInt(record.ReviewPerDay, defaults.ReviewPerDay),
		NewOrder: NewCardOrder(coerceEnum(record.NewOrder,
			[]string{string(NewOrderInsertion), string(NewOrderRandom)}, string(defaults.NewOrder))),
		ReviewOrder: ReviewCardOrder(coerceEnum(record.ReviewOrder,
			[]string{string(ReviewOrderDue), string(ReviewOrderRandom)}, string(defaults.ReviewOrder))),
		BurySiblings:     coerceBool(record.BurySiblings, defaults.BurySiblings),
		LearningSteps:    coerceSteps(record.LearningSteps, defaults.LearningSteps),
		RelearningSteps:  coerceSteps(record.RelearningSteps, defaults.RelearningSteps),
		MaxInterval:      coerceNonNegativeInt(record.MaxInterval, defaults.MaxInterval),
		DesiredRetention: coerceFiniteFloat(record.DesiredRetention, defaults.DesiredRetention),
		EasyBonus:        coerceFiniteFloat(record.EasyBonus, defaults.EasyBonus),
		IntervalModifier: coerceFiniteFloat(record.IntervalModifier, defaults.IntervalModifier),
	}
}

func recordDeckName(record Record) string {
	if record.DeckName == nil {
		return ""
	}
	return NormalizeDeckName(*record.DeckName)
}

// Resolve finds effective options for a deck: a deck-specific record wins,
// then a global-scope record, then the hard defaults.
func Resolve(records []Record, deckName string) DeckStudyOptions {
	normalized := NormalizeDeckName(deckName)

	for i := range records {
		if recordDeckName(records[i]) == normalized {
			return Parse(&records[i])
		}
	}
	for i := range records {
		if recordDeckName(records[i]) == GlobalDeckScope {
			return Parse(&records[i])
		}
	}
	return Defaults()
}

// Has reports whether a deck-specific or global record exists; callers use
// it to decide whether legacy session limits should also be blended in.
func Has(records []Record, deckName string) bool {
	normalized := NormalizeDeckName(deckName)
	for i := range records {
		name := recordDeckName(records[i])
		if name == normalized || name == GlobalDeckScope {
			return true
		}
	}
	return false
}
