package options

import (
	"strconv"
	"strings"
)

// ReviewSettings is the legacy global limits record, kept as a fallback for
// accounts that predate per-deck study options.
type ReviewSettings struct {
	DailyReviewGoal         int
	ReviewSessionLimit      int
	LearnSessionLimit       int
	LearnNewCardsPerSession int
}

// DefaultReviewSettings returns the legacy limit defaults.
func DefaultReviewSettings() ReviewSettings {
	return ReviewSettings{
		DailyReviewGoal:         200,
		ReviewSessionLimit:      100,
		LearnSessionLimit:       40,
		LearnNewCardsPerSession: 20,
	}
}

// ReviewSettingsRecord is a raw legacy settings row; nil fields are absent.
type ReviewSettingsRecord struct {
	DailyReviewGoal         *int
	ReviewSessionLimit      *int
	LearnSessionLimit       *int
	LearnNewCardsPerSession *int
}

// ParseReviewSettings sanitizes a legacy settings record, clamping negative
// limits to zero and defaulting absent fields.
func ParseReviewSettings(record *ReviewSettingsRecord) ReviewSettings {
	defaults := DefaultReviewSettings()
	if record == nil {
		return defaults
	}
	return ReviewSettings{
		DailyReviewGoal:         sanitizeLimit(record.DailyReviewGoal, defaults.DailyReviewGoal),
		ReviewSessionLimit:      sanitizeLimit(record.ReviewSessionLimit, defaults.ReviewSessionLimit),
		LearnSessionLimit:       sanitizeLimit(record.LearnSessionLimit, defaults.LearnSessionLimit),
		LearnNewCardsPerSession: sanitizeLimit(record.LearnNewCardsPerSession, defaults.LearnNewCardsPerSession),
	}
}

func sanitizeLimit(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	if *value < 0 {
		return 0
	}
	return *value
}

// ParseLimitInput parses a user-entered limit string; blank or malformed
// input yields the fallback.
func ParseLimitInput(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
