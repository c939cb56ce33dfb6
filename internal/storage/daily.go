package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/studydeck/internal/daily"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/options"
)

// LoadDailyRecord retrieves the raw daily-state row for a deck scope, or
// (nil, nil) when none exists. Staleness handling belongs to the daily
// package's parser.
func (db *DB) LoadDailyRecord(deckName string) (*daily.Record, error) {
	scope := options.DeckScope(deckName)
	row := db.conn.QueryRow(`
		SELECT deck_scope, day_stamp, new_shown, review_shown,
		       custom_new_delta, custom_review_delta, last_reset_at
		FROM daily_state WHERE deck_scope = ?
	`, scope)

	var (
		record      daily.Record
		rowScope    string
		dayStamp    string
		newShown    int
		reviewShown int
		newDelta    int
		reviewDelta int
		lastReset   time.Time
	)
	err := row.Scan(&rowScope, &dayStamp, &newShown, &reviewShown, &newDelta, &reviewDelta, &lastReset)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No counters recorded yet
		}
		return nil, fmt.Errorf("failed to load daily state for scope %s: %w", scope, err)
	}

	record.ID = rowScope
	record.DeckName = &rowScope
	record.DayStamp = &dayStamp
	record.NewShown = &newShown
	record.ReviewShown = &reviewShown
	record.CustomNewDelta = &newDelta
	record.CustomReviewDelta = &reviewDelta
	record.LastResetAt = &lastReset
	return &record, nil
}

// SaveDailyState upserts a deck scope's counters for the state's day.
func (db *DB) SaveDailyState(state daily.State) error {
	scope := options.DeckScope(state.DeckName)
	_, err := db.conn.Exec(`
		INSERT INTO daily_state (deck_scope, day_stamp, new_shown, review_shown,
			custom_new_delta, custom_review_delta, last_reset_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(deck_scope) DO UPDATE SET
			day_stamp = excluded.day_stamp,
			new_shown = excluded.new_shown,
			review_shown = excluded.review_shown,
			custom_new_delta = excluded.custom_new_delta,
			custom_review_delta = excluded.custom_review_delta,
			last_reset_at = excluded.last_reset_at
	`,
		scope,
		state.DayStamp,
		state.NewShown,
		state.ReviewShown,
		state.CustomNewDelta,
		state.CustomReviewDelta,
		state.LastResetAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save daily state for scope %s: %w", scope, err)
	}
	return nil
}

// InsertReviewLog appends one grading event to the review log.
func (db *DB) InsertReviewLog(log domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_log (card_id, rating, lane, reviewed_at)
		VALUES (?, ?, ?, ?)
	`, log.CardID, string(log.Rating), string(log.Lane), log.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review log for card %s: %w", log.CardID, err)
	}
	return nil
}

// CountReviewsSince counts grading events at or after the cutoff, for
// simple study statistics.
func (db *DB) CountReviewsSince(cutoff time.Time) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM review_log WHERE reviewed_at >= ?
	`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}
