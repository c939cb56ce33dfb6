package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/conorfennell/studydeck/internal/options"
)

// LoadDeckOptionRecords retrieves every stored deck-options row as a raw
// record. Defaulting of absent fields happens in the options package, not here.
func (db *DB) LoadDeckOptionRecords() ([]options.Record, error) {
	rows, err := db.conn.Query(`
		SELECT deck_scope, new_per_day, review_per_day, new_card_order, review_card_order,
		       bury_siblings, learning_steps, relearning_steps, max_interval,
		       desired_retention, easy_bonus, interval_modifier
		FROM deck_options
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load deck options: %w", err)
	}
	defer rows.Close()

	var records []options.Record
	for rows.Next() {
		var (
			record     options.Record
			scope      string
			newPerDay  sql.NullInt64
			revPerDay  sql.NullInt64
			newOrder   sql.NullString
			revOrder   sql.NullString
			bury       sql.NullBool
			learning   sql.NullString
			relearning sql.NullString
			maxIvl     sql.NullInt64
			retention  sql.NullFloat64
			easyBonus  sql.NullFloat64
			ivlMod     sql.NullFloat64
		)
		if err := rows.Scan(&scope, &newPerDay, &revPerDay, &newOrder, &revOrder,
			&bury, &learning, &relearning, &maxIvl, &retention, &easyBonus, &ivlMod); err != nil {
			return nil, fmt.Errorf("failed to scan deck options row: %w", err)
		}

		record.ID = scope
		record.DeckName = &scope
		record.NewPerDay = nullInt(newPerDay)
		record.ReviewPerDay = nullInt(revPerDay)
		record.NewOrder = nullString(newOrder)
		record.ReviewOrder = nullString(revOrder)
		record.BurySiblings = nullBool(bury)
		record.LearningSteps = decodeSteps(learning)
		record.RelearningSteps = decodeSteps(relearning)
		record.MaxInterval = nullInt(maxIvl)
		record.DesiredRetention = nullFloat(retention)
		record.EasyBonus = nullFloat(easyBonus)
		record.IntervalModifier = nullFloat(ivlMod)
		records = append(records, record)
	}
	return records, rows.Err()
}

// SaveDeckOptions upserts a deck-options row keyed by the record's deck scope.
func (db *DB) SaveDeckOptions(record options.Record) error {
	scope := options.GlobalDeckScope
	if record.DeckName != nil {
		scope = options.DeckScope(*record.DeckName)
	}

	_, err := db.conn.Exec(`
		INSERT INTO deck_options (deck_scope, new_per_day, review_per_day, new_card_order,
			review_card_order, bury_siblings, learning_steps, relearning_steps,
			max_interval, desired_retention, easy_bonus, interval_modifier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(deck_scope) DO UPDATE SET
			new_per_day = excluded.new_per_day,
			review_per_day = excluded.review_per_day,
			new_card_order = excluded.new_card_order,
			review_card_order = excluded.review_card_order,
			bury_siblings = excluded.bury_siblings,
			learning_steps = excluded.learning_steps,
			relearning_steps = excluded.relearning_steps,
			max_interval = excluded.max_interval,
			desired_retention = excluded.desired_retention,
			easy_bonus = excluded.easy_bonus,
			interval_modifier = excluded.interval_modifier
	`,
		scope,
		record.NewPerDay,
		record.ReviewPerDay,
		record.NewOrder,
		record.ReviewOrder,
		record.BurySiblings,
		encodeSteps(record.LearningSteps),
		encodeSteps(record.RelearningSteps),
		record.MaxInterval,
		record.DesiredRetention,
		record.EasyBonus,
		record.IntervalModifier,
	)
	if err != nil {
		return fmt.Errorf("failed to save deck options for scope %s: %w", scope, err)
	}
	return nil
}

// LoadReviewSettingsRecord retrieves the legacy global limits row, or
// (nil, nil) when none was ever stored. Sanitizing belongs to the options
// package's parser.
func (db *DB) LoadReviewSettingsRecord() (*options.ReviewSettingsRecord, error) {
	row := db.conn.QueryRow(`
		SELECT daily_review_goal, review_session_limit, learn_session_limit, learn_new_per_session
		FROM review_settings WHERE id = 1
	`)

	var goal, reviewLimit, learnLimit, newPerSession sql.NullInt64
	err := row.Scan(&goal, &reviewLimit, &learnLimit, &newPerSession)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No legacy settings stored
		}
		return nil, fmt.Errorf("failed to load review settings: %w", err)
	}

	return &options.ReviewSettingsRecord{
		DailyReviewGoal:         nullInt(goal),
		ReviewSessionLimit:      nullInt(reviewLimit),
		LearnSessionLimit:       nullInt(learnLimit),
		LearnNewCardsPerSession: nullInt(newPerSession),
	}, nil
}

// SaveReviewSettings upserts the legacy global limits row.
func (db *DB) SaveReviewSettings(record options.ReviewSettingsRecord) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_settings (id, daily_review_goal, review_session_limit,
			learn_session_limit, learn_new_per_session)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			daily_review_goal = excluded.daily_review_goal,
			review_session_limit = excluded.review_session_limit,
			learn_session_limit = excluded.learn_session_limit,
			learn_new_per_session = excluded.learn_new_per_session
	`,
		record.DailyReviewGoal,
		record.ReviewSessionLimit,
		record.LearnSessionLimit,
		record.LearnNewCardsPerSession,
	)
	if err != nil {
		return fmt.Errorf("failed to save review settings: %w", err)
	}
	return nil
}

// encodeSteps serializes step minutes as a comma-separated string; a nil
// slice stays NULL so the options parser can tell "absent" from "empty".
func encodeSteps(steps []int) *string {
	if steps == nil {
		return nil
	}
	parts := make([]string, len(steps))
	for i, step := range steps {
		parts[i] = strconv.Itoa(step)
	}
	joined := strings.Join(parts, ",")
	return &joined
}

func decodeSteps(raw sql.NullString) []int {
	if !raw.Valid {
		return nil
	}
	if raw.String == "" {
		return []int{}
	}
	parts := strings.Split(raw.String, ",")
	steps := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue // Skip malformed entries; the parser defaults empty slices.
		}
		steps = append(steps, v)
	}
	return steps
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	b := v.Bool
	return &b
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
