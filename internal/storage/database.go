package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const cardColumns = `id, note_id, card_ordinal, deck_name, title, front_text, back_text,
	is_suspended, buried_until_day, review_state, due_at, stability, difficulty,
	elapsed_days, scheduled_days, learning_steps, reps, lapses, last_review_at,
	created_at, updated_at`

// InsertCard inserts a new card into the database.
func (db *DB) InsertCard(card domain.Card, sourceID int64) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (`+cardColumns+`, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.NoteID,
		card.CardOrdinal,
		card.DeckName,
		card.Title,
		card.FrontText,
		card.BackText,
		card.IsSuspended,
		card.BuriedUntilDay,
		string(card.ReviewState),
		card.DueAt,
		card.Stability,
		card.Difficulty,
		card.ElapsedDays,
		card.ScheduledDays,
		card.LearningSteps,
		card.Reps,
		card.Lapses,
		card.LastReviewAt,
		card.CreatedAt,
		card.UpdatedAt,
		nullableID(sourceID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// FindCardByID retrieves a card from the database by its id.
// It returns (nil, nil) when the card does not exist.
func (db *DB) FindCardByID(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find card by id %s: %w", id, err)
	}
	return card, nil
}

// GetAllCards retrieves every stored card.
func (db *DB) GetAllCards() ([]domain.Card, error) {
	return db.queryCards(`SELECT `+cardColumns+` FROM cards`, nil)
}

// GetCardsByDeck retrieves all cards assigned to a deck. An empty deck name
// retrieves every card, matching the all-decks study scope.
func (db *DB) GetCardsByDeck(deckName string) ([]domain.Card, error) {
	if deckName == "" {
		return db.GetAllCards()
	}
	return db.queryCards(`SELECT `+cardColumns+` FROM cards WHERE deck_name = ?`, []any{deckName})
}

// GetCardIDsBySourceID retrieves the ids of all cards that came from a source.
func (db *DB) GetCardIDsBySourceID(sourceID int64) ([]string, error) {
	rows, err := db.conn.Query(`SELECT id FROM cards WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id for source ID %d: %w", sourceID, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApplyReviewUpdate persists a scheduling result onto a card row.
func (db *DB) ApplyReviewUpdate(cardID string, update domain.ReviewUpdate, now time.Time) error {
	_, err := db.conn.Exec(`
		UPDATE cards
		SET review_state = ?, due_at = ?, stability = ?, difficulty = ?,
		    elapsed_days = ?, scheduled_days = ?, learning_steps = ?,
		    reps = ?, lapses = ?, last_review_at = ?, updated_at = ?
		WHERE id = ?
	`,
		string(update.ReviewState),
		update.DueAt,
		update.Stability,
		update.Difficulty,
		update.ElapsedDays,
		update.ScheduledDays,
		update.LearningSteps,
		update.Reps,
		update.Lapses,
		update.LastReviewAt,
		now,
		cardID,
	)
	if err != nil {
		return fmt.Errorf("failed to apply review update for card %s: %w", cardID, err)
	}
	return nil
}

// SetCardSuspended flips a card's suspension flag.
func (db *DB) SetCardSuspended(cardID string, suspended bool, now time.Time) error {
	_, err := db.conn.Exec(`
		UPDATE cards SET is_suspended = ?, updated_at = ? WHERE id = ?
	`, suspended, now, cardID)
	if err != nil {
		return fmt.Errorf("failed to set suspension for card %s: %w", cardID, err)
	}
	return nil
}

// SetCardBuriedUntil sets or clears (nil) a card's bury horizon, a local
// day number through which the card stays hidden.
func (db *DB) SetCardBuriedUntil(cardID string, untilDay *int, now time.Time) error {
	_, err := db.conn.Exec(`
		UPDATE cards SET buried_until_day = ?, updated_at = ? WHERE id = ?
	`, untilDay, now, cardID)
	if err != nil {
		return fmt.Errorf("failed to set bury horizon for card %s: %w", cardID, err)
	}
	return nil
}

// DeleteCardByID removes a card from the database by its id.
func (db *DB) DeleteCardByID(id string) error {
	_, err := db.conn.Exec(`DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card with id %s: %w", id, err)
	}
	return nil
}

// ListDeckNames returns the distinct non-empty deck names in sorted order.
func (db *DB) ListDeckNames() ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT deck_name FROM cards WHERE deck_name != '' ORDER BY deck_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list deck names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan deck name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (db *DB) queryCards(query string, args []any) ([]domain.Card, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card       domain.Card
		buried     sql.NullInt64
		state      string
		stability  sql.NullFloat64
		difficulty sql.NullFloat64
		lastReview sql.NullTime
	)
	err := row.Scan(
		&card.ID,
		&card.NoteID,
		&card.CardOrdinal,
		&card.DeckName,
		&card.Title,
		&card.FrontText,
		&card.BackText,
		&card.IsSuspended,
		&buried,
		&state,
		&card.DueAt,
		&stability,
		&difficulty,
		&card.ElapsedDays,
		&card.ScheduledDays,
		&card.LearningSteps,
		&card.Reps,
		&card.Lapses,
		&lastReview,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.ReviewState = domain.ReviewState(state)
	if buried.Valid {
		v := int(buried.Int64)
		card.BuriedUntilDay = &v
	}
	if stability.Valid {
		v := stability.Float64
		card.Stability = &v
	}
	if difficulty.Valid {
		v := difficulty.Float64
		card.Difficulty = &v
	}
	if lastReview.Valid {
		v := lastReview.Time
		card.LastReviewAt = &v
	}
	return &card, nil
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}
