package storage

const schema = `
-- The 'cards' table stores each flashcard together with its full
-- scheduling state. A card id is "<note hash>:<ordinal>"; reversed notes
-- yield two sibling rows sharing a note_id.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    note_id TEXT NOT NULL,
    card_ordinal INTEGER NOT NULL DEFAULT 0,
    deck_name TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    front_text TEXT NOT NULL,
    back_text TEXT NOT NULL DEFAULT '',

    is_suspended INTEGER NOT NULL DEFAULT 0,
    buried_until_day INTEGER,

    review_state TEXT NOT NULL DEFAULT 'new',
    due_at DATETIME NOT NULL,
    stability REAL,
    difficulty REAL,
    elapsed_days REAL NOT NULL DEFAULT 0,
    scheduled_days REAL NOT NULL DEFAULT 0,
    learning_steps INTEGER NOT NULL DEFAULT 0,
    reps INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    last_review_at DATETIME,

    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE INDEX IF NOT EXISTS idx_cards_note ON cards(note_id);
CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_name);

-- Per-deck study options. One row per deck scope; the reserved scope
-- '__all__' holds the global fallback. NULL columns mean "use the default".
CREATE TABLE IF NOT EXISTS deck_options (
    deck_scope TEXT PRIMARY KEY,
    new_per_day INTEGER,
    review_per_day INTEGER,
    new_card_order TEXT,
    review_card_order TEXT,
    bury_siblings INTEGER,
    learning_steps TEXT,   -- comma separated minutes
    relearning_steps TEXT, -- comma separated minutes
    max_interval INTEGER,
    desired_retention REAL,
    easy_bonus REAL,
    interval_modifier REAL
);

-- Per-(deck, day) study counters. One row per deck scope; a row stamped to
-- an earlier day is stale and ignored on read.
CREATE TABLE IF NOT EXISTS daily_state (
    deck_scope TEXT PRIMARY KEY,
    day_stamp TEXT NOT NULL,
    new_shown INTEGER NOT NULL DEFAULT 0,
    review_shown INTEGER NOT NULL DEFAULT 0,
    custom_new_delta INTEGER NOT NULL DEFAULT 0,
    custom_review_delta INTEGER NOT NULL DEFAULT 0,
    last_reset_at DATETIME NOT NULL
);

-- Legacy global session limits, one row at most. Kept for databases that
-- predate per-deck options; ignored once any deck_options row exists for
-- the studied scope.
CREATE TABLE IF NOT EXISTS review_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    daily_review_goal INTEGER,
    review_session_limit INTEGER,
    learn_session_limit INTEGER,
    learn_new_per_session INTEGER
);

-- Append-only log of grading events.
CREATE TABLE IF NOT EXISTS review_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    rating TEXT NOT NULL,
    lane TEXT NOT NULL,
    reviewed_at DATETIME NOT NULL
);

-- The 'sources' table tracks the origin of the cards, either a local
-- directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    is_git INTEGER NOT NULL DEFAULT 0,
    last_scanned DATETIME
);
`
