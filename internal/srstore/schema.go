package srstore

import (
	"database/sql"
	"fmt"
	"time"
)

// schemaVersion is written to meta.version on every open.
const schemaVersion = 3

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decks (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	folder_path  TEXT NOT NULL DEFAULT '',
	is_composite INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cards (
	id                      TEXT PRIMARY KEY,
	note_path               TEXT NOT NULL,
	block_id                TEXT,
	type                    TEXT NOT NULL,
	front                   TEXT NOT NULL,
	back                    TEXT NOT NULL,
	irreversible            INTEGER NOT NULL DEFAULT 0,
	examples_json           TEXT,
	choices_json            TEXT,
	correct_choice_id       TEXT,
	correct_choice_ids_json TEXT,
	shuffle_choices         INTEGER NOT NULL DEFAULT 0,
	multi_select            INTEGER NOT NULL DEFAULT 0,
	ease                    REAL NOT NULL DEFAULT 2.5,
	interval                REAL NOT NULL DEFAULT 0,
	repetitions             INTEGER NOT NULL DEFAULT 0,
	lapses                  INTEGER NOT NULL DEFAULT 0,
	due                     INTEGER NOT NULL,
	suspended               INTEGER NOT NULL DEFAULT 0,
	fsrs_stability          REAL,
	fsrs_difficulty         REAL,
	fsrs_card_json          TEXT,
	reviews_json            TEXT,
	verb_stats_json         TEXT,
	created_at              INTEGER NOT NULL,
	updated_at              INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS card_decks (
	card_id  TEXT NOT NULL,
	deck_id  TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY(card_id, deck_id),
	FOREIGN KEY(card_id) REFERENCES cards(id) ON DELETE CASCADE,
	FOREIGN KEY(deck_id) REFERENCES decks(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS deck_children (
	parent_id TEXT NOT NULL,
	child_id  TEXT NOT NULL,
	position  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY(parent_id, child_id),
	FOREIGN KEY(parent_id) REFERENCES decks(id) ON DELETE CASCADE,
	FOREIGN KEY(child_id) REFERENCES decks(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS note_deck_links (
	note_path TEXT NOT NULL,
	deck_id   TEXT NOT NULL,
	PRIMARY KEY(note_path, deck_id),
	FOREIGN KEY(deck_id) REFERENCES decks(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_cards_due ON cards(due);
CREATE INDEX IF NOT EXISTS idx_card_decks_deck ON card_decks(deck_id);
CREATE INDEX IF NOT EXISTS idx_card_decks_card ON card_decks(card_id);
CREATE INDEX IF NOT EXISTS idx_note_links_note ON note_deck_links(note_path);
CREATE INDEX IF NOT EXISTS idx_deck_children_parent ON deck_children(parent_id);
CREATE INDEX IF NOT EXISTS idx_deck_children_child ON deck_children(child_id);
`

// migrateDecks backfills columns added after the first deployed schema so a
// database created by an older version keeps working. Safe to run on every open.
func migrateDecks(conn *sql.DB) error {
	rows, err := conn.Query(`PRAGMA table_info(decks)`)
	if err != nil {
		return fmt.Errorf("srstore: inspect decks schema: %w", err)
	}
	defer rows.Close()

	hasFolder, hasComposite := false, false
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notnull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("srstore: scan decks schema: %w", err)
		}
		switch name {
		case "folder_path":
			hasFolder = true
		case "is_composite":
			hasComposite = true
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("srstore: read decks schema: %w", err)
	}
	rows.Close()

	if !hasFolder {
		if _, err := conn.Exec(`ALTER TABLE decks ADD COLUMN folder_path TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("srstore: add folder_path: %w", err)
		}
	}
	if !hasComposite {
		if _, err := conn.Exec(`ALTER TABLE decks ADD COLUMN is_composite INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("srstore: add is_composite: %w", err)
		}
	}
	return nil
}

// ensureMetaDefaults writes the schema version and, if absent, an initial
// daily-rollover timestamp (start of the current local day, epoch ms).
func ensureMetaDefaults(conn *sql.DB) error {
	if err := setMeta(conn, "version", fmt.Sprintf("%d", schemaVersion)); err != nil {
		return err
	}
	rollover, err := getMeta(conn, "lastRollover")
	if err != nil {
		return err
	}
	if rollover == "" {
		return setMeta(conn, "lastRollover", fmt.Sprintf("%d", todayRolloverMillis(time.Now())))
	}
	return nil
}

// todayRolloverMillis returns midnight of the given local time in epoch ms.
func todayRolloverMillis(now time.Time) int64 {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.UnixMilli()
}

func getMeta(q querier, key string) (string, error) {
	var value string
	err := q.QueryRow(`SELECT value FROM meta WHERE key = ? LIMIT 1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("srstore: get meta %q: %w", key, err)
	}
	return value, nil
}

func setMeta(q querier, key, value string) error {
	_, err := q.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("srstore: set meta %q: %w", key, err)
	}
	return nil
}
