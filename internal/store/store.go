package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tokpromo/tokpromo/internal/types"
)

// History is the sqlite audit log of comment attempts. It does not decide
// deduplication; CommentedSet does.
type History struct {
	db *sql.DB
}

// OpenHistory creates a History backed by the database at dbPath
func OpenHistory(dbPath string) (*History, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	h := &History{db: db}
	if err := h.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return h, nil
}

// Close closes the database connection
func (h *History) Close() error {
	return h.db.Close()
}

// migrate creates the database schema
func (h *History) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_url TEXT NOT NULL,
		hashtag TEXT NOT NULL,
		comment TEXT,
		outcome TEXT NOT NULL,
		reason TEXT,
		screenshot TEXT,
		attempted_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_video ON attempts(video_url);
	CREATE INDEX IF NOT EXISTS idx_attempts_at ON attempts(attempted_at);
	`

	_, err := h.db.Exec(schema)
	return err
}

// Record inserts one attempt
func (h *History) Record(a types.Attempt) error {
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := h.db.Exec(`
		INSERT INTO attempts (video_url, hashtag, comment, outcome, reason, screenshot, attempted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.VideoURL, a.Hashtag, a.Comment, string(a.Outcome), a.Reason, a.Screenshot, at.UTC())

	return err
}

// Stats returns the number of attempts per outcome
func (h *History) Stats() (map[types.Outcome]int, error) {
	rows, err := h.db.Query(`SELECT outcome, COUNT(*) FROM attempts GROUP BY outcome`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[types.Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		stats[types.Outcome(outcome)] = n
	}
	return stats, rows.Err()
}

// Recent returns the latest attempts, newest first
func (h *History) Recent(limit int) ([]types.Attempt, error) {
	rows, err := h.db.Query(`
		SELECT video_url, hashtag, comment, outcome, reason, screenshot, attempted_at
		FROM attempts
		ORDER BY attempted_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []types.Attempt
	for rows.Next() {
		var a types.Attempt
		var outcome string
		var comment, reason, screenshot sql.NullString

		if err := rows.Scan(&a.VideoURL, &a.Hashtag, &comment, &outcome, &reason, &screenshot, &a.At); err != nil {
			return nil, err
		}
		a.Outcome = types.Outcome(outcome)
		a.Comment = comment.String
		a.Reason = reason.String
		a.Screenshot = screenshot.String
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
