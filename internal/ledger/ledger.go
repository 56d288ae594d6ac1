// Package ledger records light requests and slider transitions in an
// append-only SQLite table for later inspection.
package ledger

import (
	"database/sql"
	"time"

	"glowd/internal/metrics"
)

// Kind classifies a ledger entry.
type Kind string

const (
	// KindSetLight records a rendered light request.
	KindSetLight Kind = "set_light"
	// KindSlider records a keyboard slider transition.
	KindSlider Kind = "slider"
)

// Entry is a single row in the ledger.
type Entry struct {
	ID         int64
	At         time.Time
	RequestID  string
	Kind       Kind
	LightType  string
	Color      uint32
	Flash      string
	FlashOnMs  int32
	FlashOffMs int32
	SliderOpen bool
}

// Ledger provides append-only event logging
type Ledger struct {
	db *sql.DB
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Append adds an entry to the ledger. A zero At is stamped with the
// current time.
func (l *Ledger) Append(e Entry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := l.db.Exec(`
		INSERT INTO light_events (at, request_id, kind, light_type, color, flash, flash_on_ms, flash_off_ms, slider_open)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, at.Unix(), e.RequestID, string(e.Kind), e.LightType, int64(e.Color), e.Flash, e.FlashOnMs, e.FlashOffMs, boolToInt(e.SliderOpen))
	if err != nil {
		return err
	}

	metrics.LedgerEvents.WithLabelValues(string(e.Kind)).Inc()
	return nil
}

// Tail returns the most recent entries, newest first.
func (l *Ledger) Tail(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, at, request_id, kind, light_type, color, flash, flash_on_ms, flash_off_ms, slider_open
		FROM light_events
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := l.db.Exec(`
		DELETE FROM light_events WHERE at < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var e Entry
		var at, color int64
		var sliderOpen int

		err := rows.Scan(
			&e.ID, &at, &e.RequestID, &e.Kind, &e.LightType, &color, &e.Flash, &e.FlashOnMs, &e.FlashOffMs, &sliderOpen,
		)
		if err != nil {
			return nil, err
		}

		e.At = time.Unix(at, 0).UTC()
		e.Color = uint32(color)
		e.SliderOpen = sliderOpen != 0

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
