package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Preference keys.
const (
	PrefTourCompleted = "tour.completed"
)

// Preferences is a small key/value table for per-user console settings.
type Preferences struct {
	db *DB
}

// NewPreferences creates a preference store using the given database.
func NewPreferences(db *DB) *Preferences {
	return &Preferences{db: db}
}

// Get returns the stored value and whether it exists.
func (p *Preferences) Get(key string) (string, bool, error) {
	var value string
	err := p.db.sql.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading preference %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (p *Preferences) Set(key, value string) error {
	_, err := p.db.sql.Exec(
		`INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("writing preference %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (p *Preferences) Delete(key string) error {
	if _, err := p.db.sql.Exec(`DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting preference %q: %w", key, err)
	}
	return nil
}

// Bool reads a boolean preference. Missing or unparseable values are false.
func (p *Preferences) Bool(key string) (bool, error) {
	v, ok, err := p.Get(key)
	if err != nil || !ok {
		return false, err
	}
	b, perr := strconv.ParseBool(v)
	if perr != nil {
		p.db.log.Warn().Str("key", key).Str("value", v).Msg("ignoring malformed boolean preference")
		return false, nil
	}
	return b, nil
}

// SetBool stores a boolean preference.
func (p *Preferences) SetBool(key string, v bool) error {
	return p.Set(key, strconv.FormatBool(v))
}

// TourCompleted reports whether the user has finished or dismissed the tour.
func (p *Preferences) TourCompleted() (bool, error) {
	return p.Bool(PrefTourCompleted)
}

// SetTourCompleted records the tour-completed flag. Clearing it removes
// the row.
func (p *Preferences) SetTourCompleted(done bool) error {
	if !done {
		return p.Delete(PrefTourCompleted)
	}
	return p.SetBool(PrefTourCompleted, true)
}
