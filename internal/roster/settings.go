package roster

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Setting keys
const (
	settingDestination = "destination"
	settingDelay       = "delay"
)

func (s *Store) setSetting(key, value string) error {
	query := `INSERT INTO settings (key, value) VALUES (?, ?)
	          ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.conn.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *Store) getSetting(key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// SetDestination records the chat escalations are delivered to.
func (s *Store) SetDestination(chatID int64) error {
	return s.setSetting(settingDestination, strconv.FormatInt(chatID, 10))
}

// Destination returns the alert destination chat, or 0 if unset.
func (s *Store) Destination() (int64, error) {
	value, ok, err := s.getSetting(settingDestination)
	if err != nil || !ok {
		return 0, err
	}

	chatID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt destination setting %q: %w", value, err)
	}
	return chatID, nil
}

// SetDelay records the escalation delay.
func (s *Store) SetDelay(delay time.Duration) error {
	if delay <= 0 {
		return fmt.Errorf("delay must be positive, got %s", delay)
	}
	return s.setSetting(settingDelay, delay.String())
}

// Delay returns the stored escalation delay, or fallback if unset.
func (s *Store) Delay(fallback time.Duration) (time.Duration, error) {
	value, ok, err := s.getSetting(settingDelay)
	if err != nil {
		return 0, err
	}
	if !ok {
		return fallback, nil
	}

	delay, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt delay setting %q: %w", value, err)
	}
	return delay, nil
}
