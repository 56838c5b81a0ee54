package roster

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Member is a team membership record.
// UserID is 0 when the member was added by handle only; Handle is empty
// when added by numeric id only.
type Member struct {
	UserID  int64
	Handle  string
	AddedAt time.Time
}

// NormalizeHandle lowercases a handle and strips a leading "@".
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// AddMember inserts a team member identified by user id and/or handle.
// Adding an existing member is a no-op.
func (s *Store) AddMember(userID int64, handle string) error {
	handle = NormalizeHandle(handle)
	if userID == 0 && handle == "" {
		return fmt.Errorf("member needs a user id or a handle")
	}

	query := `INSERT OR IGNORE INTO members (user_id, handle) VALUES (?, ?)`
	if _, err := s.conn.Exec(query, userID, handle); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// RemoveMember deletes every member row matching the user id or handle.
// Returns the number of removed rows.
func (s *Store) RemoveMember(userID int64, handle string) (int, error) {
	handle = NormalizeHandle(handle)
	if userID == 0 && handle == "" {
		return 0, fmt.Errorf("member needs a user id or a handle")
	}

	query := `DELETE FROM members WHERE (user_id != 0 AND user_id = ?) OR (handle != '' AND handle = ?)`
	result, err := s.conn.Exec(query, userID, handle)
	if err != nil {
		return 0, fmt.Errorf("failed to remove member: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return int(removed), nil
}

// ListMembers returns all team members ordered by insertion.
func (s *Store) ListMembers() ([]Member, error) {
	query := `SELECT user_id, handle, added_at FROM members ORDER BY id`

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Handle, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// AddOwner grants a user id permission to issue configuration commands.
func (s *Store) AddOwner(userID int64) error {
	if userID == 0 {
		return fmt.Errorf("owner needs a user id")
	}

	query := `INSERT OR IGNORE INTO owners (user_id) VALUES (?)`
	if _, err := s.conn.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to add owner: %w", err)
	}

	return nil
}

// IsOwner reports whether the user id may issue configuration commands.
func (s *Store) IsOwner(userID int64) (bool, error) {
	var one int
	err := s.conn.QueryRow(`SELECT 1 FROM owners WHERE user_id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check owner: %w", err)
	}
	return true, nil
}

// OwnerCount returns the number of configured owners.
// Zero means the store is in first-run bootstrap state.
func (s *Store) OwnerCount() (int, error) {
	var count int
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM owners`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}
	return count, nil
}
