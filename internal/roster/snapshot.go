package roster

import "time"

// Snapshot is an immutable point-in-time view of the roster and settings,
// taken once per inbound message so classification and arming never hold
// the database open. Concurrent roster edits take effect on the next
// snapshot, not retroactively on already-armed timers.
type Snapshot struct {
	memberIDs     map[int64]bool
	memberHandles map[string]bool

	// Destination is the alert destination chat, 0 when unset
	Destination int64

	// Delay is the effective escalation delay
	Delay time.Duration
}

// IsTeamMember reports whether the sender matches the roster by numeric
// id or by handle. Either match suffices.
func (snap *Snapshot) IsTeamMember(userID int64, handle string) bool {
	if userID != 0 && snap.memberIDs[userID] {
		return true
	}
	if handle = NormalizeHandle(handle); handle != "" && snap.memberHandles[handle] {
		return true
	}
	return false
}

// NewSnapshot builds a snapshot from an explicit member list. The engine
// and classifier take snapshots, not the store, so tests can hand them a
// controlled roster without a database.
func NewSnapshot(members []Member, destination int64, delay time.Duration) *Snapshot {
	snap := &Snapshot{
		memberIDs:     make(map[int64]bool, len(members)),
		memberHandles: make(map[string]bool, len(members)),
		Destination:   destination,
		Delay:         delay,
	}

	for _, m := range members {
		if m.UserID != 0 {
			snap.memberIDs[m.UserID] = true
		}
		if h := NormalizeHandle(m.Handle); h != "" {
			snap.memberHandles[h] = true
		}
	}

	return snap
}

// Snapshot reads the current roster and settings into an immutable view.
// fallbackDelay applies when no delay has been stored.
func (s *Store) Snapshot(fallbackDelay time.Duration) (*Snapshot, error) {
	members, err := s.ListMembers()
	if err != nil {
		return nil, err
	}

	destination, err := s.Destination()
	if err != nil {
		return nil, err
	}

	delay, err := s.Delay(fallbackDelay)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(members, destination, delay), nil
}
