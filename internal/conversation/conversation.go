// Package conversation holds the chronological turn log of one session.
package conversation

import "mentichat/internal/models"

// State is an append-only, strictly ordered log of turns. It is owned by a
// single session and is not safe for concurrent use on its own.
type State struct {
	turns []models.Turn
	next  int
}

// New returns an empty State.
func New() *State {
	return &State{}
}

// Append stamps turn with the next sequence number, stores it, and returns
// the stored copy.
func (s *State) Append(turn models.Turn) models.Turn {
	turn.Sequence = s.next
	s.next++
	s.turns = append(s.turns, turn)
	return turn
}

// All returns a copy of the turns in insertion order.
func (s *State) All() []models.Turn {
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of stored turns.
func (s *State) Len() int { return len(s.turns) }

// Reset clears every turn and restarts sequence numbering at zero.
func (s *State) Reset() {
	s.turns = s.turns[:0]
	s.next = 0
}

// NewestFirst returns turns in reverse order for display.
func NewestFirst(turns []models.Turn) []models.Turn {
	out := make([]models.Turn, len(turns))
	for i, t := range turns {
		out[len(turns)-1-i] = t
	}
	return out
}
