// Package verify is the human review step: every exported image is shown, and
// the reviewer accepts it into the dataset, skips it, or steps back to revise
// the previous decision.
package verify

import (
	"github.com/cyclopcam/sweeplabel/pkg/command"
	"github.com/cyclopcam/sweeplabel/pkg/dataset"
)

type Action int

const (
	ActionAccepted Action = iota
	ActionSkipped
)

func (a Action) String() string {
	switch a {
	case ActionAccepted:
		return "accepted"
	case ActionSkipped:
		return "skipped"
	}
	panic("Unknown action")
}

// Session walks a list of candidates in order.
// The decision log records the most recent decision at every index that has
// been decided, and Undo consults it to know whether stepping back must also
// pop the last accepted record.
type Session struct {
	candidates []dataset.Record
	cursor     int
	accepted   []dataset.Record
	decisions  map[int]Action
}

func NewSession(candidates []dataset.Record) *Session {
	return &Session{
		candidates: candidates,
		accepted:   []dataset.Record{},
		decisions:  map[int]Action{},
	}
}

// Current returns the candidate under the cursor, or false when the review is done
func (s *Session) Current() (dataset.Record, bool) {
	if s.Done() {
		return dataset.Record{}, false
	}
	return s.candidates[s.cursor], true
}

func (s *Session) Accept() {
	if s.Done() {
		return
	}
	s.accepted = append(s.accepted, s.candidates[s.cursor])
	s.decisions[s.cursor] = ActionAccepted
	s.cursor++
}

func (s *Session) Skip() {
	if s.Done() {
		return
	}
	s.decisions[s.cursor] = ActionSkipped
	s.cursor++
}

// Undo steps back one candidate. If that candidate was accepted, it is removed
// from the accepted list. At the first candidate, Undo does nothing.
func (s *Session) Undo() bool {
	if s.cursor == 0 {
		return false
	}
	prev := s.cursor - 1
	action, ok := s.decisions[prev]
	if !ok {
		return false
	}
	if action == ActionAccepted {
		s.accepted = s.accepted[:len(s.accepted)-1]
	}
	s.cursor = prev
	return true
}

// Apply performs the action bound to a review command.
// Returns true if the command was a review action.
func (s *Session) Apply(cmd command.Command) bool {
	switch cmd {
	case command.Accept:
		s.Accept()
	case command.Reject:
		s.Skip()
	case command.Undo:
		s.Undo()
	default:
		return false
	}
	return true
}

func (s *Session) Done() bool {
	return s.cursor >= len(s.candidates)
}

func (s *Session) Cursor() int {
	return s.cursor
}

func (s *Session) Len() int {
	return len(s.candidates)
}

// Accepted returns a copy of the accepted records, in acceptance order
func (s *Session) Accepted() []dataset.Record {
	return append([]dataset.Record(nil), s.accepted...)
}

// Decision returns the last decision taken at index i
func (s *Session) Decision(i int) (Action, bool) {
	a, ok := s.decisions[i]
	return a, ok
}
