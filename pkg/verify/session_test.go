package verify

import (
	"fmt"
	"testing"

	"github.com/cyclopcam/sweeplabel/pkg/command"
	"github.com/cyclopcam/sweeplabel/pkg/dataset"
	"github.com/stretchr/testify/require"
)

func candidates(n int) []dataset.Record {
	out := []dataset.Record{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("v_%v", i)
		out = append(out, dataset.Record{FileName: id + ".jpg", Width: 8, Height: 8, ImageID: id})
	}
	return out
}

func TestSessionTrace(t *testing.T) {
	c := candidates(5)
	s := NewSession(c)
	s.Accept()
	s.Accept()
	s.Undo()
	s.Skip()
	s.Accept()
	require.Equal(t, []dataset.Record{c[0], c[2]}, s.Accepted())
	require.Equal(t, 3, s.Cursor())
	a, ok := s.Decision(1)
	require.True(t, ok)
	require.Equal(t, ActionSkipped, a)
	require.False(t, s.Done())
}

func TestUndoAtStart(t *testing.T) {
	s := NewSession(candidates(2))
	require.False(t, s.Undo())
	require.Equal(t, 0, s.Cursor())
	require.Empty(t, s.Accepted())
}

func TestUndoSkipped(t *testing.T) {
	c := candidates(3)
	s := NewSession(c)
	s.Accept()
	s.Skip()
	require.True(t, s.Undo())
	require.Equal(t, 1, s.Cursor())
	require.Equal(t, []dataset.Record{c[0]}, s.Accepted())
	require.True(t, s.Undo())
	require.Equal(t, 0, s.Cursor())
	require.Empty(t, s.Accepted())
}

func TestDone(t *testing.T) {
	c := candidates(2)
	s := NewSession(c)
	s.Skip()
	s.Accept()
	require.True(t, s.Done())
	_, ok := s.Current()
	require.False(t, ok)
	// Actions past the end are ignored
	s.Accept()
	s.Skip()
	require.Equal(t, []dataset.Record{c[1]}, s.Accepted())
	require.Equal(t, 2, s.Cursor())

	// Undo from the end re-opens the last candidate
	require.True(t, s.Undo())
	require.False(t, s.Done())
	require.Empty(t, s.Accepted())
}

func TestApply(t *testing.T) {
	s := NewSession(candidates(3))
	require.True(t, s.Apply(command.Accept))
	require.True(t, s.Apply(command.Reject))
	require.True(t, s.Apply(command.Undo))
	require.False(t, s.Apply(command.Play))
	require.False(t, s.Apply(command.Exit))
	require.Equal(t, 1, s.Cursor())
	require.Len(t, s.Accepted(), 1)
}

func TestEmptySession(t *testing.T) {
	s := NewSession(nil)
	require.True(t, s.Done())
	require.Empty(t, s.Accepted())
}
