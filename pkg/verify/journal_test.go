package verify

import (
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/command"
	"github.com/stretchr/testify/require"
)

func TestJournalScopedByDataset(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "journal.sqlite")
	log := logs.NewTestingLog(t)
	a, err := OpenJournal(log, dbFile, "a")
	require.NoError(t, err)
	defer a.Close()
	b, err := OpenJournal(log, dbFile, "b")
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Append(command.Accept, "v_0"))
	require.NoError(t, a.Append(command.Reject, "v_1"))
	require.NoError(t, b.Append(command.Accept, "w_0"))

	ea, err := a.Load()
	require.NoError(t, err)
	require.Len(t, ea, 2)
	require.Equal(t, "accept", ea[0].Command)
	require.Equal(t, "v_1", ea[1].ImageID)

	require.NoError(t, a.Clear())
	ea, err = a.Load()
	require.NoError(t, err)
	require.Empty(t, ea)
	eb, err := b.Load()
	require.NoError(t, err)
	require.Len(t, eb, 1)
}

func TestReplayStopsAtStaleEntry(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "journal.sqlite")
	j, err := OpenJournal(logs.NewTestingLog(t), dbFile, "x")
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Append(command.Accept, "v_0"))
	require.NoError(t, j.Append(command.Undo, "v_1"))
	require.NoError(t, j.Append(command.Reject, "v_0"))
	require.NoError(t, j.Append(command.Accept, "something_else"))
	require.NoError(t, j.Append(command.Accept, "v_2"))

	s := NewSession(candidates(4))
	n, err := j.Replay(s)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 1, s.Cursor())
	require.Empty(t, s.Accepted())
}

func TestResumeTwiceAcrossStaleEntry(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "journal.sqlite")
	log := logs.NewTestingLog(t)
	j, err := OpenJournal(log, dbFile, "x")
	require.NoError(t, err)
	require.NoError(t, j.Append(command.Accept, "v_0"))
	require.NoError(t, j.Append(command.Accept, "stale"))
	require.NoError(t, j.Close())

	// First resume discards the stale tail, then the review continues
	j, err = OpenJournal(log, dbFile, "x")
	require.NoError(t, err)
	s := NewSession(candidates(4))
	n, err := j.Replay(s)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, 1, s.Cursor())
	for _, id := range []string{"v_1", "v_2"} {
		require.NoError(t, j.Append(command.Accept, id))
		require.True(t, s.Apply(command.Accept))
	}
	require.NoError(t, j.Close())

	j, err = OpenJournal(log, dbFile, "x")
	require.NoError(t, err)
	defer j.Close()
	entries, err := j.Load()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.EqualValues(t, 2, entries[1].Seq)
	require.Equal(t, "v_1", entries[1].ImageID)

	s = NewSession(candidates(4))
	n, err = j.Replay(s)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 3, s.Cursor())
	require.Len(t, s.Accepted(), 3)
}
