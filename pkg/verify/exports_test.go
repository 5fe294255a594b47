package verify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/sweeplabel/pkg/dataset"
	"github.com/stretchr/testify/require"
)

func TestLoadExports(t *testing.T) {
	root := t.TempDir()
	d1 := filepath.Join(root, "1")
	d2 := filepath.Join(root, "2")
	require.NoError(t, os.MkdirAll(d1, 0755))
	require.NoError(t, os.MkdirAll(d2, 0755))
	c := candidates(5)
	require.NoError(t, dataset.WriteRecords(filepath.Join(d1, "b.mp4.json"), c[1:2]))
	require.NoError(t, dataset.WriteRecords(filepath.Join(d1, "a.mp4.json"), c[0:1]))
	require.NoError(t, dataset.WriteRecords(filepath.Join(d2, "c.mp4.json"), c[2:5]))

	all, err := LoadExports([]string{d1, d2})
	require.NoError(t, err)
	require.Equal(t, c, all)

	all, err = LoadExports([]string{d2, d1})
	require.NoError(t, err)
	require.Equal(t, c[2].ImageID, all[0].ImageID)

	_, err = LoadExports([]string{filepath.Join(root, "missing")})
	require.Error(t, err)
}
