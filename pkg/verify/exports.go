package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cyclopcam/sweeplabel/pkg/dataset"
)

// LoadExports reads every annotation file (*.json) in each export directory,
// and concatenates the records. Directories are read in the given order, and
// files within a directory in lexical order.
func LoadExports(dirs []string) ([]dataset.Record, error) {
	all := []dataset.Record{}
	for _, dir := range dirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			if _, err := os.Stat(dir); err != nil {
				return nil, fmt.Errorf("Export directory %v: %w", dir, err)
			}
		}
		sort.Strings(files)
		for _, fn := range files {
			records, err := dataset.ReadRecords(fn)
			if err != nil {
				return nil, err
			}
			all = append(all, records...)
		}
	}
	return all, nil
}
