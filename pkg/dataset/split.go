package dataset

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/iox"
)

const DefaultTrainRatio = 0.8

const (
	SplitTrain = "train"
	SplitVal   = "val"
)

// AnnotationsFilename is the name of the per-split annotation file
const AnnotationsFilename = "annotations.json"

// Splits maps a split name (train/val) to its records
type Splits map[string][]Record

// Split assigns every record independently to train (with probability trainRatio) or val.
// If random is nil, an unseeded generator is used, so the split is not reproducible.
func Split(records []Record, trainRatio float64, random func() float64) Splits {
	if random == nil {
		random = rand.Float64
	}
	s := Splits{
		SplitTrain: []Record{},
		SplitVal:   []Record{},
	}
	for _, r := range records {
		if trainRatio > random() {
			s[SplitTrain] = append(s[SplitTrain], r)
		} else {
			s[SplitVal] = append(s[SplitVal], r)
		}
	}
	return s
}

// Finalize copies the images of every split into datasetDir/{train|val}, rewrites
// file_name to be relative to the dataset root ({datasetFolder}/{split}/{image}),
// and writes annotations.json inside each split folder. Images left in a split
// folder by an earlier Finalize that no longer belong to that split are removed,
// so an image never sits in both train and val.
// The returned splits carry the rewritten file names.
func Finalize(log logs.Log, splits Splits, datasetDir string) (Splits, error) {
	datasetFolder := filepath.Base(datasetDir)
	out := Splits{}
	for _, splitName := range []string{SplitTrain, SplitVal} {
		splitDir := filepath.Join(datasetDir, splitName)
		if err := os.MkdirAll(splitDir, 0755); err != nil {
			return nil, err
		}
		rewritten := []Record{}
		keep := map[string]bool{AnnotationsFilename: true}
		for _, r := range splits[splitName] {
			base := filepath.Base(r.FileName)
			keep[base] = true
			if err := iox.CopyFile(filepath.Join(splitDir, base), r.FileName); err != nil {
				return nil, fmt.Errorf("Failed to copy %v into dataset: %w", r.FileName, err)
			}
			r.FileName = filepath.ToSlash(filepath.Join(datasetFolder, splitName, base))
			rewritten = append(rewritten, r)
		}
		if err := pruneSplitDir(log, splitDir, keep); err != nil {
			return nil, err
		}
		if err := WriteRecords(filepath.Join(splitDir, AnnotationsFilename), rewritten); err != nil {
			return nil, err
		}
		out[splitName] = rewritten
		log.Infof("Wrote %v images to %v", len(rewritten), splitDir)
	}
	return out, nil
}

// pruneSplitDir removes every file in splitDir that is not in keep
func pruneSplitDir(log logs.Log, splitDir string, keep map[string]bool) error {
	entries, err := os.ReadDir(splitDir)
	if err != nil {
		return err
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || keep[e.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(splitDir, e.Name())); err != nil {
			return fmt.Errorf("Failed to remove stale dataset image %v: %w", e.Name(), err)
		}
		removed++
	}
	if removed != 0 {
		log.Infof("Removed %v stale images from %v", removed, splitDir)
	}
	return nil
}

// RecoverAccepted rebuilds the accepted set of a previous review from the
// images that were already copied into the dataset folder. This allows a
// dataset's annotation files to be regenerated without reviewing again.
// Order follows the candidate list.
func RecoverAccepted(candidates []Record, datasetDir string) ([]Record, error) {
	present := map[string]bool{}
	for _, sub := range []string{"", SplitTrain, SplitVal} {
		entries, err := os.ReadDir(filepath.Join(datasetDir, sub))
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				present[e.Name()] = true
			}
		}
	}
	accepted := []Record{}
	for _, c := range candidates {
		if present[filepath.Base(c.FileName)] {
			accepted = append(accepted, c)
		}
	}
	return accepted, nil
}
