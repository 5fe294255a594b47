package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyclopcam/logs"
)

// UploadDataset uploads the train and val folders of a dataset, as
// {datasetID}/{split}/{file}, where datasetID is the dataset folder's name.
// If onlyJSON is true, only the annotation files are uploaded.
// Returns the number of files uploaded.
func UploadDataset(log logs.Log, store Storage, datasetDir string, onlyJSON bool) (int, error) {
	datasetID := filepath.Base(datasetDir)
	n := 0
	for _, split := range []string{"train", "val"} {
		splitDir := filepath.Join(datasetDir, split)
		entries, err := os.ReadDir(splitDir)
		if err != nil {
			return n, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if onlyJSON && filepath.Ext(e.Name()) != ".json" {
				continue
			}
			name := datasetID + "/" + split + "/" + e.Name()
			if err := uploadFile(store, name, filepath.Join(splitDir, e.Name())); err != nil {
				return n, fmt.Errorf("Failed to upload %v: %w", name, err)
			}
			n++
		}
	}
	log.Infof("Uploaded %v files of dataset %v", n, datasetID)
	return n, nil
}

func uploadFile(store Storage, name, filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteFile(store, name, f)
}
