package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cyclopcam/sweeplabel/pkg/iox"
)

// BBoxModeXYXY means the bbox is [left, top, right, bottom] in absolute pixels
const BBoxModeXYXY = 0

// Record describes one exported image and the boxes on it
type Record struct {
	FileName    string       `json:"file_name"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	ImageID     string       `json:"image_id"`
	Annotations []Annotation `json:"annotations"`
}

type Annotation struct {
	BBox       [4]float64 `json:"bbox"`
	BBoxMode   int        `json:"bbox_mode"`
	CategoryID int        `json:"category_id"`
}

// ReadRecords reads a JSON array of records
func ReadRecords(filename string) ([]Record, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	records := []Record{}
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("Invalid annotation file %v: %w", filename, err)
	}
	return records, nil
}

// WriteRecords writes a JSON array of records. An empty list is written as [] rather than null.
func WriteRecords(filename string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return iox.WriteFileAtomic(filename, b)
}
