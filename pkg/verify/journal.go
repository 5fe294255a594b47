package verify

import (
	"fmt"

	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/sweeplabel/pkg/command"
	"gorm.io/gorm"
)

// Journal persists every review command, so that an interrupted review can
// be resumed. One sqlite file may hold the journals of many datasets.
type Journal struct {
	log     logs.Log
	db      *gorm.DB
	dataset string
	seq     int64
}

type JournalEntry struct {
	ID      int64 `gorm:"primaryKey"`
	Dataset string
	Seq     int64
	Command string
	ImageID string
}

func (JournalEntry) TableName() string {
	return "review_action"
}

func journalMigrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE review_action(
			id INTEGER PRIMARY KEY,
			dataset TEXT NOT NULL,
			seq INT NOT NULL,
			command TEXT NOT NULL,
			image_id TEXT NOT NULL
		);

		CREATE UNIQUE INDEX idx_review_action_dataset_seq ON review_action (dataset, seq);
	`))

	return migs
}

// OpenJournal opens (or creates) the journal database, scoped to one dataset
func OpenJournal(log logs.Log, dbFilename, datasetID string) (*Journal, error) {
	db, err := dbh.OpenDB(log, dbh.MakeSqliteConfig(dbFilename), journalMigrations(log), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open review journal %v: %w", dbFilename, err)
	}
	j := &Journal{
		log:     log,
		db:      db,
		dataset: datasetID,
	}
	if err := db.Raw("SELECT COALESCE(MAX(seq), 0) FROM review_action WHERE dataset = ?", datasetID).Scan(&j.seq).Error; err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append records a command taken while imageID was the current candidate
func (j *Journal) Append(cmd command.Command, imageID string) error {
	e := JournalEntry{
		Dataset: j.dataset,
		Seq:     j.seq + 1,
		Command: cmd.String(),
		ImageID: imageID,
	}
	if err := j.db.Create(&e).Error; err != nil {
		return err
	}
	j.seq = e.Seq
	return nil
}

// Load returns the journal of this dataset, oldest first
func (j *Journal) Load() ([]JournalEntry, error) {
	entries := []JournalEntry{}
	err := j.db.Where("dataset = ?", j.dataset).Order("seq").Find(&entries).Error
	return entries, err
}

// Replay applies the journal to a fresh session. Replay stops at the first
// entry whose image doesn't match the candidate at the session cursor, since
// that means the exports have changed since the journal was written. That
// entry and everything after it are deleted, so that new actions follow
// directly on the replayed ones.
// Returns the number of entries applied.
func (j *Journal) Replay(s *Session) (int, error) {
	entries, err := j.Load()
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		cmd, err := command.Parse(e.Command)
		if err != nil {
			return i, err
		}
		if cmd != command.Undo {
			cur, ok := s.Current()
			if !ok || cur.ImageID != e.ImageID {
				j.log.Warnf("Review journal diverges from exports at entry %v (%v), discarding the remainder", e.Seq, e.ImageID)
				return i, j.truncate(e.Seq)
			}
		}
		s.Apply(cmd)
	}
	return len(entries), nil
}

// truncate deletes entries from seq onwards
func (j *Journal) truncate(seq int64) error {
	if err := j.db.Where("dataset = ? AND seq >= ?", j.dataset, seq).Delete(&JournalEntry{}).Error; err != nil {
		return fmt.Errorf("Failed to truncate review journal: %w", err)
	}
	j.seq = seq - 1
	return nil
}

// Clear deletes the journal of this dataset
func (j *Journal) Clear() error {
	if err := j.db.Where("dataset = ?", j.dataset).Delete(&JournalEntry{}).Error; err != nil {
		return err
	}
	j.seq = 0
	return nil
}
