package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/PratikDhanave/water-history-service/internal/models"
)

// SnapshotStore writes per-ingestion export files of newly accepted entries.
// Files are named from the local date and minute, so a second ingestion in
// the same minute overwrites the previous snapshot.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a store writing into dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// WriteSnapshot writes rows as a small CSV export and returns the file path.
func (s *SnapshotStore) WriteSnapshot(at time.Time, rows []models.SnapshotRow) (string, error) {
	name := fmt.Sprintf("water_export_%s.csv", at.Format("20060102_1504"))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create snapshot", goerr.V("path", path))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "timestamp", "amount_ml"}); err != nil {
		return "", goerr.Wrap(err, "failed to write snapshot header")
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.EntryID, 10),
			strconv.FormatInt(row.Timestamp, 10),
			strconv.FormatInt(row.AmountML, 10),
		}
		if err := w.Write(record); err != nil {
			return "", goerr.Wrap(err, "failed to write snapshot row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", goerr.Wrap(err, "failed to flush snapshot")
	}
	return path, nil
}
