package store

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/m-mizutani/goerr/v2"

	"github.com/PratikDhanave/water-history-service/internal/models"
)

// historyHeader is the first row of the history log file.
var historyHeader = []string{"device_id", "entry_id", "timestamp", "amount_ml", "received_utc"}

// HistoryLog is the durable append-only store for accepted history entries.
// The file is the source of truth; the in-memory index is rebuilt from it.
type HistoryLog struct {
	path string
}

// NewHistoryLog creates a log backed by the CSV file at path. The file is
// created lazily on first append.
func NewHistoryLog(path string) *HistoryLog {
	return &HistoryLog{path: path}
}

// Path returns the location of the backing file.
func (l *HistoryLog) Path() string {
	return l.path
}

// Append durably writes records to the end of the log, creating the file and
// its header row when needed. Either all records are written and synced or an
// error is returned; callers must treat an error as "nothing persisted".
func (l *HistoryLog) Append(records []models.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}

	_, statErr := os.Stat(l.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return goerr.Wrap(err, "failed to open history log", goerr.V("path", l.path))
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(historyHeader); err != nil {
			return goerr.Wrap(err, "failed to write history log header")
		}
	}
	for _, rec := range records {
		row := []string{
			rec.DeviceID,
			strconv.FormatInt(rec.EntryID, 10),
			strconv.FormatInt(rec.Timestamp, 10),
			strconv.FormatInt(rec.AmountML, 10),
			rec.ReceivedUTC,
		}
		if err := w.Write(row); err != nil {
			return goerr.Wrap(err, "failed to write history record")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return goerr.Wrap(err, "failed to flush history log")
	}
	if err := f.Sync(); err != nil {
		return goerr.Wrap(err, "failed to sync history log")
	}
	return nil
}

// ForEach streams every persisted row to fn in file order. Short or ragged
// rows are skipped; fields are passed through as raw strings so the caller
// can decide how much of a malformed row is still usable. A missing file is
// an empty log.
func (l *HistoryLog) ForEach(fn func(models.LogRow)) error {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return goerr.Wrap(err, "failed to open history log", goerr.V("path", l.path))
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return goerr.Wrap(err, "failed to read history log", goerr.V("path", l.path))
		}
		if header {
			header = false
			continue
		}
		if len(row) < 4 {
			continue
		}
		rec := models.LogRow{
			DeviceID:  row[0],
			EntryID:   row[1],
			Timestamp: row[2],
			AmountML:  row[3],
		}
		if len(row) > 4 {
			rec.ReceivedUTC = row[4]
		}
		fn(rec)
	}
}
