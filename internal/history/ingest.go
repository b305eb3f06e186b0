package history

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/PratikDhanave/water-history-service/internal/logging"
	"github.com/PratikDhanave/water-history-service/internal/models"
)

// futureSkew is how far ahead of server time an entry timestamp may be.
const futureSkew = 5 * time.Minute

// SnapshotWriter exports newly accepted entries of one ingestion call.
type SnapshotWriter interface {
	WriteSnapshot(at time.Time, rows []models.SnapshotRow) (string, error)
}

// Service is the ingestion engine: it validates batches, deduplicates against
// the index, assigns per-device entry ids, appends to the log, and exports a
// snapshot of the newly accepted rows.
//
// One mutex spans the lazy index rebuild, dedup and id assignment, the log
// append, and the snapshot write, so two concurrent batches sharing a dedup
// key can never both believe they are first.
type Service struct {
	mu        sync.Mutex
	idx       *Index
	log       Log
	snapshots SnapshotWriter

	maxEntries int64
	maxAmount  int64

	now func() time.Time
}

// NewService creates the ingestion engine. maxEntries caps the batch length
// and maxAmount caps amountMl per entry.
func NewService(log Log, snapshots SnapshotWriter, maxEntries, maxAmount int64) *Service {
	return &Service{
		idx:        NewIndex(),
		log:        log,
		snapshots:  snapshots,
		maxEntries: maxEntries,
		maxAmount:  maxAmount,
		now:        time.Now,
	}
}

// accepted is one staged entry awaiting the log append.
type accepted struct {
	key dedupKey
	rec models.StoredRecord
}

// Ingest processes one batch for deviceID ("" is a valid bucket of its own)
// and returns the number of newly persisted entries. Duplicates are skipped
// silently and never counted. Validation failures reject the whole batch
// before any mutation; a failed log append leaves the index untouched.
func (s *Service) Ingest(ctx context.Context, deviceID string, entries []models.HistoryEntry) (int, error) {
	if err := s.validate(entries); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.idx.Loaded() {
		if err := s.idx.Rebuild(s.log); err != nil {
			return 0, err
		}
	}

	now := s.now()
	receivedUTC := now.UTC().Format(time.RFC3339)

	// Stage dedup and id decisions without touching the index, so a failed
	// append cannot leave the index ahead of the log.
	stagedKeys := make(map[dedupKey]struct{})
	stagedIDs := make(map[string]map[int64]struct{})
	stagedMax := make(map[string]int64)

	used := func(device string, id int64) bool {
		if s.idx.idUsed(device, id) {
			return true
		}
		_, ok := stagedIDs[device][id]
		return ok
	}
	currentMax := func(device string) int64 {
		max := s.idx.maxIDByDevice[device]
		if staged := stagedMax[device]; staged > max {
			max = staged
		}
		return max
	}

	var batch []accepted
	for _, entry := range entries {
		key := newDedupKey(deviceID, *entry.Timestamp, *entry.AmountML)
		if s.idx.seen(key) {
			continue
		}
		if _, ok := stagedKeys[key]; ok {
			continue
		}

		var entryID int64
		switch previous, hasPrevious := s.idx.idByKey[key]; {
		case entry.EntryID != nil && !used(deviceID, *entry.EntryID):
			entryID = *entry.EntryID
		case hasPrevious:
			entryID = previous
		default:
			entryID = currentMax(deviceID) + 1
		}
		if used(deviceID, entryID) {
			entryID = currentMax(deviceID) + 1
		}

		stagedKeys[key] = struct{}{}
		if stagedIDs[deviceID] == nil {
			stagedIDs[deviceID] = make(map[int64]struct{})
		}
		stagedIDs[deviceID][entryID] = struct{}{}
		if entryID > stagedMax[deviceID] {
			stagedMax[deviceID] = entryID
		}

		batch = append(batch, accepted{
			key: key,
			rec: models.StoredRecord{
				DeviceID:    deviceID,
				EntryID:     entryID,
				Timestamp:   *entry.Timestamp,
				AmountML:    *entry.AmountML,
				ReceivedUTC: receivedUTC,
			},
		})
	}

	if len(batch) == 0 {
		return 0, nil
	}

	records := make([]models.StoredRecord, 0, len(batch))
	for _, a := range batch {
		records = append(records, a.rec)
	}
	if err := s.log.Append(records); err != nil {
		return 0, goerr.Wrap(err, "failed to append history records", goerr.T(TagStorage))
	}

	// The append is durable; the staged decisions are now fact.
	for _, a := range batch {
		s.idx.commit(a.key, a.rec.EntryID)
	}

	rows := make([]models.SnapshotRow, 0, len(batch))
	for _, a := range batch {
		rows = append(rows, models.SnapshotRow{
			EntryID:   a.rec.EntryID,
			Timestamp: a.rec.Timestamp,
			AmountML:  a.rec.AmountML,
		})
	}
	path, err := s.snapshots.WriteSnapshot(now, rows)
	if err != nil {
		// The log and index already agree; only the derived export is missing.
		return 0, goerr.Wrap(err, "failed to write snapshot", goerr.T(TagStorage))
	}
	logging.From(ctx).Debug("wrote ingestion snapshot", "path", path, "rows", len(rows))

	return len(batch), nil
}

// validate applies the per-batch and per-entry constraints. It runs before
// any mutation so a rejected batch has no side effects.
func (s *Service) validate(entries []models.HistoryEntry) error {
	if len(entries) == 0 {
		return goerr.New("entries cannot be empty", goerr.T(TagValidation))
	}
	if int64(len(entries)) > s.maxEntries {
		return goerr.New("too many entries", goerr.T(TagTooLarge),
			goerr.V("count", len(entries)), goerr.V("max", s.maxEntries))
	}

	nowMS := s.now().UnixMilli()
	for i, entry := range entries {
		if entry.Timestamp == nil {
			return goerr.New("timestamp is required", goerr.T(TagValidation), goerr.V("index", i))
		}
		if entry.AmountML == nil {
			return goerr.New("amountMl is required", goerr.T(TagValidation), goerr.V("index", i))
		}
		if *entry.AmountML < 0 {
			return goerr.New("amount_ml must not be negative", goerr.T(TagValidation),
				goerr.V("index", i), goerr.V("amount_ml", *entry.AmountML))
		}
		if *entry.AmountML > s.maxAmount {
			return goerr.New("amount_ml too large", goerr.T(TagValidation),
				goerr.V("index", i), goerr.V("amount_ml", *entry.AmountML), goerr.V("max", s.maxAmount))
		}
		if *entry.Timestamp > nowMS+futureSkew.Milliseconds() {
			return goerr.New("timestamp too far in future", goerr.T(TagValidation),
				goerr.V("index", i), goerr.V("timestamp", *entry.Timestamp))
		}
	}
	return nil
}
