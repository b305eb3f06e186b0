package history

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/PratikDhanave/water-history-service/internal/models"
)

// Log is the append-only record store the index is rebuilt from.
type Log interface {
	// ForEach streams persisted rows in file order.
	ForEach(fn func(models.LogRow)) error
	// Append durably writes records; an error means nothing was persisted.
	Append(records []models.StoredRecord) error
}

// dedupKey identifies a logical entry. Timestamp and amount stay strings so
// that rows read back from the log compare equal to freshly computed keys
// even when the persisted fields are not parseable numbers.
type dedupKey struct {
	deviceID  string
	timestamp string
	amountML  string
}

func newDedupKey(deviceID string, timestamp, amountML int64) dedupKey {
	return dedupKey{
		deviceID:  deviceID,
		timestamp: strconv.FormatInt(timestamp, 10),
		amountML:  strconv.FormatInt(amountML, 10),
	}
}

// Index is the in-memory dedup and id-assignment state derived from the
// history log. It is never persisted; Rebuild reconstructs it from scratch.
// Not safe for concurrent use: the ingestion Service guards it with its lock.
type Index struct {
	loaded bool

	seenKeys      map[dedupKey]struct{}
	idsByDevice   map[string]map[int64]struct{}
	maxIDByDevice map[string]int64
	idByKey       map[dedupKey]int64
}

// NewIndex returns an empty, not-yet-loaded index.
func NewIndex() *Index {
	idx := &Index{}
	idx.reset()
	return idx
}

func (ix *Index) reset() {
	ix.seenKeys = make(map[dedupKey]struct{})
	ix.idsByDevice = make(map[string]map[int64]struct{})
	ix.maxIDByDevice = make(map[string]int64)
	ix.idByKey = make(map[dedupKey]int64)
}

// Rebuild scans the log once and reconstructs the full index state. A row
// whose entry_id is not a plain unsigned integer still registers its dedup
// key; only the id bookkeeping for that row is skipped. Repeated rebuilds
// from the same log produce the same index.
func (ix *Index) Rebuild(log Log) error {
	ix.reset()
	ix.loaded = false

	err := log.ForEach(func(row models.LogRow) {
		key := dedupKey{
			deviceID:  strings.TrimSpace(row.DeviceID),
			timestamp: strings.TrimSpace(row.Timestamp),
			amountML:  strings.TrimSpace(row.AmountML),
		}
		ix.seenKeys[key] = struct{}{}

		entryID, ok := parseEntryID(row.EntryID)
		if !ok {
			return
		}
		ix.recordID(key.deviceID, entryID)
		if _, exists := ix.idByKey[key]; !exists {
			ix.idByKey[key] = entryID
		}
	})
	if err != nil {
		return goerr.Wrap(err, "failed to rebuild history index", goerr.T(TagStorage))
	}

	ix.loaded = true
	return nil
}

// Loaded reports whether the index reflects the persisted log.
func (ix *Index) Loaded() bool {
	return ix.loaded
}

// Seen reports whether a record with this key is already stored.
func (ix *Index) seen(key dedupKey) bool {
	_, ok := ix.seenKeys[key]
	return ok
}

func (ix *Index) idUsed(deviceID string, id int64) bool {
	_, ok := ix.idsByDevice[deviceID][id]
	return ok
}

func (ix *Index) recordID(deviceID string, id int64) {
	ids, ok := ix.idsByDevice[deviceID]
	if !ok {
		ids = make(map[int64]struct{})
		ix.idsByDevice[deviceID] = ids
	}
	ids[id] = struct{}{}
	if id > ix.maxIDByDevice[deviceID] {
		ix.maxIDByDevice[deviceID] = id
	}
}

// commit records an accepted entry: id bookkeeping plus dedup registration.
// First-writer-wins for idByKey.
func (ix *Index) commit(key dedupKey, id int64) {
	ix.recordID(key.deviceID, id)
	ix.seenKeys[key] = struct{}{}
	if _, exists := ix.idByKey[key]; !exists {
		ix.idByKey[key] = id
	}
}

// parseEntryID accepts only plain unsigned decimal ids; signs, spaces, and
// empty strings are rejected so a damaged row cannot poison id assignment.
func parseEntryID(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
