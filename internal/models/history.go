package models

// HistoryEntry is one inbound water-intake entry inside a POST /history batch.
// EntryID is the caller's local id and may be absent; the server assigns one
// when it is missing or already taken for the device.
type HistoryEntry struct {
	EntryID   *int64 `json:"entryId,omitempty"`
	Timestamp *int64 `json:"timestamp"` // Unix epoch millis
	AmountML  *int64 `json:"amountMl"`
}

// HistoryPayload is the POST /history request body.
// An absent deviceId maps to the empty-string device bucket.
type HistoryPayload struct {
	DeviceID string         `json:"deviceId,omitempty"`
	Entries  []HistoryEntry `json:"entries"`
}

// HistoryResponse reports how many entries were newly persisted.
// Duplicates are skipped silently and never counted.
type HistoryResponse struct {
	Saved int `json:"saved"`
}

// StoredRecord is one accepted entry as persisted in the history log.
// Records are append-only; nothing in the service mutates or deletes them.
type StoredRecord struct {
	DeviceID    string
	EntryID     int64
	Timestamp   int64
	AmountML    int64
	ReceivedUTC string
}

// LogRow is one raw row read back from the history log. Fields stay strings
// so that rows with malformed identifiers can still feed dedup bookkeeping.
type LogRow struct {
	DeviceID    string
	EntryID     string
	Timestamp   string
	AmountML    string
	ReceivedUTC string
}

// SnapshotRow is one newly accepted entry in a per-ingestion export file.
type SnapshotRow struct {
	EntryID   int64
	Timestamp int64
	AmountML  int64
}
