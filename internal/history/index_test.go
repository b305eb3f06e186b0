package history

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/PratikDhanave/water-history-service/internal/models"
)

// rowLog feeds canned rows to Rebuild without touching the filesystem.
type rowLog struct {
	rows []models.LogRow
}

func (l *rowLog) ForEach(fn func(models.LogRow)) error {
	for _, row := range l.rows {
		fn(row)
	}
	return nil
}

func (l *rowLog) Append(records []models.StoredRecord) error {
	for _, rec := range records {
		l.rows = append(l.rows, storedToRow(rec))
	}
	return nil
}

func storedToRow(rec models.StoredRecord) models.LogRow {
	return models.LogRow{
		DeviceID:    rec.DeviceID,
		EntryID:     strconv.FormatInt(rec.EntryID, 10),
		Timestamp:   strconv.FormatInt(rec.Timestamp, 10),
		AmountML:    strconv.FormatInt(rec.AmountML, 10),
		ReceivedUTC: rec.ReceivedUTC,
	}
}

func row(device, entryID, ts, amount string) models.LogRow {
	return models.LogRow{DeviceID: device, EntryID: entryID, Timestamp: ts, AmountML: amount}
}

func TestRebuildBuildsFullState(t *testing.T) {
	log := &rowLog{rows: []models.LogRow{
		row("phone", "1", "1000", "250"),
		row("phone", "5", "2000", "300"),
		row("tablet", "2", "1000", "250"),
		row("", "9", "3000", "100"),
	}}

	idx := NewIndex()
	gt.NoError(t, idx.Rebuild(log))
	gt.True(t, idx.Loaded())

	gt.Equal(t, len(idx.seenKeys), 4)
	gt.True(t, idx.seen(dedupKey{"phone", "1000", "250"}))
	gt.True(t, idx.seen(dedupKey{"", "3000", "100"}))

	gt.Equal(t, idx.maxIDByDevice["phone"], 5)
	gt.Equal(t, idx.maxIDByDevice["tablet"], 2)
	gt.Equal(t, idx.maxIDByDevice[""], 9)
	gt.True(t, idx.idUsed("phone", 1))
	gt.True(t, idx.idUsed("phone", 5))
	gt.Equal(t, idx.idByKey[dedupKey{"tablet", "1000", "250"}], 2)
}

func TestRebuildSkipsMalformedIDsButKeepsKeys(t *testing.T) {
	log := &rowLog{rows: []models.LogRow{
		row("phone", "abc", "1000", "250"),
		row("phone", "-5", "2000", "300"),
		row("phone", "", "3000", "100"),
		row("phone", " 7 ", "4000", "150"),
	}}

	idx := NewIndex()
	gt.NoError(t, idx.Rebuild(log))

	// Every row still guards against duplicates.
	gt.Equal(t, len(idx.seenKeys), 4)
	gt.True(t, idx.seen(dedupKey{"phone", "1000", "250"}))
	gt.True(t, idx.seen(dedupKey{"phone", "2000", "300"}))

	// Only the trimmable numeric id feeds the id bookkeeping.
	gt.Equal(t, idx.maxIDByDevice["phone"], 7)
	gt.Equal(t, len(idx.idsByDevice["phone"]), 1)
}

func TestRebuildFirstWriterWinsForKeyID(t *testing.T) {
	key := dedupKey{"phone", "1000", "250"}
	log := &rowLog{rows: []models.LogRow{
		row("phone", "3", "1000", "250"),
		row("phone", "8", "1000", "250"),
	}}

	idx := NewIndex()
	gt.NoError(t, idx.Rebuild(log))
	gt.Equal(t, idx.idByKey[key], 3)
}

func TestRebuildIsIdempotent(t *testing.T) {
	log := &rowLog{rows: []models.LogRow{
		row("phone", "1", "1000", "250"),
		row("phone", "oops", "2000", "300"),
		row("tablet", "4", "1000", "250"),
	}}

	first := NewIndex()
	gt.NoError(t, first.Rebuild(log))
	second := NewIndex()
	gt.NoError(t, second.Rebuild(log))
	gt.NoError(t, second.Rebuild(log))

	gt.True(t, reflect.DeepEqual(first.seenKeys, second.seenKeys))
	gt.True(t, reflect.DeepEqual(first.idsByDevice, second.idsByDevice))
	gt.True(t, reflect.DeepEqual(first.maxIDByDevice, second.maxIDByDevice))
	gt.True(t, reflect.DeepEqual(first.idByKey, second.idByKey))
}

func TestParseEntryID(t *testing.T) {
	cases := []struct {
		raw  string
		id   int64
		ok   bool
		name string
	}{
		{"42", 42, true, "plain"},
		{" 42 ", 42, true, "padded"},
		{"0", 0, true, "zero"},
		{"", 0, false, "empty"},
		{"-5", 0, false, "negative"},
		{"+5", 0, false, "signed"},
		{"4.2", 0, false, "decimal"},
		{"abc", 0, false, "alpha"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := parseEntryID(tc.raw)
			gt.Equal(t, ok, tc.ok)
			gt.Equal(t, id, tc.id)
		})
	}
}
