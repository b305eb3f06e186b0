package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/PratikDhanave/water-history-service/internal/models"
	"github.com/PratikDhanave/water-history-service/internal/store"
)

func TestSnapshotNameFromLocalMinute(t *testing.T) {
	dir := t.TempDir()
	snaps := store.NewSnapshotStore(dir)

	at := time.Date(2026, 9, 1, 14, 7, 59, 0, time.Local)
	path, err := snaps.WriteSnapshot(at, []models.SnapshotRow{
		{EntryID: 1, Timestamp: 1000, AmountML: 250},
	})
	gt.NoError(t, err)
	gt.Equal(t, filepath.Base(path), "water_export_20260901_1407.csv")

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.Equal(t, string(data), "id,timestamp,amount_ml\n1,1000,250\n")
}

func TestSnapshotSameMinuteOverwrites(t *testing.T) {
	dir := t.TempDir()
	snaps := store.NewSnapshotStore(dir)
	at := time.Date(2026, 9, 1, 14, 7, 0, 0, time.Local)

	first, err := snaps.WriteSnapshot(at, []models.SnapshotRow{
		{EntryID: 1, Timestamp: 1000, AmountML: 250},
		{EntryID: 2, Timestamp: 2000, AmountML: 300},
	})
	gt.NoError(t, err)

	second, err := snaps.WriteSnapshot(at.Add(30*time.Second), []models.SnapshotRow{
		{EntryID: 3, Timestamp: 3000, AmountML: 100},
	})
	gt.NoError(t, err)
	gt.Equal(t, first, second)

	data, err := os.ReadFile(second)
	gt.NoError(t, err)
	gt.Equal(t, string(data), "id,timestamp,amount_ml\n3,3000,100\n")

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(1)
}
