package store

import (
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"

	"github.com/PratikDhanave/water-history-service/internal/models"
)

// DeviceStore persists device metadata records as a JSON array, rewritten in
// full on each append. Fine at this scale; the history log shows the
// append-only alternative if the device list ever grows.
type DeviceStore struct {
	path string
}

// NewDeviceStore creates a store backed by the JSON file at path.
func NewDeviceStore(path string) *DeviceStore {
	return &DeviceStore{path: path}
}

// Append adds record to the device list. A missing, empty, corrupt, or
// non-array file is treated as an empty list rather than failing the request.
func (s *DeviceStore) Append(record models.DeviceRecord) error {
	records := s.load()
	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode device records")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write device records", goerr.V("path", s.path))
	}
	return nil
}

// List returns all stored device records.
func (s *DeviceStore) List() []models.DeviceRecord {
	return s.load()
}

func (s *DeviceStore) load() []models.DeviceRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var records []models.DeviceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}
