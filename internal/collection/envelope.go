package collection

import (
	"encoding/json"
	"fmt"
	"time"
)

const envelopeVersion = 1

type envelope[T any] struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Items   []T       `json:"items"`
}

type rawEnvelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Items   json.RawMessage `json:"items"`
}

func encode[T any](items []T, savedAt time.Time) (string, error) {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(envelope[T]{
		Version: envelopeVersion,
		SavedAt: savedAt.UTC(),
		Items:   items,
	})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// decode rejects anything that is not a version-1 envelope with an items array.
func decode[T any](payload string) ([]T, error) {
	var raw rawEnvelope
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if raw.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", raw.Version)
	}
	if len(raw.Items) == 0 || string(raw.Items) == "null" {
		return nil, fmt.Errorf("envelope has no items array")
	}
	var items []T
	if err := json.Unmarshal(raw.Items, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}
