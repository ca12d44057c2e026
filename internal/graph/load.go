package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrMissingEntities  = errors.New("invalid data format: missing entities")
	ErrMissingRelations = errors.New("invalid data format: missing relations")
)

// Decode reads a dataset document. Both top-level keys must be present;
// their elements are taken as-is, so entries with missing fields come through
// as zero values.
func Decode(r io.Reader) (Dataset, error) {
	var doc struct {
		Entities  *[]Entity   `json:"entities"`
		Relations *[]Relation `json:"relations"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	if doc.Entities == nil {
		return Dataset{}, ErrMissingEntities
	}
	if doc.Relations == nil {
		return Dataset{}, ErrMissingRelations
	}
	return Dataset{Entities: *doc.Entities, Relations: *doc.Relations}, nil
}

// LoadFile decodes the dataset stored at path.
func LoadFile(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}
