package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Dataset Serialization API
// =============================================================================

// MarshalDataset converts a dataset to indented JSON bytes.
func MarshalDataset(d *Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDataset(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDataset writes a dataset as JSON to an io.Writer.
func WriteDataset(d *Dataset, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteDatasetFile writes a dataset to a JSON file.
// The file is created with 0644 permissions.
func WriteDatasetFile(d *Dataset, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDataset(d, f)
}

// ReadDataset decodes a JSON dataset from an io.Reader.
//
// Missing edges are tolerated: when the input carries formulas but no edges,
// the edge set is recomputed with [BuildEdges] so hand-written seed files do
// not have to maintain it.
func ReadDataset(r io.Reader) (*Dataset, error) {
	var d Dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(d.Edges) == 0 && len(d.Formulas) > 0 {
		d.Edges = BuildEdges(d.Formulas)
	}
	return &d, nil
}

// ReadDatasetFile reads a JSON file and returns the decoded dataset.
func ReadDatasetFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(f)
}
