package fuzzdriver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

// Parser describes one entry in the panel under test. Its position in the
// slice returned by LoadParsers is its index into every feature.Vector the
// driver builds, so that ordering must stay stable across a run.
type Parser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Version  string `json:"version"`
	Type     string `json:"type"`
	Language string `json:"language"`
}

// LoadParsers reads parsers.json from dir as an ordered JSON array, not a
// Go map — a map cannot preserve the panel's index ordering, and the
// pairwise inconsistency bitset depends on that ordering being stable
// across the whole run.
func LoadParsers(dir string) ([]Parser, error) {
	path := filepath.Join(dir, "parsers.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &zipmodel.Error{Kind: zipmodel.KindConfig, Op: "LoadParsers", Err: fmt.Errorf("read %s: %w", path, err)}
	}

	var parsers []Parser
	if err := json.Unmarshal(data, &parsers); err != nil {
		return nil, &zipmodel.Error{Kind: zipmodel.KindConfig, Op: "LoadParsers", Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	if len(parsers) == 0 {
		return nil, &zipmodel.Error{Kind: zipmodel.KindConfig, Op: "LoadParsers", Err: fmt.Errorf("%s declares no parsers", path)}
	}
	return parsers, nil
}
