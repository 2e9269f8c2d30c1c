package fuzzdriver

import (
	"encoding/json"
	"os"
)

// ArmStats is one UCB arm's decayed trial/score totals at the time stats
// were written, plus the human-readable label the driver assigned it.
type ArmStats struct {
	Label  string  `json:"label"`
	Trials float64 `json:"trials"`
	Score  float64 `json:"score"`
}

// IterationStats summarizes one completed batch.
type IterationStats struct {
	Iteration      int `json:"iteration"`
	SamplesTried   int `json:"samples_tried"`
	SamplesAdmitted int `json:"samples_admitted"`
	CorpusSize     int `json:"corpus_size"`
}

// PairStats records the best-witnessed disagreement, or lack of one, for a
// single pair of parsers.
type PairStats struct {
	ParserA    string `json:"parser_a"`
	ParserB    string `json:"parser_b"`
	BestSeedID string `json:"best_seed_id,omitempty"`
	Consistent bool   `json:"consistent"`
}

// Stats is the full contents of stats.json: enough to resume a mental model
// of a run without re-reading every sample.
type Stats struct {
	Config     Config            `json:"config"`
	CorpusSize int               `json:"corpus_size"`
	Iterations []IterationStats  `json:"iterations"`
	ZipArms    []ArmStats        `json:"zip_arms"`
	ByteArms   []ArmStats        `json:"byte_arms"`
	Pairs      []PairStats       `json:"pairs"`
}

// WriteFile marshals s as indented JSON to path, overwriting any existing
// file.
func (s Stats) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
