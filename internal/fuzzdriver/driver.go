// Package fuzzdriver wires the binary model, mutation engine, corpus, and
// fingerprinting packages into the actual differential-fuzzing loop: pick
// a seed, mutate it, run the parser panel, score the result, repeat.
package fuzzdriver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/elliotnunn/zipdiff/internal/corpus"
	"github.com/elliotnunn/zipdiff/internal/feature"
	"github.com/elliotnunn/zipdiff/internal/fingerprint"
	"github.com/elliotnunn/zipdiff/internal/mutate"
	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

// Driver holds every piece of state one fuzzing run needs. None of it is
// package-level: a caller can build several independent Drivers (e.g. in
// tests) without them interfering.
type Driver struct {
	Config  Config
	Parsers []Parser
	Logger  *slog.Logger

	Corpus *corpus.Corpus
	Engine *mutate.Engine
	rng    *rand.Rand

	// structured retains the pre-transcode mutate.Input (which may still
	// carry a live *zipmodel.Archive) for seeds admitted from a structured
	// mutation, keyed by content hash. A seed absent here — including
	// every seed loaded with SeedFromFile — is only ever mutated in its
	// raw Bytes form, since nothing in this package parses a ZIP byte
	// stream back into an Archive.
	structured map[[32]byte]mutate.Input

	iteration int
	stats     Stats
}

// New builds a driver ready to seed and run.
func New(cfg Config, parsers []Parser, logger *slog.Logger, seed int64) *Driver {
	rng := rand.New(rand.NewSource(seed))
	engine := mutate.NewEngine()
	engine.ZipUCB.ArgmaxAblation = cfg.ArgmaxUCB
	engine.ByteUCB.ArgmaxAblation = cfg.ArgmaxUCB
	engine.ByteMutationOnly = cfg.ByteMutationOnly

	return &Driver{
		Config:     cfg,
		Parsers:    parsers,
		Logger:     logger,
		Corpus:     corpus.New(rng),
		Engine:     engine,
		rng:        rng,
		structured: make(map[[32]byte]mutate.Input),
		stats:      Stats{Config: cfg},
	}
}

// SeedFromFile admits a pre-built ZIP file as an initial corpus member,
// giving it an empty mutation history.
func (d *Driver) SeedFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "SeedFromFile", Err: err}
	}
	return d.admitRawBytes(data, nil)
}

// SeedFromArchive admits a freshly-built, already-finalized Archive as an
// initial corpus member, keeping it available in structured form so the
// first rounds of mutation can still reach the ZIP-level operator bank
// instead of falling back to byte mutation immediately.
func (d *Driver) SeedFromArchive(a *zipmodel.Archive) error {
	data := inputBytes(mutate.Input{Archive: a})
	if data == nil {
		return &zipmodel.Error{Kind: zipmodel.KindEncoding, Op: "SeedFromArchive", Err: fmt.Errorf("archive failed to serialize")}
	}
	hash := blake3.Sum256(data)
	d.structured[hash] = mutate.Input{Archive: a}
	return d.admitRawBytes(data, nil)
}

func (d *Driver) admitRawBytes(data []byte, history []string) error {
	hash := blake3.Sum256(data)
	if d.Corpus.HasContentHash(hash) {
		return nil
	}

	results, err := d.runPanelOnSample(hash, data)
	if err != nil {
		return err
	}
	f := feature.FromResults(results)

	if !d.Corpus.IsFeatureInteresting(f) {
		return nil
	}

	seed := corpus.NewSeed(data, hash, f, history)
	d.Corpus.InsertSeed(seed)
	return nil
}

// runPanelOnSample assumes the panel has already run for the current batch
// and simply reads back each parser's already-produced output for this
// sample. It never returns a non-nil error: a missing or unreadable output
// becomes an Err result for that parser.
func (d *Driver) runPanelOnSample(hash [32]byte, data []byte) ([]fingerprint.Result, error) {
	hashHex := fmt.Sprintf("%x", hash)
	results := make([]fingerprint.Result, len(d.Parsers))
	for i, p := range d.Parsers {
		dir := ParserOutputDir(d.Config, hashHex, p.ID)
		results[i] = fingerprint.Path(context.Background(), dir)
	}
	return results, nil
}

// RunIteration performs exactly one driver iteration: build weights,
// produce a batch of unique samples, run the parser panel once, score
// every sample, admit the interesting ones, and credit the bandit.
func (d *Driver) RunIteration(ctx context.Context) (IterationStats, error) {
	d.iteration++
	stat := IterationStats{Iteration: d.iteration}

	if err := os.RemoveAll(d.Config.InputDir); err != nil {
		return stat, &zipmodel.Error{Kind: zipmodel.KindIO, Op: "RunIteration", Err: err}
	}
	if err := os.MkdirAll(d.Config.InputDir, 0o755); err != nil {
		return stat, &zipmodel.Error{Kind: zipmodel.KindIO, Op: "RunIteration", Err: err}
	}

	type pending struct {
		hash    [32]byte
		data    []byte
		out     mutate.Input
		handles []mutate.Handle
	}

	seen := map[[32]byte]bool{}
	var batch []pending

	weights := d.Corpus.ConstructWeights()
	for len(batch) < d.Config.BatchSize && len(d.Corpus.Seeds) > 0 {
		idx := d.Corpus.SelectSeed(weights)
		d.Corpus.RecordSelection(idx)
		base := d.Corpus.Seeds[idx]

		input, ok := d.structured[base.ContentHash]
		if !ok {
			input = mutate.Input{Bytes: append([]byte(nil), base.Input...)}
		}
		mutateTimes := mutate.RandLen(d.rng)
		out, handles := d.Engine.GenerateSample(d.rng, input, mutateTimes)
		data := inputBytes(out)
		if data == nil {
			continue
		}

		hash := blake3.Sum256(data)
		if seen[hash] || d.Corpus.HasContentHash(hash) {
			continue
		}
		seen[hash] = true
		batch = append(batch, pending{hash: hash, data: data, out: out, handles: handles})
	}
	stat.SamplesTried = len(batch)

	for _, b := range batch {
		hashHex := fmt.Sprintf("%x", b.hash)
		if err := os.WriteFile(filepath.Join(d.Config.InputDir, hashHex+".zip"), b.data, 0o644); err != nil {
			return stat, &zipmodel.Error{Kind: zipmodel.KindIO, Op: "RunIteration", Err: err}
		}
	}

	if len(batch) > 0 {
		if err := RunPanel(ctx, d.Config, d.Logger); err != nil {
			return stat, err
		}
	}

	for _, b := range batch {
		results, err := d.runPanelOnSample(b.hash, b.data)
		if err != nil {
			return stat, err
		}
		f := feature.FromResults(results)
		interesting := d.Corpus.IsFeatureInteresting(f)
		d.Engine.RecordUCB(b.handles, interesting)

		if interesting {
			history := append([]string(nil), historyLabels(b.handles)...)
			seed := corpus.NewSeed(b.data, b.hash, f, history)
			d.Corpus.InsertSeed(seed)
			if b.out.Archive != nil {
				d.structured[b.hash] = b.out
			}
			if err := PersistSample(d.Config, fmt.Sprintf("%x", b.hash), b.data, d.Parsers); err != nil {
				return stat, err
			}
			stat.SamplesAdmitted++
		}
	}

	stat.CorpusSize = len(d.Corpus.Seeds)
	d.stats.Iterations = append(d.stats.Iterations, stat)
	return stat, nil
}

// Run executes iterations until the optional wall-clock budget elapses.
func (d *Driver) Run(ctx context.Context) error {
	var deadline time.Time
	if d.Config.StopAfterSeconds > 0 {
		deadline = time.Now().Add(time.Duration(d.Config.StopAfterSeconds) * time.Second)
	}

	for {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		stat, err := d.RunIteration(ctx)
		if err != nil {
			return err
		}
		d.Logger.Info("iteration complete",
			slog.Int("iteration", stat.Iteration),
			slog.Int("samples_tried", stat.SamplesTried),
			slog.Int("samples_admitted", stat.SamplesAdmitted),
			slog.Int("corpus_size", stat.CorpusSize))

		d.stats.CorpusSize = len(d.Corpus.Seeds)
		if d.Config.StatsFile != "" {
			if err := d.stats.WriteFile(d.Config.StatsFile); err != nil {
				return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "Run", Err: err}
			}
		}
	}
	return nil
}

func inputBytes(in mutate.Input) []byte {
	if in.Bytes != nil {
		return in.Bytes
	}
	if in.Archive != nil {
		var buf []byte
		w := &byteSliceWriter{buf: &buf}
		if _, err := in.Archive.WriteTo(w); err != nil {
			return nil
		}
		return buf
	}
	return nil
}

type byteSliceWriter struct{ buf *[]byte }

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}

func historyLabels(handles []mutate.Handle) []string {
	labels := make([]string, len(handles))
	for i, h := range handles {
		switch h.Kind {
		case mutate.ZipArmHandle:
			labels[i] = fmt.Sprintf("zip#%d", h.Index)
		case mutate.ByteArmHandle:
			labels[i] = fmt.Sprintf("byte#%d", h.Index)
		}
	}
	return labels
}
