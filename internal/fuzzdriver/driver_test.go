package fuzzdriver_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elliotnunn/zipdiff/internal/fuzzdriver"
	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func sampleArchiveBytes(t *testing.T) []byte {
	t.Helper()
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "hello.txt", []byte("hello world")))
	require.NoError(t, a.Finalize())

	path := filepath.Join(t.TempDir(), "sample.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = a.WriteTo(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func newTestDriver(t *testing.T) *fuzzdriver.Driver {
	t.Helper()
	cfg := fuzzdriver.Config{
		BatchSize:  4,
		ParsersDir: t.TempDir(),
		InputDir:   t.TempDir(),
		OutputDir:  t.TempDir(),
		SamplesDir: t.TempDir(),
		ResultsDir: t.TempDir(),
	}
	return fuzzdriver.New(cfg, nil, discardLogger(), 1)
}

func TestSeedFromFileAdmitsFirstSeedWithNoParsers(t *testing.T) {
	d := newTestDriver(t)

	data := sampleArchiveBytes(t)
	path := filepath.Join(t.TempDir(), "seed.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, d.SeedFromFile(path))
	require.Len(t, d.Corpus.Seeds, 1)
}

func TestSeedFromFileRejectsDuplicateContent(t *testing.T) {
	d := newTestDriver(t)

	data := sampleArchiveBytes(t)
	path := filepath.Join(t.TempDir(), "seed.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	require.NoError(t, d.SeedFromFile(path))
	require.NoError(t, d.SeedFromFile(path))
	require.Len(t, d.Corpus.Seeds, 1)
}

func TestSeedFromArchiveAdmitsStructuredSeed(t *testing.T) {
	d := newTestDriver(t)

	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "a.txt", []byte("contents")))
	require.NoError(t, a.Finalize())

	require.NoError(t, d.SeedFromArchive(a))
	require.Len(t, d.Corpus.Seeds, 1)
}

func TestSeedFromFileMissingFileReturnsIOError(t *testing.T) {
	d := newTestDriver(t)
	err := d.SeedFromFile(filepath.Join(t.TempDir(), "missing.zip"))
	require.Error(t, err)
	var zerr *zipmodel.Error
	require.ErrorAs(t, err, &zerr)
	require.Equal(t, zipmodel.KindIO, zerr.Kind)
}

func TestDefaultBatchSizeNeverReturnsLessThanOne(t *testing.T) {
	logger := discardLogger()
	batch := fuzzdriver.DefaultBatchSize(logger, t.TempDir())
	require.GreaterOrEqual(t, batch, 1)
}

func TestPersistSampleMovesSmallOutputVerbatim(t *testing.T) {
	cfg := fuzzdriver.Config{
		OutputDir:  t.TempDir(),
		SamplesDir: t.TempDir(),
		ResultsDir: t.TempDir(),
	}
	parsers := []fuzzdriver.Parser{{ID: "p1"}}

	hash := "deadbeef"
	outDir := fuzzdriver.ParserOutputDir(cfg, hash, "p1")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "file.txt"), []byte("x"), 0o644))

	require.NoError(t, fuzzdriver.PersistSample(cfg, hash, []byte("zipbytes"), parsers))

	samplePath := filepath.Join(cfg.SamplesDir, hash[:2], hash+".zip")
	require.FileExists(t, samplePath)

	resultPath := filepath.Join(cfg.ResultsDir, hash, "p1", "file.txt")
	require.FileExists(t, resultPath)
}

func TestPersistSampleSkipsParserWithNoOutput(t *testing.T) {
	cfg := fuzzdriver.Config{
		OutputDir:  t.TempDir(),
		SamplesDir: t.TempDir(),
		ResultsDir: t.TempDir(),
	}
	parsers := []fuzzdriver.Parser{{ID: "missing"}}

	require.NoError(t, fuzzdriver.PersistSample(cfg, "abc123", []byte("zipbytes"), parsers))
	require.NoDirExists(t, filepath.Join(cfg.ResultsDir, "abc123"))
}

func TestLoadParsersPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	manifest := `[{"id":"b","name":"B"},{"id":"a","name":"A"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parsers.json"), []byte(manifest), 0o644))

	parsers, err := fuzzdriver.LoadParsers(dir)
	require.NoError(t, err)
	require.Len(t, parsers, 2)
	require.Equal(t, "b", parsers[0].ID)
	require.Equal(t, "a", parsers[1].ID)
}

func TestLoadParsersRejectsEmptyList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "parsers.json"), []byte(`[]`), 0o644))

	_, err := fuzzdriver.LoadParsers(dir)
	require.Error(t, err)
}
