package fuzzdriver

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

// RunPanel launches the external parser panel once: prepare.sh with
// INPUT_DIR/OUTPUT_DIR set, then docker compose up, exactly as the external
// interfaces contract describes. This is the driver's sole blocking I/O
// step per iteration; the only way to interrupt it is cancelling ctx, which
// kills whichever of the two subprocesses is running.
func RunPanel(ctx context.Context, cfg Config, logger *slog.Logger) error {
	prepare := exec.CommandContext(ctx, filepath.Join(cfg.ParsersDir, "prepare.sh"))
	prepare.Env = append(os.Environ(),
		"INPUT_DIR="+cfg.InputDir,
		"OUTPUT_DIR="+cfg.OutputDir,
	)
	prepare.Dir = cfg.ParsersDir
	if out, err := prepare.CombinedOutput(); err != nil {
		return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "RunPanel", Err: fmt.Errorf("prepare.sh: %w (%s)", err, out)}
	}

	compose := exec.CommandContext(ctx, "docker", "compose", "up", "--abort-on-container-exit")
	compose.Dir = cfg.ParsersDir
	if out, err := compose.CombinedOutput(); err != nil {
		return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "RunPanel", Err: fmt.Errorf("docker compose up: %w (%s)", err, out)}
	}

	logger.Info("parser panel completed")
	return nil
}

// ParserOutputDir returns where a given parser's output tree for sampleHash
// lands under the driver's output directory.
func ParserOutputDir(cfg Config, sampleHash, parserID string) string {
	return filepath.Join(cfg.OutputDir, sampleHash, parserID)
}

// PersistSample moves an interesting sample's bytes into the content-
// addressed samples directory and, per parser, either moves its output
// tree into the results directory verbatim or archives it as tar+zstd if
// it exceeds archiveThreshold.
func PersistSample(cfg Config, sampleHash string, sampleBytes []byte, parsers []Parser) error {
	prefix := sampleHash[:2]
	samplePath := filepath.Join(cfg.SamplesDir, prefix, sampleHash+".zip")
	if err := os.MkdirAll(filepath.Dir(samplePath), 0o755); err != nil {
		return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "PersistSample", Err: err}
	}
	if err := os.WriteFile(samplePath, sampleBytes, 0o644); err != nil {
		return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "PersistSample", Err: err}
	}

	for _, p := range parsers {
		src := ParserOutputDir(cfg, sampleHash, p.ID)
		if _, err := os.Stat(src); err != nil {
			continue // parser produced no output at all; feature builder already recorded this as Err
		}

		dstDir := filepath.Join(cfg.ResultsDir, sampleHash)
		if err := os.MkdirAll(dstDir, 0o755); err != nil {
			return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "PersistSample", Err: err}
		}

		size, err := dirSize(src)
		if err != nil {
			return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "PersistSample", Err: err}
		}

		if size > archiveThreshold {
			archivePath := filepath.Join(dstDir, p.ID+".tar.zst")
			if err := archiveDir(src, archivePath); err != nil {
				return err
			}
			if err := os.RemoveAll(src); err != nil {
				return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "PersistSample", Err: err}
			}
		} else {
			dst := filepath.Join(dstDir, p.ID)
			if err := os.Rename(src, dst); err != nil {
				return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "PersistSample", Err: err}
			}
		}
	}
	return nil
}

// dirSize sums the apparent size of every regular file under root.
func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// archiveDir streams root into a tar archive compressed with a
// concurrent zstd encoder, matching the original implementation's
// multithreaded tar+zstd archival of oversized parser outputs.
func archiveDir(root, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "archiveDir", Err: err}
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(4))
	if err != nil {
		return &zipmodel.Error{Kind: zipmodel.KindIO, Op: "archiveDir", Err: err}
	}
	defer zw.Close()

	tw := tar.NewWriter(zw)
	defer tw.Close()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
}
