// Package fingerprint computes a canonical content hash of a directory
// tree written by a ZIP parser under test, collapsing incidental
// differences (which arbitrary name a garbage entry landed at) while
// preserving semantic ones (what bytes actually came out).
package fingerprint

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"
)

const (
	tagName      byte = 'N'
	tagScrambled byte = 'S'
	tagSymlink   byte = 'L'
)

// Result is the outcome of fingerprinting one parser's output: either a
// canonical hash (nil if the tree is empty but the parser still ran
// successfully) or an error, most commonly the output path never having
// been created at all.
type Result struct {
	Hash []byte
	Err  error
}

// IsOk reports whether the parser ran and its output could be fingerprinted.
func (r Result) IsOk() bool { return r.Err == nil }

// Inconsistent reports whether a and b are a genuine disagreement: both Ok
// and differently hashed. One Ok and one Err is a liveness difference, not
// an inconsistency, and is deliberately never credited here.
func Inconsistent(a, b Result) bool {
	if !a.IsOk() || !b.IsOk() {
		return false
	}
	return !bytes.Equal(a.Hash, b.Hash)
}

// Path fingerprints the directory tree rooted at root. A root that does not
// exist, or any filesystem error encountered while walking it, is reported
// as Result.Err rather than a Go error return, since a parser failing to
// produce output is an expected, frequent outcome the caller needs to fold
// into its feature vector.
func Path(ctx context.Context, root string) Result {
	hash, err := hashEntry(ctx, root, "")
	if err != nil {
		return Result{Err: err}
	}
	return Result{Hash: hash}
}

// hashEntry computes the 32-byte digest representing the filesystem entry
// at path, or nil if path is an empty directory. name is the entry's name
// as seen by its parent, used only for tagging; at the root it is ignored.
func hashEntry(ctx context.Context, path string, name string) ([]byte, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: stat %s: %w", path, err)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			return nil, fmt.Errorf("fingerprint: readlink %s: %w", path, err)
		}
		h := blake3.New()
		h.Write([]byte{tagSymlink})
		h.Write([]byte(target))
		return h.Sum(nil), nil

	case info.IsDir():
		return hashDir(ctx, path, name)

	default:
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("fingerprint: read %s: %w", path, err)
		}
		fileHash := blake3.Sum256(content)
		return taggedHash(name, fileHash[:]), nil
	}
}

// hashDir aggregates a directory's children into a single digest, or
// returns (nil, nil) if it has none worth hashing — an empty directory is
// indistinguishable from one whose only children were themselves empty
// directories, which is the intended collapse.
func hashDir(ctx context.Context, path string, name string) ([]byte, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: readdir %s: %w", path, err)
	}

	childHashes := make([][]byte, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			h, err := hashEntry(gctx, filepath.Join(path, entry.Name()), entry.Name())
			if err != nil {
				return err
			}
			childHashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var present [][]byte
	for _, h := range childHashes {
		if h != nil {
			present = append(present, h)
		}
	}
	if len(present) == 0 {
		return nil, nil
	}

	sort.Slice(present, func(i, j int) bool { return bytes.Compare(present[i], present[j]) < 0 })

	h := blake3.New()
	for _, child := range present {
		h.Write(child)
	}
	digest := h.Sum(nil)

	if name == "" {
		return digest, nil
	}
	return taggedHash(name, digest), nil
}

// taggedHash wraps an entry's own hash (file content or aggregated
// subdirectory hash) with a name-classification tag: identifiable names
// carry their bytes into the hash, everything else collapses to a single
// bucket regardless of what the name actually was.
func taggedHash(name string, inner []byte) []byte {
	h := blake3.New()
	if isIdentifiableName(name) {
		h.Write([]byte{tagName})
		h.Write([]byte(name))
	} else {
		h.Write([]byte{tagScrambled})
	}
	h.Write(inner)
	return h.Sum(nil)
}

// isIdentifiableName reports whether name consists only of ASCII
// alphanumerics and the characters . _ - [ ], the set this format treats
// as meaningful enough to preserve rather than collapse.
func isIdentifiableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-' || r == '[' || r == ']':
		default:
			return false
		}
	}
	return true
}
