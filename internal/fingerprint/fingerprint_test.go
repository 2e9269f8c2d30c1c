package fingerprint_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elliotnunn/zipdiff/internal/fingerprint"
)

func TestIdenticalTreesHashEqual(t *testing.T) {
	a := writeTree(t, map[string]string{"foo.txt": "hello", "bar.txt": "world"})
	b := writeTree(t, map[string]string{"foo.txt": "hello", "bar.txt": "world"})

	ra := fingerprint.Path(context.Background(), a)
	rb := fingerprint.Path(context.Background(), b)
	require.True(t, ra.IsOk())
	require.True(t, rb.IsOk())
	require.Equal(t, ra.Hash, rb.Hash)
	require.False(t, fingerprint.Inconsistent(ra, rb))
}

func TestDifferentContentHashesDiffer(t *testing.T) {
	a := writeTree(t, map[string]string{"foo.txt": "hello"})
	b := writeTree(t, map[string]string{"foo.txt": "goodbye"})

	ra := fingerprint.Path(context.Background(), a)
	rb := fingerprint.Path(context.Background(), b)
	require.NotEqual(t, ra.Hash, rb.Hash)
	require.True(t, fingerprint.Inconsistent(ra, rb))
}

func TestMissingOutputIsErrNotInconsistency(t *testing.T) {
	a := writeTree(t, map[string]string{"foo.txt": "hello"})
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	ra := fingerprint.Path(context.Background(), a)
	rb := fingerprint.Path(context.Background(), missing)
	require.True(t, ra.IsOk())
	require.False(t, rb.IsOk())
	require.False(t, fingerprint.Inconsistent(ra, rb))
}

func TestEmptyDirectoryReturnsNoHash(t *testing.T) {
	root := t.TempDir()

	r := fingerprint.Path(context.Background(), root)
	require.True(t, r.IsOk())
	require.Nil(t, r.Hash)
}

func TestScrambledNamesCollapseAcrossEachOtherButNotAcrossBoundary(t *testing.T) {
	withEmoji := writeTree(t, map[string]string{"\U0001F600.txt": "same"})
	withOtherNonAscii := writeTree(t, map[string]string{"éclair.txt": "same"})
	withPlainName := writeTree(t, map[string]string{"clair.txt": "same"})

	rEmoji := fingerprint.Path(context.Background(), withEmoji)
	rOther := fingerprint.Path(context.Background(), withOtherNonAscii)
	rPlain := fingerprint.Path(context.Background(), withPlainName)

	require.Equal(t, rEmoji.Hash, rOther.Hash)
	require.NotEqual(t, rEmoji.Hash, rPlain.Hash)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}
