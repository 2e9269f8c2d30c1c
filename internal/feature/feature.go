// Package feature turns a set of per-parser fingerprint results into the
// compact bitset representation the corpus uses to decide whether a sample
// teaches it anything new.
package feature

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/elliotnunn/zipdiff/internal/fingerprint"
)

// Vector is a sample's behavior summary over a fixed panel of N parsers:
// which ones produced output at all, and which pairs of them disagreed.
type Vector struct {
	N              int
	OK             *bitset.BitSet
	Inconsistency  *bitset.BitSet
}

// New returns the all-zero vector for a panel of n parsers.
func New(n int) Vector {
	return Vector{
		N:             n,
		OK:            bitset.New(uint(n)),
		Inconsistency: bitset.New(uint(numPairs(n))),
	}
}

// numPairs is the number of unordered pairs over n parsers, the length of
// the Inconsistency bitset.
func numPairs(n int) uint {
	if n < 2 {
		return 0
	}
	return uint(n) * uint(n-1) / 2
}

// PairIndex maps an unordered pair (i, j), i != j, to its bit position in
// the Inconsistency bitset, using lexicographic (i, j) with i > j — the
// row-major lower triangle of the N x N comparison matrix.
func PairIndex(i, j int) uint {
	if i < j {
		i, j = j, i
	}
	return uint(i)*uint(i-1)/2 + uint(j)
}

// FromResults builds a Vector from one fingerprint result per parser, in
// panel order.
func FromResults(results []fingerprint.Result) Vector {
	v := New(len(results))
	for i, r := range results {
		if r.IsOk() {
			v.OK.Set(uint(i))
		}
	}
	for i := range results {
		for j := 0; j < i; j++ {
			if fingerprint.Inconsistent(results[i], results[j]) {
				v.Inconsistency.Set(PairIndex(i, j))
			}
		}
	}
	return v
}

// CoveredBy reports whether v is dominated by other: every bit v sets,
// other also sets, in both the ok and inconsistency bitsets. A vector
// covered by an existing corpus member teaches the corpus nothing new.
func (v Vector) CoveredBy(other Vector) bool {
	return other.OK.IsSuperSet(v.OK) && other.Inconsistency.IsSuperSet(v.Inconsistency)
}

// BitOrAssign merges other's set bits into v in place.
func (v Vector) BitOrAssign(other Vector) {
	v.OK.InPlaceUnion(other.OK)
	v.Inconsistency.InPlaceUnion(other.Inconsistency)
}

// InconsistencyCount returns the number of inconsistency bits set.
func (v Vector) InconsistencyCount() uint {
	return v.Inconsistency.Count()
}

// OkCount returns the number of parsers that produced output.
func (v Vector) OkCount() uint {
	return v.OK.Count()
}
