package mutate

import (
	"math/rand"

	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

// HeaderLocation says which of an entry's two header copies a ZIP mutator
// should touch.
type HeaderLocation int

const (
	LocationLFH HeaderLocation = iota
	LocationCDH
	LocationBoth
)

// RandHeaderLocation draws a location with weights 1:1:3 (LFH : CDH :
// Both), matching the probability split most ZIP mutators use.
func RandHeaderLocation(rng *rand.Rand) HeaderLocation {
	switch rng.Intn(5) {
	case 0:
		return LocationLFH
	case 1:
		return LocationCDH
	default:
		return LocationBoth
	}
}

// RandEntry picks a uniformly random file index from an archive, or -1 if
// it has none.
func RandEntry(rng *rand.Rand, a *zipmodel.Archive) int {
	if len(a.Files) == 0 {
		return -1
	}
	return rng.Intn(len(a.Files))
}

// RandCDIndex picks a uniformly random central directory entry index from
// an archive, or -1 if it has none.
func RandCDIndex(rng *rand.Rand, a *zipmodel.Archive) int {
	if len(a.CD) == 0 {
		return -1
	}
	return rng.Intn(len(a.CD))
}

// RandHeaderIndex draws an index bounded by whichever sequence loc applies
// to: len(Files) for LocationLFH, len(CD) for LocationCDH, and
// min(len(Files), len(CD)) for LocationBoth, since a "both" mutation has to
// land on an index valid in both sequences. Returns -1 if the relevant
// sequence is empty.
func RandHeaderIndex(rng *rand.Rand, a *zipmodel.Archive, loc HeaderLocation) int {
	n := 0
	switch loc {
	case LocationLFH:
		n = len(a.Files)
	case LocationCDH:
		n = len(a.CD)
	default:
		n = len(a.Files)
		if len(a.CD) < n {
			n = len(a.CD)
		}
	}
	if n == 0 {
		return -1
	}
	return rng.Intn(n)
}

// applyToLFH reports whether loc includes the local file header.
func applyToLFH(loc HeaderLocation) bool { return loc == LocationLFH || loc == LocationBoth }

// applyToCDH reports whether loc includes the central directory header.
func applyToCDH(loc HeaderLocation) bool { return loc == LocationCDH || loc == LocationBoth }
