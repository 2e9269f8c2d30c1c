package mutate

import "math/rand"

// RandLen draws k >= 1 with P(k) = 2^-k: a fair-coin run length, so short
// mutations dominate but arbitrarily large ones remain reachable. Each
// coin flip is the low bit of a fresh rand.Int63 draw, so the loop has no
// fixed upper bound and needs no width-dependent clamp.
func RandLen(rng *rand.Rand) int {
	k := 1
	for rng.Int63()&1 == 0 {
		k++
	}
	return k
}

// Integer is the constraint RandRange and MutateLen operate over.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// RandRange returns a uniformly random value in [lo, hi], inclusive.
func RandRange[T Integer](rng *rand.Rand, lo, hi T) T {
	if hi <= lo {
		return lo
	}
	span := uint64(hi - lo)
	return lo + T(rng.Uint64()%(span+1))
}

// MutateLen nudges v by a signed RandLen-distributed delta, floored at 0,
// for size and length fields that should drift by a small amount more
// often than a large one.
func MutateLen[T Integer](rng *rand.Rand, v T) T {
	delta := T(RandLen(rng))
	if rng.Intn(2) == 0 {
		if delta > v {
			return 0
		}
		return v - delta
	}
	return v + delta
}

// RandBytes returns n pseudo-random bytes.
func RandBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rng.Read(b)
	return b
}
