package mutate

import "math/rand"

// ByteMutator mutates a byte slice, returning the result and whether it
// changed anything. A false ok means "no-op" (e.g. asked to operate on an
// empty slice); the caller retries with a different arm.
type ByteMutator func(rng *rand.Rand, data []byte) ([]byte, bool)

// ByteMutators is the fixed bank of raw byte-level operators, in UCB arm
// index order.
var ByteMutators = []ByteMutator{
	ReplaceByte,
	FlipBit,
	InsertRandomBytes,
	DeleteSlice,
	DuplicateSlice,
	SpliceSlice,
}

// ReplaceByte overwrites one random byte with a new random value.
func ReplaceByte(rng *rand.Rand, data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return data, false
	}
	out := append([]byte(nil), data...)
	out[rng.Intn(len(out))] = byte(rng.Intn(256))
	return out, true
}

// FlipBit flips one random bit of one random byte.
func FlipBit(rng *rand.Rand, data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return data, false
	}
	out := append([]byte(nil), data...)
	i := rng.Intn(len(out))
	out[i] ^= 1 << uint(rng.Intn(8))
	return out, true
}

// InsertRandomBytes splices in RandLen random bytes at a random position.
func InsertRandomBytes(rng *rand.Rand, data []byte) ([]byte, bool) {
	n := RandLen(rng)
	pos := rng.Intn(len(data) + 1)
	out := make([]byte, 0, len(data)+n)
	out = append(out, data[:pos]...)
	out = append(out, RandBytes(rng, n)...)
	out = append(out, data[pos:]...)
	return out, true
}

// DeleteSlice removes a random contiguous run of bytes.
func DeleteSlice(rng *rand.Rand, data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return data, false
	}
	start := rng.Intn(len(data))
	length := RandLen(rng)
	end := start + length
	if end > len(data) {
		end = len(data)
	}
	out := make([]byte, 0, len(data)-(end-start))
	out = append(out, data[:start]...)
	out = append(out, data[end:]...)
	return out, true
}

// DuplicateSlice copies a random contiguous run of bytes and reinserts it
// immediately after itself.
func DuplicateSlice(rng *rand.Rand, data []byte) ([]byte, bool) {
	if len(data) == 0 {
		return data, false
	}
	start := rng.Intn(len(data))
	length := RandLen(rng)
	end := start + length
	if end > len(data) {
		end = len(data)
	}
	chunk := data[start:end]
	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:end]...)
	out = append(out, chunk...)
	out = append(out, data[end:]...)
	return out, true
}

// SpliceSlice copies a random contiguous run of bytes from data over
// another random position in data, overwriting in place without changing
// length.
func SpliceSlice(rng *rand.Rand, data []byte) ([]byte, bool) {
	if len(data) < 2 {
		return data, false
	}
	srcStart := rng.Intn(len(data))
	length := RandLen(rng)
	if srcStart+length > len(data) {
		length = len(data) - srcStart
	}
	if length == 0 {
		return data, false
	}
	dstStart := rng.Intn(len(data) - length + 1)

	out := append([]byte(nil), data...)
	copy(out[dstStart:dstStart+length], data[srcStart:srcStart+length])
	return out, true
}
