package mutate_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elliotnunn/zipdiff/internal/mutate"
	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

func TestRandLenIsAlwaysAtLeastOne(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		require.GreaterOrEqual(t, mutate.RandLen(rng), 1)
	}
}

func TestRandRangeStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		v := mutate.RandRange(rng, 10, 20)
		require.GreaterOrEqual(t, v, 10)
		require.LessOrEqual(t, v, 20)
	}
}

func TestByteMutatorsNeverPanicOnSmallInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	inputs := [][]byte{nil, {}, {0x01}, {0x01, 0x02, 0x03}}
	for _, m := range mutate.ByteMutators {
		for _, in := range inputs {
			require.NotPanics(t, func() {
				m(rng, in)
			})
		}
	}
}

func TestZipMutatorsNeverPanicOnEmptyArchive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, m := range mutate.ZipMutators {
		a := &zipmodel.Archive{}
		require.NotPanics(t, func() {
			m(rng, a)
		})
	}
}

func TestZipMutatorsNeverPanicOnPopulatedArchive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, m := range mutate.ZipMutators {
		a := sampleArchive(t)
		require.NotPanics(t, func() {
			m(rng, a)
		})
	}
}

func TestGenerateSampleProducesHandlesAndBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	engine := mutate.NewEngine()
	a := sampleArchive(t)

	out, handles := engine.GenerateSample(rng, mutate.Input{Archive: a}, 5)
	require.NotEmpty(t, handles)
	require.True(t, out.Archive != nil || out.Bytes != nil)
}

func TestByteMutationOnlyForcesTranscode(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	engine := mutate.NewEngine()
	engine.ByteMutationOnly = true
	a := sampleArchive(t)

	out, handles := engine.GenerateSample(rng, mutate.Input{Archive: a}, 3)
	require.NotEmpty(t, handles)
	require.Nil(t, out.Archive)
	require.NotNil(t, out.Bytes)
}

func TestRecordUCBWithMixedHandlesKeepsBanksSampleable(t *testing.T) {
	engine := mutate.NewEngine()
	handles := []mutate.Handle{
		{Kind: mutate.ZipArmHandle, Index: 0},
		{Kind: mutate.ByteArmHandle, Index: 0},
	}
	engine.RecordUCB(handles, true)

	rng := rand.New(rand.NewSource(1))
	require.NotPanics(t, func() {
		engine.ZipUCB.Sample(rng)
		engine.ByteUCB.Sample(rng)
	})
}

func sampleArchive(t *testing.T) *zipmodel.Archive {
	t.Helper()
	a := &zipmodel.Archive{}
	require.NoError(t, zipmodel.AddSimple(a, "hello.txt", []byte("hello world")))
	require.NoError(t, a.Finalize())
	return a
}
