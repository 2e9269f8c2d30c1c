package corpus_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elliotnunn/zipdiff/internal/corpus"
	"github.com/elliotnunn/zipdiff/internal/feature"
)

func vectorWithOk(n int, okBits ...int) feature.Vector {
	v := feature.New(n)
	for _, b := range okBits {
		v.OK.Set(uint(b))
	}
	return v
}

func TestCoveredSeedIsRemovedOnAdmission(t *testing.T) {
	c := corpus.New(rand.New(rand.NewSource(1)))

	weak := corpus.NewSeed([]byte("a"), [32]byte{1}, vectorWithOk(3, 0), nil)
	c.InsertSeed(weak)
	require.Len(t, c.Seeds, 1)

	strong := corpus.NewSeed([]byte("b"), [32]byte{2}, vectorWithOk(3, 0, 1), nil)
	require.True(t, c.IsFeatureInteresting(strong.Feature))
	c.InsertSeed(strong)

	require.Len(t, c.Seeds, 1)
	require.Equal(t, strong, c.Seeds[0])
}

func TestIncomparableSeedsBothSurvive(t *testing.T) {
	c := corpus.New(rand.New(rand.NewSource(1)))

	a := corpus.NewSeed([]byte("a"), [32]byte{1}, vectorWithOk(3, 0), nil)
	b := corpus.NewSeed([]byte("b"), [32]byte{2}, vectorWithOk(3, 1), nil)

	require.True(t, c.IsFeatureInteresting(a.Feature))
	c.InsertSeed(a)
	require.True(t, c.IsFeatureInteresting(b.Feature))
	c.InsertSeed(b)

	require.Len(t, c.Seeds, 2)
}

func TestCoveredCandidateIsNotInteresting(t *testing.T) {
	c := corpus.New(rand.New(rand.NewSource(1)))

	strong := corpus.NewSeed([]byte("a"), [32]byte{1}, vectorWithOk(3, 0, 1, 2), nil)
	c.InsertSeed(strong)

	weak := vectorWithOk(3, 0)
	require.False(t, c.IsFeatureInteresting(weak))
}

func TestConstructWeightsPenalizesLargeOutput(t *testing.T) {
	c := corpus.New(rand.New(rand.NewSource(1)))

	small := corpus.NewSeed([]byte("a"), [32]byte{1}, vectorWithOk(2, 0), nil)
	large := corpus.NewSeed([]byte("b"), [32]byte{2}, vectorWithOk(2, 1), nil)
	large.OutputTooLarge = true

	c.InsertSeed(small)
	require.True(t, c.IsFeatureInteresting(large.Feature))
	c.InsertSeed(large)

	weights := c.ConstructWeights()
	require.Len(t, weights, 2)
	require.Less(t, weights[1], weights[0])
}

func TestRecordSelectionIncrementsCount(t *testing.T) {
	c := corpus.New(rand.New(rand.NewSource(1)))
	s := corpus.NewSeed([]byte("a"), [32]byte{1}, vectorWithOk(1, 0), nil)
	c.InsertSeed(s)

	c.RecordSelection(0)
	c.RecordSelection(0)
	require.Equal(t, 2, c.Seeds[0].SelectionCount)
}
