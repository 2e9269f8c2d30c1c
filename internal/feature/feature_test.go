package feature_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elliotnunn/zipdiff/internal/feature"
	"github.com/elliotnunn/zipdiff/internal/fingerprint"
)

func TestPairIndexIsSymmetricAndDense(t *testing.T) {
	seen := map[uint]bool{}
	for i := 0; i < 5; i++ {
		for j := 0; j < i; j++ {
			idx := feature.PairIndex(i, j)
			require.Equal(t, idx, feature.PairIndex(j, i))
			require.False(t, seen[idx], "pair index %d reused", idx)
			seen[idx] = true
		}
	}
	require.Len(t, seen, 10) // C(5,2)
}

func TestFromResultsSetsOkAndInconsistencyBits(t *testing.T) {
	results := []fingerprint.Result{
		{Hash: []byte("aaaa")},
		{Hash: []byte("bbbb")},
		{Err: errTest},
	}

	v := feature.FromResults(results)
	require.True(t, v.OK.Test(0))
	require.True(t, v.OK.Test(1))
	require.False(t, v.OK.Test(2))
	require.True(t, v.Inconsistency.Test(feature.PairIndex(1, 0)))
}

func TestCoveredByRequiresBothBitsetsSubset(t *testing.T) {
	small := feature.New(2)
	small.OK.Set(0)

	big := feature.New(2)
	big.OK.Set(0)
	big.OK.Set(1)

	require.True(t, small.CoveredBy(big))
	require.False(t, big.CoveredBy(small))
}

func TestBitOrAssignIsMonotone(t *testing.T) {
	a := feature.New(3)
	a.OK.Set(0)
	b := feature.New(3)
	b.OK.Set(1)
	b.Inconsistency.Set(0)

	preOk := a.OkCount()
	a.BitOrAssign(b)

	require.GreaterOrEqual(t, a.OkCount(), preOk)
	require.True(t, a.OK.Test(0))
	require.True(t, a.OK.Test(1))
	require.True(t, a.Inconsistency.Test(0))
}

var errTest = &testErr{}

type testErr struct{}

func (*testErr) Error() string { return "test error" }
