// Package corpus maintains the fuzzer's antichain of interesting samples:
// the minimal set whose feature vectors are pairwise incomparable, each
// witnessing some behavior no other seed already covers.
package corpus

import (
	"math"
	"math/rand"

	"github.com/elliotnunn/zipdiff/internal/feature"
)

// Seed is one admitted corpus member.
type Seed struct {
	Input           []byte
	ContentHash     [32]byte
	Size            int
	Feature         feature.Vector
	MutationHistory []string
	OutputTooLarge  bool
	SelectionCount  int

	fixedEnergy float64
}

// NewSeed builds a seed and precomputes its fixed energy, which never
// changes after construction: exp(-|mutations|/4) rewards short mutation
// chains, 100/size rewards small samples, |ok|/N rewards inputs many
// parsers accept at all.
func NewSeed(input []byte, hash [32]byte, f feature.Vector, history []string) *Seed {
	s := &Seed{
		Input:           input,
		ContentHash:     hash,
		Size:            len(input),
		Feature:         f,
		MutationHistory: history,
	}
	s.fixedEnergy = fixedEnergy(len(history), len(input), f)
	return s
}

func fixedEnergy(mutations int, size int, f feature.Vector) float64 {
	sizeTerm := 0.0
	if size > 0 {
		sizeTerm = 100 / float64(size)
	}
	okTerm := 0.0
	if f.N > 0 {
		okTerm = float64(f.OkCount()) / float64(f.N)
	}
	return math.Exp(-float64(mutations)/4) + sizeTerm + okTerm
}

// Corpus is the live antichain of seeds plus the bookkeeping needed to
// compute adaptive selection weights across it.
type Corpus struct {
	Seeds       []*Seed
	seenHashes  map[[32]byte]bool
	rng         *rand.Rand
}

// New returns an empty corpus driven by rng.
func New(rng *rand.Rand) *Corpus {
	return &Corpus{
		seenHashes: make(map[[32]byte]bool),
		rng:        rng,
	}
}

// HasContentHash reports whether a seed with this exact content has
// already been admitted through InsertSeed. Hashes of samples that were
// produced but not admitted are not recorded.
func (c *Corpus) HasContentHash(hash [32]byte) bool {
	return c.seenHashes[hash]
}

// IsFeatureInteresting reports whether f is not covered by any seed
// currently in the corpus, the feature half of the admission test.
func (c *Corpus) IsFeatureInteresting(f feature.Vector) bool {
	for _, s := range c.Seeds {
		if f.CoveredBy(s.Feature) {
			return false
		}
	}
	return true
}

// InsertSeed admits s unconditionally, removing every existing seed that s
// now covers so the corpus remains an antichain under CoveredBy.
func (c *Corpus) InsertSeed(s *Seed) {
	c.seenHashes[s.ContentHash] = true

	kept := c.Seeds[:0]
	for _, existing := range c.Seeds {
		if existing.Feature.CoveredBy(s.Feature) {
			continue
		}
		kept = append(kept, existing)
	}
	c.Seeds = append(kept, s)
}

// popularity counts, for every inconsistency bit, how many seeds in the
// corpus set it.
func (c *Corpus) popularity() []int {
	if len(c.Seeds) == 0 {
		return nil
	}
	n := int(c.Seeds[0].Feature.Inconsistency.Len())
	counts := make([]int, n)
	for _, s := range c.Seeds {
		for i := 0; i < n; i++ {
			if s.Feature.Inconsistency.Test(uint(i)) {
				counts[i]++
			}
		}
	}
	return counts
}

// adaptiveInconsistencyEnergy rewards a seed for witnessing disagreements
// few other seeds also witness: each inconsistency bit it sets contributes
// (corpus size / number of distinct inconsistency bits set by any seed) /
// popularity of the bit.
func adaptiveInconsistencyEnergy(s *Seed, corpusSize int, popularity []int) float64 {
	if len(popularity) == 0 {
		return 0
	}
	support := 0
	for _, p := range popularity {
		if p > 0 {
			support++
		}
	}
	if support == 0 {
		return 0
	}
	var energy float64
	n := int(s.Feature.Inconsistency.Len())
	for i := 0; i < n; i++ {
		if !s.Feature.Inconsistency.Test(uint(i)) {
			continue
		}
		pop := popularity[i]
		if pop == 0 {
			continue
		}
		energy += (float64(corpusSize) / float64(support)) / float64(pop)
	}
	return energy
}

// ConstructWeights computes this iteration's selection weight for every
// seed, in Seeds order. Called once per iteration before any selection.
func (c *Corpus) ConstructWeights() []float64 {
	pop := c.popularity()
	weights := make([]float64, len(c.Seeds))
	for i, s := range c.Seeds {
		w := s.fixedEnergy + adaptiveInconsistencyEnergy(s, len(c.Seeds), pop) + math.Exp(-float64(s.SelectionCount)/4)
		if s.OutputTooLarge {
			w /= 10
		}
		weights[i] = w
	}
	return weights
}

// SelectSeed draws one seed index using weights from ConstructWeights, with
// a weighted categorical draw.
func (c *Corpus) SelectSeed(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return c.rng.Intn(len(weights))
	}
	target := c.rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}

// RecordSelection increments the selection count of the seed at index i.
func (c *Corpus) RecordSelection(i int) {
	c.Seeds[i].SelectionCount++
}
