// Package mutate implements the fuzzer's mutation engine: a bank of
// structural ZIP-aware operators, a bank of raw byte operators, and an
// adaptive multi-armed bandit that learns which operators tend to produce
// interesting samples.
package mutate

import (
	"math"
	"math/rand"
)

const (
	ucbDecay        = 0.995
	softmaxTemp     = 5.0
	argmaxFloorWeight = 1e-6
)

// Ucb is a bank of independently-tracked arms scored by the UCB1 formula
// with exponentially decayed recency weighting. Arms are addressed by
// index; callers own the mapping from index to operator.
type Ucb struct {
	trials []float64
	scores []float64

	// ArgmaxAblation, when true, replaces the softmax categorical with a
	// one-hot pick of the best-scoring arm (with a floor weight on the
	// rest so a perpetually no-op arm never causes a zero-weight deadlock).
	ArgmaxAblation bool
}

// NewUcb returns a bank of n untried arms.
func NewUcb(n int) *Ucb {
	return &Ucb{trials: make([]float64, n), scores: make([]float64, n)}
}

// Len returns the number of arms.
func (u *Ucb) Len() int { return len(u.trials) }

// decay multiplicatively ages every arm's trial and score counters,
// applied once per construction so older evidence counts for less.
func (u *Ucb) decay() {
	for i := range u.trials {
		u.trials[i] *= ucbDecay
		u.scores[i] *= ucbDecay
	}
}

// value computes the UCB1 score for arm i given the total trials across
// all arms. An arm with zero trials is given infinite value so every arm
// is tried at least once before the bound starts discriminating.
func (u *Ucb) value(i int, totalTrials float64) float64 {
	if u.trials[i] <= 0 {
		return math.Inf(1)
	}
	mean := u.scores[i] / u.trials[i]
	bonus := math.Sqrt(2 * math.Log(totalTrials) / u.trials[i])
	return mean + bonus
}

// Weights returns a categorical distribution over arms for this iteration,
// converting UCB values to weights via softmax(temperature=5), or via the
// argmax ablation if enabled.
func (u *Ucb) Weights(rng *rand.Rand) []float64 {
	u.decay()

	total := 0.0
	for _, t := range u.trials {
		total += t
	}
	if total <= 0 {
		total = 1
	}

	values := make([]float64, len(u.trials))
	for i := range values {
		values[i] = u.value(i, total)
	}

	if u.ArgmaxAblation {
		return argmaxWeights(values)
	}
	return softmaxWeights(values)
}

func softmaxWeights(values []float64) []float64 {
	weights := make([]float64, len(values))
	maxV := math.Inf(-1)
	for _, v := range values {
		if !math.IsInf(v, 1) && v > maxV {
			maxV = v
		}
	}
	if math.IsInf(maxV, -1) {
		maxV = 0
	}
	for i, v := range values {
		if math.IsInf(v, 1) {
			v = maxV + 1
		}
		weights[i] = math.Exp(softmaxTemp * (v - maxV))
	}
	return weights
}

func argmaxWeights(values []float64) []float64 {
	best := 0
	bestV := math.Inf(-1)
	for i, v := range values {
		if math.IsInf(v, 1) {
			best = i
			bestV = v
			break
		}
		if v > bestV {
			bestV = v
			best = i
		}
	}
	weights := make([]float64, len(values))
	for i := range weights {
		weights[i] = argmaxFloorWeight
	}
	weights[best] = 1.0
	return weights
}

// Sample draws an arm index from Weights.
func (u *Ucb) Sample(rng *rand.Rand) int {
	weights := u.Weights(rng)
	total := 0.0
	for _, w := range weights {
		total += w
	}
	target := rng.Float64() * total
	cum := 0.0
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}

// Credit records one trial of arm i with the given score, each scaled by
// 1/handles as the chain-wide diffusion rule requires — the caller passes
// the already-divided values.
func (u *Ucb) Credit(i int, trial, score float64) {
	u.trials[i] += trial
	u.scores[i] += score
}
