package mutate

import (
	"bytes"
	"math/rand"

	"github.com/elliotnunn/zipdiff/internal/zipmodel"
)

// Input is a sample in progress: exactly one of Archive or Bytes is set.
// The structured form is richer to mutate; the raw form is reachable from
// it via the "transcode" arm and is the only form a byte operator can act
// on.
type Input struct {
	Archive *zipmodel.Archive
	Bytes   []byte
}

// HandleKind identifies which arm bank a Handle refers to.
type HandleKind int

const (
	ZipArmHandle HandleKind = iota
	ByteArmHandle
)

// Handle records which arm performed one step of a mutation chain, so the
// whole chain can be credited once the resulting sample's interestingness
// is known.
type Handle struct {
	Kind  HandleKind
	Index int
}

// Engine bundles the two arm banks and the flags that shape how they're
// drawn from.
type Engine struct {
	ZipUCB  *Ucb // one arm per ZipMutators entry, plus one trailing "transcode" arm
	ByteUCB *Ucb // one arm per ByteMutators entry

	ByteMutationOnly bool
}

// NewEngine returns an engine with freshly initialized arm banks.
func NewEngine() *Engine {
	return &Engine{
		ZipUCB:  NewUcb(len(ZipMutators) + 1),
		ByteUCB: NewUcb(len(ByteMutators)),
	}
}

// transcodeArmIndex is the ZIP arm bank's trailing "convert to bytes, then
// mutate a byte" arm.
func (e *Engine) transcodeArmIndex() int { return len(ZipMutators) }

// GenerateSample applies mutateTimes mutations drawn from RandLen to input,
// returning the mutated sample and every arm handle consulted along the
// way, in the order they ran.
func (e *Engine) GenerateSample(rng *rand.Rand, input Input, mutateTimes int) (Input, []Handle) {
	cur := input
	var handles []Handle

	for i := 0; i < mutateTimes; i++ {
		const maxRetries = 8
		for attempt := 0; attempt < maxRetries; attempt++ {
			stepHandles, ok := e.mutateOnce(rng, &cur)
			if ok {
				handles = append(handles, stepHandles...)
				break
			}
		}
	}
	return cur, handles
}

// mutateOnce performs exactly one mutation step against cur in place,
// returning the handle(s) consulted and whether anything actually changed.
func (e *Engine) mutateOnce(rng *rand.Rand, cur *Input) ([]Handle, bool) {
	if e.ByteMutationOnly && cur.Archive != nil {
		e.transcode(cur)
	}

	if cur.Archive != nil {
		arm := e.ZipUCB.Sample(rng)
		if arm == e.transcodeArmIndex() {
			e.transcode(cur)
			barm := e.ByteUCB.Sample(rng)
			out, ok := ByteMutators[barm](rng, cur.Bytes)
			if ok {
				cur.Bytes = out
			}
			return []Handle{{ZipArmHandle, arm}, {ByteArmHandle, barm}}, ok
		}
		ok := ZipMutators[arm](rng, cur.Archive)
		return []Handle{{ZipArmHandle, arm}}, ok
	}

	arm := e.ByteUCB.Sample(rng)
	out, ok := ByteMutators[arm](rng, cur.Bytes)
	if ok {
		cur.Bytes = out
	}
	return []Handle{{ByteArmHandle, arm}}, ok
}

// transcode serializes an Archive input to its on-wire bytes and switches
// cur to the Bytes variant. A failure to serialize (e.g. a field too long
// to fit its width) falls back to an empty byte string rather than
// propagating an error, since a mutator is never allowed to fail the whole
// generation attempt.
func (e *Engine) transcode(cur *Input) {
	if cur.Archive == nil {
		return
	}
	var buf bytes.Buffer
	if _, err := cur.Archive.WriteTo(&buf); err != nil {
		cur.Bytes = nil
	} else {
		cur.Bytes = buf.Bytes()
	}
	cur.Archive = nil
}

// RecordUCB credits every handle used to build a sample: trial = 1/len(handles)
// always, and score = 1/len(handles) if the sample proved interesting, 0
// otherwise, diffusing credit uniformly over the whole mutation chain.
func (e *Engine) RecordUCB(handles []Handle, interesting bool) {
	if len(handles) == 0 {
		return
	}
	trial := 1.0 / float64(len(handles))
	score := 0.0
	if interesting {
		score = trial
	}
	for _, h := range handles {
		switch h.Kind {
		case ZipArmHandle:
			e.ZipUCB.Credit(h.Index, trial, score)
		case ByteArmHandle:
			e.ByteUCB.Credit(h.Index, trial, score)
		}
	}
}
