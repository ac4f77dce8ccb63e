package nn

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// Gradients is a gradient arena keyed by Parameter identity.
//
// It holds, per parameter, the sum of the gradients added to it and the
// number of batches that contributed. A Gradients value has a single owner
// and is not safe for concurrent use; concurrent writers go through
// SharedAccumulator instead.
type Gradients struct {
	sums   map[*Parameter]*tensor.Tensor
	counts map[*Parameter]int
	order  []*Parameter
}

// NewGradients creates an empty arena.
func NewGradients() *Gradients {
	return &Gradients{
		sums:   make(map[*Parameter]*tensor.Tensor),
		counts: make(map[*Parameter]int),
	}
}

// Add accumulates one batch's gradient for p.
func (g *Gradients) Add(p *Parameter, grad *tensor.Tensor) error {
	return g.add(p, grad, 1)
}

func (g *Gradients) add(p *Parameter, grad *tensor.Tensor, count int) error {
	sum, ok := g.sums[p]
	if !ok {
		if !grad.Shape().Equal(p.Shape()) {
			return errors.Wrapf(tensor.ErrShapeMismatch, "gradient for %q: %v vs parameter %v", p.Name(), grad.Shape(), p.Shape())
		}
		g.sums[p] = grad.Clone()
		g.counts[p] = count
		g.order = append(g.order, p)
		return nil
	}
	if err := sum.AddInPlace(grad); err != nil {
		return errors.WithMessagef(err, "gradient for %q", p.Name())
	}
	g.counts[p] += count
	return nil
}

// Merge folds other into g, summing gradients and contribution counts.
func (g *Gradients) Merge(other *Gradients) error {
	for _, p := range other.order {
		if err := g.add(p, other.sums[p], other.counts[p]); err != nil {
			return err
		}
	}
	return nil
}

// Sum returns the accumulated gradient for p, or nil.
func (g *Gradients) Sum(p *Parameter) *tensor.Tensor {
	return g.sums[p]
}

// Count returns how many batches contributed a gradient for p.
func (g *Gradients) Count(p *Parameter) int {
	return g.counts[p]
}

// Len returns the number of parameters with a gradient.
func (g *Gradients) Len() int {
	return len(g.order)
}

// Parameters returns the parameters with a gradient, in first-seen order.
func (g *Gradients) Parameters() []*Parameter {
	out := make([]*Parameter, len(g.order))
	copy(out, g.order)
	return out
}

// ApplyMean writes, for every parameter in the arena, sum / count into the
// parameter's gradient buffer (replacing its contents).
func (g *Gradients) ApplyMean() error {
	for _, p := range g.order {
		mean := tensor.Scale(g.sums[p], 1/float64(g.counts[p]))
		if err := p.SetGrad(mean); err != nil {
			return errors.WithMessagef(err, "apply gradient for %q", p.Name())
		}
	}
	return nil
}

// SharedAccumulator accumulates whole-batch gradient sets straight into the
// shared parameters' gradient buffers.
//
// One mutex covers an entire batch's set, so two batches never interleave
// their writes and each buffer always holds a sum over complete batches.
type SharedAccumulator struct {
	mu     sync.Mutex
	counts map[*Parameter]int
	order  []*Parameter
}

// NewSharedAccumulator creates an accumulator for one aggregation window.
func NewSharedAccumulator() *SharedAccumulator {
	return &SharedAccumulator{counts: make(map[*Parameter]int)}
}

// Accumulate adds every gradient in grads into its parameter's buffer.
func (a *SharedAccumulator) Accumulate(grads *Gradients) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range grads.order {
		if err := p.AccumulateGrad(grads.sums[p]); err != nil {
			return errors.WithMessagef(err, "accumulate gradient for %q", p.Name())
		}
		if _, seen := a.counts[p]; !seen {
			a.order = append(a.order, p)
		}
		a.counts[p] += grads.counts[p]
	}
	return nil
}

// Finalize turns each touched buffer from a sum into a mean over the batches
// that contributed to it. It returns the number of touched parameters.
func (a *SharedAccumulator) Finalize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.order {
		p.ScaleGrad(1 / float64(a.counts[p]))
	}
	return len(a.order)
}
