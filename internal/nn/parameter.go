package nn

import (
	"sync"

	"github.com/born-ml/shardtrain/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// A Parameter is a named leaf of every computation graph it takes part in.
// Besides its value it owns a persistent gradient buffer that collects
// gradients for one aggregation window and is zeroed before the next one.
//
// The value is only written by the optimizer, between windows. The gradient
// buffer may be written by several workers at once; all such writes go
// through AccumulateGrad, which holds the parameter's lock.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Value()
//	grad := weight.Grad() // nil until the first accumulation
type Parameter struct {
	name  string
	value *tensor.Tensor

	mu   sync.Mutex
	grad *tensor.Tensor // lazily allocated, same shape as value
}

// NewParameter creates a new trainable parameter around an initialized tensor.
func NewParameter(name string, value *tensor.Tensor) *Parameter {
	return &Parameter{name: name, value: value}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter tensor.
func (p *Parameter) Value() *tensor.Tensor {
	return p.value
}

// Shape returns the shape of the parameter tensor.
func (p *Parameter) Shape() tensor.Shape {
	return p.value.Shape()
}

// NumElements returns the number of scalar weights.
func (p *Parameter) NumElements() int {
	return p.value.NumElements()
}

// Grad returns the gradient buffer, or nil if nothing has been accumulated yet.
func (p *Parameter) Grad() *tensor.Tensor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.grad
}

// AccumulateGrad adds g into the gradient buffer.
func (p *Parameter) AccumulateGrad(g *tensor.Tensor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grad == nil {
		p.grad = tensor.ZerosLike(p.value)
	}
	return p.grad.AddInPlace(g)
}

// SetGrad replaces the gradient buffer with a copy of g.
func (p *Parameter) SetGrad(g *tensor.Tensor) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if g == nil {
		p.grad = nil
		return nil
	}
	if p.grad == nil {
		p.grad = tensor.ZerosLike(p.value)
	}
	return p.grad.CopyFrom(g)
}

// ScaleGrad multiplies the gradient buffer by c, if it exists.
func (p *Parameter) ScaleGrad(c float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grad != nil {
		p.grad.ScaleInPlace(c)
	}
}

// ZeroGrad clears the gradient buffer, keeping its allocation.
//
// This should be called at the start of each aggregation window to avoid
// accumulating gradients from previous windows.
func (p *Parameter) ZeroGrad() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.grad != nil {
		p.grad.Zero()
	}
}

// ZeroGrad clears the gradients of all params.
func ZeroGrad(params []*Parameter) {
	for _, p := range params {
		p.ZeroGrad()
	}
}

// CountParameters returns the total number of scalar weights in params.
func CountParameters(params []*Parameter) int {
	n := 0
	for _, p := range params {
		n += p.NumElements()
	}
	return n
}
