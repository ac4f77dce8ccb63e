package optim

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/shardtrain/internal/nn"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	lr         float64
	momentum   float64
	velocities map[*nn.Parameter][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*nn.Parameter][]float64),
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient (not in any pass of the window) are skipped.
func (s *SGD) Step(params []*nn.Parameter) error {
	for _, p := range params {
		grad, err := gradientOf(p)
		if err != nil {
			return err
		}
		if grad == nil {
			continue
		}

		update := grad.Data()
		if s.momentum != 0 {
			v, ok := s.velocities[p]
			if !ok {
				v = make([]float64, p.NumElements())
				s.velocities[p] = v
			}
			// velocity = momentum * velocity + grad
			floats.Scale(s.momentum, v)
			floats.Add(v, update)
			update = v
		}
		floats.AddScaled(p.Value().Data(), -s.lr, update)
	}
	return nil
}

// LR returns the current learning rate.
func (s *SGD) LR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
