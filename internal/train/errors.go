package train

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/shardtrain/internal/parallel"
)

// Lifecycle and epoch errors.
var (
	// ErrNotInitialized is returned by training calls made before Init.
	ErrNotInitialized = errors.New("trainer not initialized")
	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("trainer already initialized")
	// ErrEngineShutDown is returned by any call made after Shutdown, and by a
	// training call interrupted by Shutdown.
	ErrEngineShutDown = errors.New("training engine shut down")
	// ErrAlreadyRunning is returned when a training call overlaps another.
	ErrAlreadyRunning = errors.New("training already running")
	// ErrEpochFailed is returned when every batch of an epoch failed.
	ErrEpochFailed = errors.New("every batch in the epoch failed")
	// ErrNonFiniteLoss marks a batch whose loss is NaN or infinite.
	ErrNonFiniteLoss = errors.New("non-finite loss")
	// ErrInvalidConfig is returned by Init for missing collaborators.
	ErrInvalidConfig = errors.New("invalid trainer configuration")

	// ErrWorkerFailure marks a batch whose computation panicked.
	ErrWorkerFailure = parallel.ErrWorkerFailure
)

// BatchError describes one batch that was excluded from aggregation.
type BatchError struct {
	Epoch  int
	Batch  int
	Worker int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("epoch %d batch %d (worker %d): %v", e.Epoch, e.Batch, e.Worker, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
