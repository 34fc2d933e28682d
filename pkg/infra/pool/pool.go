// Package pool provides a goroutine worker pool for background tasks.
package pool

import (
	"errors"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// ErrPoolClosed is returned when a task is submitted after Release.
var ErrPoolClosed = errors.New("worker pool is closed")

// Pool wraps an ants pool with panic recovery that logs instead of crashing
// the process.
type Pool struct {
	inner *ants.Pool
}

// New creates a worker pool with the given size.
func New(size int) (*Pool, error) {
	inner, err := ants.NewPool(size,
		ants.WithPanicHandler(func(v interface{}) {
			logger.Errorw("worker pool task panicked", "panic", v)
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{inner: inner}, nil
}

// Submit schedules a task on the pool. It blocks when all workers are busy.
func (p *Pool) Submit(task func()) error {
	err := p.inner.Submit(task)
	if errors.Is(err, ants.ErrPoolClosed) {
		return ErrPoolClosed
	}
	return err
}

// Release stops the pool and discards pending tasks.
func (p *Pool) Release() {
	p.inner.Release()
}
