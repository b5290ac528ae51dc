package starlark

import (
	"sync"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/evaltable/pkg/core"
)

// DefaultMaxSteps bounds the work one operator call may do.
const DefaultMaxSteps = 1_000_000

const defaultPoolSize = 16

// ThreadPool hands out Starlark threads to concurrent operator calls.
// Idle threads are kept up to the pool's capacity.
type ThreadPool struct {
	mu       sync.Mutex
	idle     []*starlark.Thread
	capacity int
	maxSteps uint64
}

// NewThreadPool creates a pool keeping at most capacity idle threads. Each
// call may execute at most maxSteps Starlark steps. Zero selects the defaults.
func NewThreadPool(capacity int, maxSteps uint64) *ThreadPool {
	if capacity <= 0 {
		capacity = defaultPoolSize
	}
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	return &ThreadPool{capacity: capacity, maxSteps: maxSteps}
}

// Call invokes fn on a pooled thread. rng, when non-nil, is what the
// rand() builtin draws from during the call.
func (p *ThreadPool) Call(name string, fn starlark.Callable, args starlark.Tuple, rng core.Rand) (starlark.Value, error) {
	thread := p.acquire(name)
	if rng != nil {
		thread.SetLocal(randLocal, rng)
	}
	thread.SetMaxExecutionSteps(thread.ExecutionSteps() + p.maxSteps)

	res, err := starlark.Call(thread, fn, args, nil)
	if err != nil {
		// A cancelled thread stays cancelled.
		return nil, err
	}
	p.release(thread)
	return res, nil
}

func (p *ThreadPool) acquire(name string) *starlark.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.idle); n > 0 {
		thread := p.idle[n-1]
		p.idle = p.idle[:n-1]
		thread.Name = name
		return thread
	}
	return &starlark.Thread{
		Name:  name,
		Print: func(*starlark.Thread, string) {},
	}
}

func (p *ThreadPool) release(thread *starlark.Thread) {
	thread.Name = ""
	thread.SetLocal(randLocal, nil)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle) < p.capacity {
		p.idle = append(p.idle, thread)
	}
}

// Idle returns the number of threads waiting for reuse.
func (p *ThreadPool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}
