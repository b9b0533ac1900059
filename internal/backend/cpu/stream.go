package cpu

import (
	"sync"

	"github.com/born-ml/kernels/internal/kernel"
)

// stream is an ordered queue of launches served by one worker goroutine.
type stream struct {
	mu      sync.Mutex
	idle    *sync.Cond // signaled when pending drops to zero
	pending int
	closed  bool
	tasks   chan func()
	done    chan struct{}
}

func newStream(depth int) *stream {
	s := &stream{
		tasks: make(chan func(), depth),
		done:  make(chan struct{}),
	}
	s.idle = sync.NewCond(&s.mu)
	go s.worker()
	return s
}

func (s *stream) worker() {
	for task := range s.tasks {
		task()
		s.mu.Lock()
		s.pending--
		if s.pending == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
	}
	close(s.done)
}

// submit queues task. It blocks while the queue is full.
func (s *stream) submit(task func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return kernel.NewDeviceError("Launch", "backend is closed", nil)
	}
	s.pending++
	s.mu.Unlock()

	s.tasks <- task
	return nil
}

// synchronize waits for all submitted tasks.
func (s *stream) synchronize() {
	s.mu.Lock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

func (s *stream) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.synchronize()
	close(s.tasks)
	<-s.done
}
