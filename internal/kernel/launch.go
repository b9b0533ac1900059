package kernel

import "sync"

// Geometry carries the optional runtime sizes of a launch. Zero values mean
// "not supplied".
type Geometry struct {
	NDRange   Size
	Workgroup Size
}

// Launch is a validated launch handed to a backend.
type Launch struct {
	Descriptor Descriptor
	Space      IterationSpace
	// Dynamic requests a per-item bounds check against Space.NDRange().
	Dynamic bool
	Args    []any
}

// Event represents in-flight work. It completes exactly once. The zero
// Event is pending until Finish is called.
type Event struct {
	init sync.Once
	once sync.Once
	done chan struct{}
	err  error
}

// NewEvent returns an event that has not completed yet.
func NewEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// CompletedEvent returns an event that has already completed with err.
func CompletedEvent(err error) *Event {
	e := NewEvent()
	e.Finish(err)
	return e
}

func (e *Event) ch() chan struct{} {
	e.init.Do(func() {
		if e.done == nil {
			e.done = make(chan struct{})
		}
	})
	return e.done
}

// Finish completes the event. Calls after the first are ignored.
func (e *Event) Finish(err error) {
	done := e.ch()
	e.once.Do(func() {
		e.err = err
		close(done)
	})
}

// Done returns a channel closed when the work completes.
func (e *Event) Done() <-chan struct{} { return e.ch() }

// Wait blocks until the work completes and returns its error.
func (e *Event) Wait() error {
	<-e.ch()
	return e.err
}
