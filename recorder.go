package txsignals

import (
	"context"
	"sync"
)

// Recorder is a Listener that accumulates every event it receives, in order. It exists for
// tests and diagnostics; production listeners normally react rather than record.
type Recorder struct {
	mutex  sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (this *Recorder) Notify(_ context.Context, event Event) error {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.events = append(this.events, event)
	return nil
}

// Attach registers the recorder for all four event kinds on the dispatcher.
func (this *Recorder) Attach(dispatcher *Dispatcher) {
	for _, kind := range eventKinds {
		dispatcher.Register(kind, this)
	}
}

// Detach removes the registrations made by Attach.
func (this *Recorder) Detach(dispatcher *Dispatcher) {
	for _, kind := range eventKinds {
		dispatcher.Deregister(kind, this)
	}
}

// Events returns a copy of everything recorded so far.
func (this *Recorder) Events() []Event {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	recorded := make([]Event, len(this.events))
	copy(recorded, this.events)
	return recorded
}

func (this *Recorder) Reset() {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.events = nil
}

var eventKinds = []EventKind{PreEnter, PostEnter, PreExit, PostExit}
