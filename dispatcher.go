package txsignals

import (
	"context"
	"sync"
)

// Dispatcher delivers events to registered listeners, synchronously and in registration
// order. Each instance is independent; there is no process-wide registry.
type Dispatcher struct {
	mutex     sync.RWMutex
	listeners map[EventKind][]Listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[EventKind][]Listener)}
}

// Register adds the listener to those invoked for the given kind. The same listener may be
// registered multiple times and is invoked once per registration.
func (this *Dispatcher) Register(kind EventKind, listener Listener) {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	this.listeners[kind] = append(this.listeners[kind], listener)
}

// Deregister removes the first registration of the listener for the given kind and reports
// whether one was found; deregistering an unknown listener is a no-op.
func (this *Dispatcher) Deregister(kind EventKind, listener Listener) bool {
	this.mutex.Lock()
	defer this.mutex.Unlock()
	registered := this.listeners[kind]
	for index, candidate := range registered {
		if candidate == listener {
			// copy on removal; emissions in flight hold the prior slice
			this.listeners[kind] = append(registered[:index:index], registered[index+1:]...)
			return true
		}
	}
	return false
}

// Emit invokes every listener registered for the event's kind on the calling goroutine,
// stopping at and returning the first listener error.
func (this *Dispatcher) Emit(ctx context.Context, event Event) error {
	if ctx == nil {
		panic(errNilContext)
	}

	this.mutex.RLock()
	registered := this.listeners[event.Kind]
	this.mutex.RUnlock()

	for _, listener := range registered {
		if err := listener.Notify(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

// NewListener adapts a plain function to the Listener interface. Each call yields a distinct
// listener identity, so retain the result if it must be deregistered later.
func NewListener(notify func(ctx context.Context, event Event) error) Listener {
	return &listenerFunc{notify: notify}
}

type listenerFunc struct {
	notify func(ctx context.Context, event Event) error
}

func (this *listenerFunc) Notify(ctx context.Context, event Event) error {
	return this.notify(ctx, event)
}
