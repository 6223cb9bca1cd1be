package hotkey

import (
	"log/slog"
	"sync"
)

// Listener receives every press/release transition seen by the hook.
type Listener interface {
	HandleKey(ev KeyEvent, pressed bool)
}

// Source is the OS-level keyboard hook primitive. Run delivers events
// through emit on a single dedicated goroutine and blocks for the life
// of the process. Installing more than one hook destabilizes the
// process on macOS, so the dispatcher starts its source at most once
// and never stops it; unregistering a listener only affects dispatch.
type Source interface {
	Run(emit func(ev KeyEvent, pressed bool)) error
}

// Dispatcher fans a single keyboard hook out to registered listeners.
// Construct exactly one per process and inject it wherever bindings
// are created.
type Dispatcher struct {
	source Source
	log    *slog.Logger

	mu        sync.Mutex
	listeners []Listener
	started   bool
}

func NewDispatcher(source Source, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{source: source, log: log}
}

// Register adds a listener and lazily starts the hook on the first
// registration.
func (d *Dispatcher) Register(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, existing := range d.listeners {
		if existing == l {
			return
		}
	}
	d.listeners = append(d.listeners, l)

	if !d.started {
		d.started = true
		go func() {
			if err := d.source.Run(d.dispatch); err != nil {
				d.log.Error("keyboard hook terminated", "error", err)
			}
		}()
	}
}

// Unregister removes a listener from dispatch. The underlying hook
// keeps running.
func (d *Dispatcher) Unregister(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.listeners {
		if existing == l {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			return
		}
	}
}

// dispatch runs on the hook goroutine. Listener handlers must be fast
// and must not block; a panic in one handler is contained so the
// remaining listeners still see the event.
func (d *Dispatcher) dispatch(ev KeyEvent, pressed bool) {
	d.mu.Lock()
	snapshot := make([]Listener, len(d.listeners))
	copy(snapshot, d.listeners)
	d.mu.Unlock()

	for _, l := range snapshot {
		d.safeHandle(l, ev, pressed)
	}
}

func (d *Dispatcher) safeHandle(l Listener, ev KeyEvent, pressed bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("key listener panicked", "panic", r)
		}
	}()
	l.HandleKey(ev, pressed)
}
