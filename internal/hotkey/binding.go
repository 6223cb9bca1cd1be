package hotkey

import (
	"log/slog"
	"sync"
)

// Binding is one push-to-talk hotkey. It tracks the currently held
// modifiers from the raw event stream and fires edge-triggered press
// and release callbacks once the configured combination is satisfied
// or broken.
//
// Guarantees: onPress and onRelease strictly alternate, key-repeat
// while pressed never re-fires onPress, and Stop synthesizes a release
// for a binding stopped mid-press so an owner's session cannot leak.
type Binding struct {
	id        string
	spec      Spec
	resolver  *Resolver
	onPress   func()
	onRelease func()
	log       *slog.Logger

	// cbMu serializes HandleKey and Stop end to end so a synthetic
	// release from Stop can never overtake an in-flight press callback.
	cbMu sync.Mutex

	mu      sync.Mutex
	pressed bool
	held    Modifier
	stopped bool
}

func NewBinding(id string, spec Spec, resolver *Resolver, onPress, onRelease func(), log *slog.Logger) *Binding {
	if log == nil {
		log = slog.Default()
	}
	return &Binding{
		id:        id,
		spec:      spec,
		resolver:  resolver,
		onPress:   onPress,
		onRelease: onRelease,
		log:       log,
	}
}

// ID returns the binding's owner-assigned identifier.
func (b *Binding) ID() string { return b.id }

// Spec returns the parsed hotkey.
func (b *Binding) Spec() Spec { return b.spec }

// Pressed reports whether the combination is currently satisfied.
func (b *Binding) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// HandleKey implements Listener. It runs on the hook goroutine and
// only flips state; callback bodies run outside the state lock so
// owners may take their own locks.
func (b *Binding) HandleKey(ev KeyEvent, pressed bool) {
	key := b.resolver.Resolve(ev)
	if key == KeyUnknown {
		return
	}

	b.cbMu.Lock()
	defer b.cbMu.Unlock()

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}

	if mod, ok := b.resolver.ModifierOf(key); ok {
		if pressed {
			b.held |= mod
			b.mu.Unlock()
			return
		}
		b.held &^= mod
		// Releasing a required modifier breaks the combination.
		if b.pressed && !b.held.Has(b.spec.Modifiers) {
			b.pressed = false
			b.mu.Unlock()
			b.fire(b.onRelease)
			return
		}
		b.mu.Unlock()
		return
	}

	if key != b.spec.Key {
		b.mu.Unlock()
		return
	}

	if pressed {
		// OS key-repeat delivers presses while already pressed; the
		// edge fires once.
		if !b.pressed && b.held.Has(b.spec.Modifiers) {
			b.pressed = true
			b.mu.Unlock()
			b.fire(b.onPress)
			return
		}
		b.mu.Unlock()
		return
	}

	if b.pressed {
		b.pressed = false
		b.mu.Unlock()
		b.fire(b.onRelease)
		return
	}
	b.mu.Unlock()
}

// Stop permanently disables the binding. If it is mid-press the
// release callback fires exactly once before Stop returns.
func (b *Binding) Stop() {
	b.cbMu.Lock()
	defer b.cbMu.Unlock()

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	wasPressed := b.pressed
	b.pressed = false
	b.held = 0
	b.mu.Unlock()

	if wasPressed {
		b.fire(b.onRelease)
	}
}

func (b *Binding) fire(cb func()) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("hotkey callback panicked", "binding", b.id, "panic", r)
		}
	}()
	cb()
}
