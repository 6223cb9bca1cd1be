package hotkey

import "testing"

type edgeCounter struct {
	presses  int
	releases int
}

func newTestBinding(t *testing.T, hotkey string) (*Binding, *edgeCounter) {
	t.Helper()

	r := NewResolver()
	spec, err := r.ParseSpec(hotkey)
	if err != nil {
		t.Fatalf("parse %q: %v", hotkey, err)
	}
	c := &edgeCounter{}
	b := NewBinding("test", spec, r,
		func() { c.presses++ },
		func() { c.releases++ },
		nil,
	)
	return b, c
}

func (c *edgeCounter) assert(t *testing.T, presses, releases int) {
	t.Helper()
	if c.presses != presses || c.releases != releases {
		t.Fatalf("got %d presses / %d releases, want %d / %d",
			c.presses, c.releases, presses, releases)
	}
}

func TestBindingPressReleaseCycle(t *testing.T) {
	t.Parallel()

	b, c := newTestBinding(t, "<cmd>+<shift>+d")

	b.HandleKey(NamedKey("cmd"), true)
	b.HandleKey(NamedKey("shift_l"), true)
	c.assert(t, 0, 0)

	b.HandleKey(PhysicalCode(0x02), true)
	c.assert(t, 1, 0)
	if !b.Pressed() {
		t.Fatalf("expected pressed state")
	}

	b.HandleKey(PhysicalCode(0x02), false)
	c.assert(t, 1, 1)
	if b.Pressed() {
		t.Fatalf("expected released state")
	}

	b.HandleKey(NamedKey("shift_l"), false)
	b.HandleKey(NamedKey("cmd"), false)
	c.assert(t, 1, 1)
}

func TestBindingKeyRepeatIsIdempotent(t *testing.T) {
	t.Parallel()

	b, c := newTestBinding(t, "<cmd>+d")

	b.HandleKey(NamedKey("cmd"), true)
	for i := 0; i < 8; i++ {
		b.HandleKey(PhysicalCode(0x02), true)
	}
	c.assert(t, 1, 0)

	b.HandleKey(PhysicalCode(0x02), false)
	c.assert(t, 1, 1)
}

func TestBindingModifierDropReleases(t *testing.T) {
	t.Parallel()

	b, c := newTestBinding(t, "<cmd>+<shift>+d")

	b.HandleKey(NamedKey("cmd"), true)
	b.HandleKey(NamedKey("shift"), true)
	b.HandleKey(PhysicalCode(0x02), true)
	c.assert(t, 1, 0)

	// Dropping shift breaks the required set while d is still down.
	b.HandleKey(NamedKey("shift"), false)
	c.assert(t, 1, 1)

	// The later main-key release must not double-fire.
	b.HandleKey(PhysicalCode(0x02), false)
	c.assert(t, 1, 1)
}

func TestBindingIncompleteModifiersNeverFire(t *testing.T) {
	t.Parallel()

	b, c := newTestBinding(t, "<cmd>+<shift>+d")

	b.HandleKey(NamedKey("cmd"), true)
	b.HandleKey(PhysicalCode(0x02), true)
	b.HandleKey(PhysicalCode(0x02), false)
	c.assert(t, 0, 0)

	// A release without a preceding press never fires.
	b.HandleKey(PhysicalCode(0x02), false)
	c.assert(t, 0, 0)
}

func TestBindingLayoutRobustMatch(t *testing.T) {
	t.Parallel()

	b, c := newTestBinding(t, "<cmd>+d")

	// Cyrillic layout active: the key at the d position produces в.
	b.HandleKey(NamedKey("cmd"), true)
	b.HandleKey(Character('в'), true)
	c.assert(t, 1, 0)
	b.HandleKey(Character('в'), false)
	c.assert(t, 1, 1)
}

func TestBindingStopSynthesizesRelease(t *testing.T) {
	t.Parallel()

	b, c := newTestBinding(t, "<cmd>+d")

	b.HandleKey(NamedKey("cmd"), true)
	b.HandleKey(PhysicalCode(0x02), true)
	c.assert(t, 1, 0)

	b.Stop()
	c.assert(t, 1, 1)

	// Stopped bindings ignore everything, including repeat Stop.
	b.Stop()
	b.HandleKey(PhysicalCode(0x02), true)
	b.HandleKey(PhysicalCode(0x02), false)
	c.assert(t, 1, 1)
}

func TestBindingCallbackPanicDoesNotCorruptState(t *testing.T) {
	t.Parallel()

	r := NewResolver()
	spec, err := r.ParseSpec("<cmd>+d")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	releases := 0
	b := NewBinding("panicky", spec, r,
		func() { panic("press handler failure") },
		func() { releases++ },
		nil,
	)

	b.HandleKey(NamedKey("cmd"), true)
	b.HandleKey(PhysicalCode(0x02), true)
	if !b.Pressed() {
		t.Fatalf("binding must enter pressed state despite handler panic")
	}
	b.HandleKey(PhysicalCode(0x02), false)
	if releases != 1 {
		t.Fatalf("expected release after panicking press, got %d", releases)
	}
}

func TestBindingUnknownEventsIgnored(t *testing.T) {
	t.Parallel()

	b, c := newTestBinding(t, "<cmd>+d")

	b.HandleKey(Unresolved(), true)
	b.HandleKey(PhysicalCode(0xFFFF), true)
	b.HandleKey(Character('語'), true)
	c.assert(t, 0, 0)
}
