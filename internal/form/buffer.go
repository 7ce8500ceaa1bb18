package form

// EditBuffer holds a renderer's pending input for one item instance, so a
// canonical-tree refresh from the server never clobbers in-progress
// keystrokes. The buffer synchronizes from the canonical value only while
// unfocused.
type EditBuffer struct {
	pending string
	focused bool
	touched bool
}

// Focus marks the buffer as actively edited; canonical refreshes are held
// off until Blur.
func (b *EditBuffer) Focus() {
	b.focused = true
}

// Blur releases the buffer back to canonical synchronization.
func (b *EditBuffer) Blur() {
	b.focused = false
}

// Focused reports whether the buffer is actively edited.
func (b *EditBuffer) Focused() bool {
	return b.focused
}

// Set records a keystroke's result as the pending value.
func (b *EditBuffer) Set(value string) {
	b.pending = value
	b.touched = true
}

// Value returns the value a renderer should display.
func (b *EditBuffer) Value() string {
	return b.pending
}

// SyncFrom adopts the canonical value unless the buffer is focused.
// Returns true when the buffer changed.
func (b *EditBuffer) SyncFrom(canonical string) bool {
	if b.focused {
		return false
	}
	if b.pending == canonical {
		return false
	}
	b.pending = canonical
	b.touched = false
	return true
}

// Touched reports whether the user has edited the buffer since the last
// canonical sync.
func (b *EditBuffer) Touched() bool {
	return b.touched
}
