package ui

// AppMode is what currently owns the keyboard.
type AppMode int

const (
	// ModeIdle: no overlay is open; keys go to the keymap and leader.
	ModeIdle AppMode = iota
	// ModeOverlay: an overlay is open; keys go to the topmost overlay
	// except for bindings registered for this mode.
	ModeOverlay
)

func (m AppMode) String() string {
	switch m {
	case ModeIdle:
		return "Idle"
	case ModeOverlay:
		return "Overlay"
	default:
		return "Unknown"
	}
}
