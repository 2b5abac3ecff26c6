package ui

import "overlaykit/internal/overlay"

// StoreChangedMsg is delivered when the overlay store published a change.
type StoreChangedMsg struct{}

// CloseAttemptMsg reports the outcome of a CloseCmd.
// Committed is false when a guard kept the overlay open.
type CloseAttemptMsg struct {
	ID        string
	Committed bool
}

// OverlayResultMsg is sent when an overlay opened by the app settles.
type OverlayResultMsg struct {
	ID     string
	Label  string
	Result overlay.Result
	Err    error
}

// OpenConfirmMsg opens a confirmation modal (SPC o c). A non-empty ID
// reuses that id, replacing an open modal under it (SPC o r).
type OpenConfirmMsg struct {
	ID string
}

// OpenPromptMsg opens a text prompt (SPC o p).
type OpenPromptMsg struct{}

// OpenEditorMsg opens the guarded editor (SPC o e).
type OpenEditorMsg struct{}

// OpenPickerMsg opens the list picker (SPC o l).
type OpenPickerMsg struct{}

// CloseAllMsg clears every overlay (SPC x).
type CloseAllMsg struct{}
