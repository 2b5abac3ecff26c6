package overlay

import (
	"errors"
	"fmt"
)

// ResultType tells how an overlay ended.
type ResultType string

const (
	// ResultClose is a committed Close; Data carries the caller's value.
	ResultClose ResultType = "close"
	// ResultClear means the overlay was dropped by CloseAll.
	ResultClear ResultType = "clear"
)

// Result is the value an Open handle settles with.
// The zero Result means the open was abandoned: an existing overlay under
// the same id refused to close.
type Result struct {
	Type ResultType
	Data any
}

// Abandoned reports whether r is the zero Result.
func (r Result) Abandoned() bool { return r.Type == "" }

// ErrDismissed matches every DismissError via errors.Is.
var ErrDismissed = errors.New("overlay dismissed")

// DismissError is returned from Handle.Wait when the overlay was dismissed.
type DismissError struct {
	ID     string
	Reason any
}

// Type returns "dismiss".
func (e *DismissError) Type() string { return "dismiss" }

func (e *DismissError) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("overlay %s dismissed", e.ID)
	}
	return fmt.Sprintf("overlay %s dismissed: %v", e.ID, e.Reason)
}

// Is makes errors.Is(err, ErrDismissed) true.
func (e *DismissError) Is(target error) bool {
	return target == ErrDismissed
}
