package overlay

import (
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Logger receives failures the engine contains: guard errors, callback
// errors and panics. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Clock supplies the current time for close stamps and sweeps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStore makes the manager publish into store.
func WithStore(store *Store) ManagerOption {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithIDGenerator sets the id generator. Default is UUIDGenerator.
func WithIDGenerator(gen IDGenerator) ManagerOption {
	return func(m *Manager) {
		if gen != nil {
			m.ids = gen
		}
	}
}

// WithClock sets the clock used for close stamps.
func WithClock(c Clock) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLogger sets the error sink. Default is log.Default().
func WithLogger(l Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTracer sets the tracer for lifecycle spans.
func WithTracer(t trace.Tracer) ManagerOption {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// OpenOption configures one Open call.
type OpenOption func(*openConfig)

type openConfig struct {
	id          string
	data        any
	title       string
	kind        Kind
	position    Position
	beforeClose Guard
	onOpen      func(id string) error
	onClose     func(result any) error
	onMounted   func() error
	onUnmounted func() error
}

// WithID opens under an explicit id. If an overlay with that id is open it
// is closed first, subject to its guard.
func WithID(id string) OpenOption {
	return func(c *openConfig) { c.id = id }
}

// WithData sets the payload handed to the content.
func WithData(data any) OpenOption {
	return func(c *openConfig) { c.data = data }
}

// WithTitle sets the title hint.
func WithTitle(title string) OpenOption {
	return func(c *openConfig) { c.title = title }
}

// WithKind sets the kind hint. Default is KindOverlay.
func WithKind(k Kind) OpenOption {
	return func(c *openConfig) { c.kind = k }
}

// WithPosition sets the placement hint. Default is PositionCenter.
func WithPosition(p Position) OpenOption {
	return func(c *openConfig) { c.position = p }
}

// WithBeforeClose installs a guard at open time.
func WithBeforeClose(g Guard) OpenOption {
	return func(c *openConfig) { c.beforeClose = g }
}

// WithOnOpen runs fn once the record is published.
func WithOnOpen(fn func(id string) error) OpenOption {
	return func(c *openConfig) { c.onOpen = fn }
}

// WithOnClose runs fn once when a close is committed, including the forced
// close of an occupant replaced by a new Open (result is nil then).
// It does not run on Dismiss or CloseAll.
func WithOnClose(fn func(result any) error) OpenOption {
	return func(c *openConfig) { c.onClose = fn }
}

// WithOnMounted runs fn when the binding layer first renders the record.
func WithOnMounted(fn func() error) OpenOption {
	return func(c *openConfig) { c.onMounted = fn }
}

// WithOnUnmounted runs fn when the binding layer stops rendering the record.
func WithOnUnmounted(fn func() error) OpenOption {
	return func(c *openConfig) { c.onUnmounted = fn }
}

var defaultLogger Logger = log.Default()
