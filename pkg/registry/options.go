package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Clock supplies submission timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

func (fn ClockFunc) Now() time.Time { return fn() }

// IDGenerator produces submission identifiers.
type IDGenerator interface {
	New() string
}

// IDGeneratorFunc adapts a function into an IDGenerator.
type IDGeneratorFunc func() string

func (fn IDGeneratorFunc) New() string { return fn() }

type uuidGenerator struct{}

func (uuidGenerator) New() string { return uuid.NewString() }

// Option configures a Registry.
type Option func(*Registry)

// WithLogger attaches a structured logger. Defaults to zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithClock overrides the submission timestamp source.
func WithClock(clock Clock) Option {
	return func(r *Registry) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithIDGenerator overrides the submission id source (UUID v4 by default).
func WithIDGenerator(gen IDGenerator) Option {
	return func(r *Registry) {
		if gen != nil {
			r.ids = gen
		}
	}
}

// WithValidator swaps the rule evaluator, e.g. to use custom message
// templates.
func WithValidator(v *form.Validator) Option {
	return func(r *Registry) {
		if v != nil {
			r.validator = v
		}
	}
}

// WithMetrics records registry activity on the given collectors.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}
