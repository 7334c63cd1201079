package tui

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/visibility"
)

// Theme holds the prefixes printed before informational and error lines.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme is used unless WithTheme overrides it.
var DefaultTheme = Theme{InfoPrefix: "", ErrorPrefix: "✗ "}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the survey driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithEvaluator replaces the condition evaluator.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(s *Session) {
		if eval != nil {
			s.evaluator = eval
		}
	}
}

// WithExtras supplies the `extras.` context for conditions.
func WithExtras(extras map[string]any) Option {
	return func(s *Session) {
		s.extras = extras
	}
}

// WithMaxAttempts bounds how often an invalid field is re-asked. Zero or
// less means no bound.
func WithMaxAttempts(n int) Option {
	return func(s *Session) {
		s.maxAttempts = n
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}
