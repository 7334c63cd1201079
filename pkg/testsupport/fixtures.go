package testsupport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// FixedTime is the instant FixedClock reports.
var FixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// FixedClock always reports FixedTime.
func FixedClock() registry.Clock {
	return registry.ClockFunc(func() time.Time { return FixedTime })
}

// SequentialIDs yields "sub-1", "sub-2", ... Not safe for concurrent use.
func SequentialIDs() registry.IDGenerator {
	n := 0
	return registry.IDGeneratorFunc(func() string {
		n++
		return fmt.Sprintf("sub-%d", n)
	})
}

// NewRegistry builds a registry with a fixed clock and sequential
// submission ids so assertions can compare whole submissions.
func NewRegistry(options ...registry.Option) *registry.Registry {
	base := []registry.Option{
		registry.WithClock(FixedClock()),
		registry.WithIDGenerator(SequentialIDs()),
	}
	return registry.New(append(base, options...)...)
}

// LoadConfig reads a single-form schema fixture, failing the test on error.
func LoadConfig(t *testing.T, path string) form.Config {
	t.Helper()

	cfg, err := LoadConfigFromPath(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

// LoadConfigFromPath returns the first form of a schema file without
// requiring testing.T.
func LoadConfigFromPath(path string) (form.Config, error) {
	if path == "" {
		return form.Config{}, errors.New("testsupport: config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return form.Config{}, fmt.Errorf("testsupport: read config: %w", err)
	}
	forms, err := schema.ParseDocument(data, path)
	if err != nil {
		return form.Config{}, fmt.Errorf("testsupport: parse config: %w", err)
	}
	return forms[0], nil
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
