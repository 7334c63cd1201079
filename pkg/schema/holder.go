package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Holder provides thread-safe access to a catalog loaded from a directory,
// with reload on demand or on file change.
type Holder struct {
	mu       sync.RWMutex
	catalog  *Catalog
	dir      string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Catalog)
	stopCh   chan struct{}
	stopOnce sync.Once

	checkOptions []CheckOption
}

// HolderOption configures a Holder.
type HolderOption func(*Holder)

// WithHolderLogger sets the logger used for reload events.
func WithHolderLogger(logger zerolog.Logger) HolderOption {
	return func(h *Holder) {
		h.logger = logger
	}
}

// WithHolderCheckOptions applies options to every load of the directory.
func WithHolderCheckOptions(options ...CheckOption) HolderOption {
	return func(h *Holder) {
		h.checkOptions = append(h.checkOptions, options...)
	}
}

// NewHolder loads dir and returns a holder serving that catalog.
func NewHolder(dir string, options ...HolderOption) (*Holder, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("schema: absolute path: %w", err)
	}

	h := &Holder{
		dir:    absDir,
		logger: zerolog.Nop(),
		stopCh: make(chan struct{}),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}

	catalog, err := LoadFS(os.DirFS(absDir), h.checkOptions...)
	if err != nil {
		return nil, err
	}
	h.catalog = catalog
	return h, nil
}

// Get returns the current catalog.
func (h *Holder) Get() *Catalog {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.catalog
}

// Dir returns the watched directory.
func (h *Holder) Dir() string { return h.dir }

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Catalog)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Reload re-reads the directory. On failure the previous catalog is kept.
func (h *Holder) Reload() error {
	h.logger.Info().Str("dir", h.dir).Msg("reloading form schemas")

	catalog, err := LoadFS(os.DirFS(h.dir), h.checkOptions...)
	if err != nil {
		h.logger.Error().Err(err).Msg("schema reload failed, keeping previous catalog")
		return fmt.Errorf("schema: reload: %w", err)
	}

	h.mu.Lock()
	previous := h.catalog
	h.catalog = catalog
	listeners := append([]func(*Catalog){}, h.onChange...)
	h.mu.Unlock()

	h.logger.Info().
		Int("forms", catalog.Len()).
		Int("previous", previous.Len()).
		Msg("form schemas reloaded")

	for _, fn := range listeners {
		fn(catalog)
	}
	return nil
}

// Watch starts reloading whenever a schema file in the directory changes.
func (h *Holder) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schema: create watcher: %w", err)
	}
	if err := watcher.Add(h.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("schema: watch directory: %w", err)
	}
	h.watcher = watcher

	go h.watchLoop()

	h.logger.Info().Str("dir", h.dir).Msg("watching form schemas for changes")
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop() {
	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if !isSchemaFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			h.logger.Debug().
				Str("file", event.Name).
				Str("op", event.Op.String()).
				Msg("form schema changed")
			if err := h.Reload(); err != nil {
				h.logger.Error().Err(err).Msg("auto-reload failed")
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("schema watcher error")

		case <-h.stopCh:
			return
		}
	}
}
