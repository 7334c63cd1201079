package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

// IdentifierFunc lists the field ids a condition reads. It fails when the
// condition does not parse.
type IdentifierFunc func(condition string) ([]string, error)

// CheckOption adjusts Check and LoadFS.
type CheckOption func(*checkConfig)

type checkConfig struct {
	identifiers IdentifierFunc
}

// WithConditionLanguage checks conditions with fn instead of the built-in
// condition grammar. Use it together with the matching evaluator.
func WithConditionLanguage(fn IdentifierFunc) CheckOption {
	return func(c *checkConfig) {
		if fn != nil {
			c.identifiers = fn
		}
	}
}

func newCheckConfig(options []CheckOption) checkConfig {
	cfg := checkConfig{identifiers: expr.Identifiers}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// LoadFS walks fsys and parses every JSON/YAML form document. A document
// holds either a single form or a `forms` list. Each form is validated, its
// conditions must compile and reference only its own field ids, and form ids
// must be unique across files. A nil fsys yields an empty catalog.
func LoadFS(fsys fs.FS, options ...CheckOption) (*Catalog, error) {
	catalog := newCatalog()
	if fsys == nil {
		return catalog, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}

		configs, err := ParseDocument(data, path)
		if err != nil {
			return err
		}
		for _, cfg := range configs {
			if err := Check(cfg, path, options...); err != nil {
				return err
			}
			if existing, ok := catalog.entries[cfg.ID]; ok {
				return fmt.Errorf("schema: duplicate form %q (files %s and %s)", cfg.ID, existing.Source, path)
			}
			catalog.add(Entry{Config: cfg, Source: path})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

type documentFile struct {
	Forms       []form.Config `json:"forms" yaml:"forms"`
	form.Config `yaml:",inline"`
}

// ParseDocument decodes one JSON or YAML document into its form configs.
// source is only used in error messages.
func ParseDocument(data []byte, source string) ([]form.Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("schema: file %s is empty", source)
	}

	var doc documentFile
	jsonErr := json.Unmarshal(data, &doc)
	if jsonErr != nil {
		doc = documentFile{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return nil, fmt.Errorf("schema: parse %s: invalid JSON or YAML: %w", source, yamlErr)
		}
	}

	switch {
	case len(doc.Forms) > 0 && (doc.ID != "" || len(doc.Fields) > 0):
		return nil, fmt.Errorf("schema: file %s mixes a top-level form with a forms list", source)
	case len(doc.Forms) > 0:
		return doc.Forms, nil
	case doc.ID == "" && len(doc.Fields) == 0:
		return nil, fmt.Errorf("schema: file %s defines no forms", source)
	default:
		return []form.Config{doc.Config}, nil
	}
}

// Check runs Config.Validate and verifies that every condition parses and
// only references fields of the same form. source prefixes the error.
func Check(cfg form.Config, source string, options ...CheckOption) error {
	check := newCheckConfig(options)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("schema: %s: %w", source, err)
	}

	known := make(map[string]struct{}, len(cfg.Fields))
	for _, field := range cfg.Fields {
		known[field.ID] = struct{}{}
	}

	var issues []error
	for _, field := range cfg.Fields {
		if strings.TrimSpace(field.Condition) == "" {
			continue
		}
		idents, err := check.identifiers(field.Condition)
		if err != nil {
			issues = append(issues, fmt.Errorf("form %q field %q: condition: %w", cfg.ID, field.ID, err))
			continue
		}
		for _, ident := range idents {
			if _, ok := known[ident]; !ok {
				issues = append(issues, fmt.Errorf("form %q field %q: condition references unknown field %q", cfg.ID, field.ID, ident))
			}
		}
	}
	if len(issues) > 0 {
		return fmt.Errorf("schema: %s: %w", source, errors.Join(issues...))
	}
	return nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
