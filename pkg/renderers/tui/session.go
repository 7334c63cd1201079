package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/visibility"
	"github.com/goliatone/go-formstate/pkg/visibility/expr"
)

const defaultMaxAttempts = 5

// Result is the outcome of one Fill.
type Result struct {
	FormID    string
	Submitted bool
	Values    form.Values
	Errors    form.Errors
}

// Session walks the visible fields of a registry instance, prompting for
// each one and routing answers through the registry, then submits.
type Session struct {
	reg         *registry.Registry
	driver      PromptDriver
	evaluator   visibility.Evaluator
	extras      map[string]any
	maxAttempts int
	theme       Theme
	logger      zerolog.Logger
}

// NewSession builds a session on reg. The survey driver is used unless
// WithPromptDriver says otherwise.
func NewSession(reg *registry.Registry, options ...Option) (*Session, error) {
	if reg == nil {
		return nil, errors.New("tui: registry is required")
	}
	s := &Session{
		reg:         reg,
		driver:      NewSurveyDriver(),
		evaluator:   expr.New(),
		maxAttempts: defaultMaxAttempts,
		theme:       DefaultTheme,
		logger:      zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Fill prompts for every visible field of formID in schema order and then
// submits. Visibility is re-evaluated before each field so earlier answers
// can reveal later ones. A field whose answer fails validation is asked
// again with the error shown.
func (s *Session) Fill(ctx context.Context, formID string) (Result, error) {
	cfg, ok := s.reg.Config(formID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownForm, formID)
	}

	if cfg.Title != "" {
		if err := s.info(ctx, cfg.Title); err != nil {
			return Result{}, err
		}
	}
	if cfg.Description != "" {
		if err := s.info(ctx, cfg.Description); err != nil {
			return Result{}, err
		}
	}

	for _, field := range cfg.Fields {
		if field.Disabled {
			continue
		}
		visible, err := visibility.Visible(s.evaluator, field, visibility.Context{
			Values: s.reg.FormValues(formID),
			Extras: s.extras,
		})
		if err != nil {
			return Result{}, err
		}
		if !visible {
			s.logger.Debug().Str("form_id", formID).Str("field_id", field.ID).Msg("field hidden by condition")
			continue
		}
		if err := s.askField(ctx, formID, field); err != nil {
			return Result{}, err
		}
	}

	submitted := s.reg.SubmitForm(formID)
	result := Result{
		FormID:    formID,
		Submitted: submitted,
		Values:    s.reg.FormValues(formID),
		Errors:    s.reg.FormErrors(formID),
	}
	if !submitted {
		for _, field := range cfg.Fields {
			if msg, ok := result.Errors[field.ID]; ok {
				if err := s.fail(ctx, msg); err != nil {
					return result, err
				}
			}
		}
	}
	s.logger.Info().Str("form_id", formID).Bool("submitted", submitted).Msg("terminal session finished")
	return result, nil
}

func (s *Session) askField(ctx context.Context, formID string, field form.Field) error {
	for attempt := 1; ; attempt++ {
		current := s.reg.FieldValue(formID, field.ID)
		answer, err := s.prompt(ctx, field, current)
		if err != nil {
			return err
		}

		s.reg.SetFieldValue(formID, field.ID, form.Normalize(field.Type, answer))
		s.reg.TouchField(formID, field.ID)

		msg := s.reg.FormErrors(formID)[field.ID]
		if msg == "" {
			return nil
		}
		if err := s.fail(ctx, msg); err != nil {
			return err
		}
		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			return fmt.Errorf("%w: field %q", ErrTooManyAttempts, field.ID)
		}
	}
}

func (s *Session) prompt(ctx context.Context, field form.Field, current form.Value) (form.Value, error) {
	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}

	switch field.Type {
	case form.FieldTypeCheckbox:
		ok, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: label,
			Default: current.Truthy(),
			Help:    field.Hint,
		})
		return form.Bool(ok), err

	case form.FieldTypeSelect:
		labels := make([]string, len(field.Options))
		defaultIdx := 0
		for i, opt := range field.Options {
			labels[i] = opt.Label
			if opt.Label == "" {
				labels[i] = opt.Value.String()
			}
			if opt.Value.Equal(current) || opt.Value.String() == current.String() {
				defaultIdx = i
			}
		}
		if len(labels) == 0 {
			return current, nil
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         field.Hint,
		})
		if err != nil {
			return form.Null(), err
		}
		if idx < 0 || idx >= len(field.Options) {
			return form.Null(), fmt.Errorf("tui: field %q: option index %d out of range", field.ID, idx)
		}
		return field.Options[idx].Value.Clone(), nil

	case form.FieldTypeTextarea:
		text, err := s.driver.TextArea(ctx, TextAreaConfig{
			Message: label,
			Default: current.String(),
			Help:    field.Hint,
		})
		return form.String(text), err

	default:
		cfg := InputConfig{
			Message: label,
			Default: current.String(),
			Help:    field.Hint,
		}
		var (
			text string
			err  error
		)
		if strings.EqualFold(field.Attributes["type"], "password") {
			text, err = s.driver.Password(ctx, cfg)
		} else {
			text, err = s.driver.Input(ctx, cfg)
		}
		return form.String(text), err
	}
}

func (s *Session) info(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.InfoPrefix+msg)
}

func (s *Session) fail(ctx context.Context, msg string) error {
	return s.driver.Info(ctx, s.theme.ErrorPrefix+msg)
}
