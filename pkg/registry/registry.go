package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/form"
)

// Submission is one entry of the append-only submission history.
type Submission struct {
	ID        string      `json:"id"`
	FormID    string      `json:"formId"`
	Values    form.Values `json:"values"`
	Timestamp time.Time   `json:"timestamp"`
}

func (s Submission) clone() Submission {
	s.Values = s.Values.Clone()
	return s
}

// State is a point-in-time snapshot of one form instance. It shares no
// memory with the registry.
type State struct {
	FormID     string      `json:"formId"`
	Values     form.Values `json:"values"`
	Errors     form.Errors `json:"errors"`
	Touched    []string    `json:"touched"`
	Dirty      []string    `json:"dirty"`
	Valid      bool        `json:"isValid"`
	Submitting bool        `json:"isSubmitting"`
}

// IsTouched reports whether the user interacted with fieldID.
func (s State) IsTouched(fieldID string) bool {
	return containsSorted(s.Touched, fieldID)
}

// IsDirty reports whether fieldID was written since the last reset.
func (s State) IsDirty(fieldID string) bool {
	return containsSorted(s.Dirty, fieldID)
}

type instance struct {
	mu         sync.Mutex
	config     form.Config
	values     form.Values
	errors     form.Errors
	touched    map[string]struct{}
	dirty      map[string]struct{}
	valid      bool
	submitting bool
}

func newInstance(cfg form.Config, values form.Values) *instance {
	return &instance{
		config:  cfg,
		values:  values,
		errors:  make(form.Errors),
		touched: make(map[string]struct{}),
		dirty:   make(map[string]struct{}),
		valid:   true,
	}
}

func (in *instance) knows(fieldID string) bool {
	_, ok := in.values[fieldID]
	return ok
}

// Registry owns every live form instance keyed by form id, plus the
// submission history. Each instance is guarded by its own mutex so
// operations on different forms never contend; the map and the history sit
// behind a registry-wide RWMutex. Lock order is instance, then registry.
//
// Lookups on unknown form or field ids degrade to neutral results (empty
// value, false, no-op) instead of failing.
type Registry struct {
	mu      sync.RWMutex
	forms   map[string]*instance
	order   []string
	history []Submission
	last    string

	logger    zerolog.Logger
	clock     Clock
	ids       IDGenerator
	validator *form.Validator
	metrics   *Metrics
}

// New constructs an empty registry.
func New(options ...Option) *Registry {
	r := &Registry{
		forms:     make(map[string]*instance),
		logger:    zerolog.Nop(),
		clock:     ClockFunc(time.Now),
		ids:       uuidGenerator{},
		validator: form.NewValidator(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

func (r *Registry) lookup(formID string) *instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.forms[formID]
}

// InitializeForm creates the instance for cfg.ID, discarding any previous
// state under that id. Values start from the field defaults; entries of
// initial whose id belongs to the config override them, other keys are
// dropped so the value map always mirrors the config.
func (r *Registry) InitializeForm(cfg form.Config, initial form.Values) {
	cfg = cfg.Clone()
	values := form.InitialValues(cfg.Fields)
	for id, value := range initial {
		if _, ok := values[id]; ok {
			values[id] = value.Clone()
		}
	}
	inst := newInstance(cfg, values)

	r.mu.Lock()
	_, replaced := r.forms[cfg.ID]
	if !replaced {
		r.order = append(r.order, cfg.ID)
	}
	r.forms[cfg.ID] = inst
	count := len(r.forms)
	r.mu.Unlock()

	r.metrics.setActive(count)
	r.logger.Debug().
		Str("form_id", cfg.ID).
		Int("fields", len(cfg.Fields)).
		Bool("replaced", replaced).
		Msg("form initialized")
}

// Has reports whether an instance exists for formID.
func (r *Registry) Has(formID string) bool {
	return r.lookup(formID) != nil
}

// Config returns a copy of the schema the instance was initialized with.
func (r *Registry) Config(formID string) (form.Config, bool) {
	inst := r.lookup(formID)
	if inst == nil {
		return form.Config{}, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.config.Clone(), true
}

// FieldValue returns the current value of a field, or an empty string when
// the form, the field or the value is absent.
func (r *Registry) FieldValue(formID, fieldID string) form.Value {
	inst := r.lookup(formID)
	if inst == nil {
		return form.String("")
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	value := inst.values.Get(fieldID)
	if value.IsNull() {
		return form.String("")
	}
	return value.Clone()
}

// SetFieldValue stores value verbatim, marks the field dirty and re-checks
// that field only; other fields keep their error state. Normalization is the
// caller's job. Unknown forms and fields are ignored.
func (r *Registry) SetFieldValue(formID, fieldID string, value form.Value) {
	inst := r.lookup(formID)
	if inst == nil {
		return
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	field, ok := inst.config.Field(fieldID)
	if !ok {
		r.logger.Debug().Str("form_id", formID).Str("field_id", fieldID).Msg("ignoring write to unknown field")
		return
	}

	inst.values[fieldID] = value.Clone()
	inst.dirty[fieldID] = struct{}{}

	msg := r.validator.ValidateField(field, value)
	if msg != "" {
		inst.errors[fieldID] = msg
	} else {
		delete(inst.errors, fieldID)
	}
	r.metrics.fieldUpdated(formID, msg == "")
}

// TouchField records that the user interacted with a field. It never
// validates.
func (r *Registry) TouchField(formID, fieldID string) {
	inst := r.lookup(formID)
	if inst == nil {
		return
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.knows(fieldID) {
		inst.touched[fieldID] = struct{}{}
	}
}

// FormValues returns a copy of the instance values (empty when absent).
func (r *Registry) FormValues(formID string) form.Values {
	inst := r.lookup(formID)
	if inst == nil {
		return form.Values{}
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.values.Clone()
}

// SetFormValues shallow-merges values into the instance and marks every
// merged field dirty. It does not validate; call ValidateForm afterwards.
func (r *Registry) SetFormValues(formID string, values form.Values) {
	inst := r.lookup(formID)
	if inst == nil {
		return
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	for id, value := range values {
		if !inst.knows(id) {
			continue
		}
		inst.values[id] = value.Clone()
		inst.dirty[id] = struct{}{}
	}
}

// FormErrors returns a copy of the current error map (empty when absent).
func (r *Registry) FormErrors(formID string) form.Errors {
	inst := r.lookup(formID)
	if inst == nil {
		return form.Errors{}
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.errors.Clone()
}

// ValidateForm re-checks every field, replaces the error map wholesale and
// records the outcome. Unknown forms report false.
func (r *Registry) ValidateForm(formID string) bool {
	inst := r.lookup(formID)
	if inst == nil {
		return false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return r.validateLocked(formID, inst)
}

func (r *Registry) validateLocked(formID string, inst *instance) bool {
	inst.errors = r.validator.ValidateForm(inst.config.Fields, inst.values)
	inst.valid = !inst.errors.HasErrors()
	r.metrics.validated(formID, inst.valid)
	return inst.valid
}

// SubmitForm validates the whole form and, when it passes, appends a
// snapshot of the values to the submission history. Invalid or unknown
// forms leave the history untouched.
func (r *Registry) SubmitForm(formID string) bool {
	_, ok := r.Submit(formID)
	return ok
}

// Submit is SubmitForm returning the recorded history entry, so callers
// never have to read it back from a history other submits may have grown or
// cleared meanwhile.
func (r *Registry) Submit(formID string) (Submission, bool) {
	inst := r.lookup(formID)
	if inst == nil {
		return Submission{}, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	inst.submitting = true
	defer func() { inst.submitting = false }()

	valid := r.validateLocked(formID, inst)
	r.metrics.submitted(formID, valid)
	if !valid {
		r.logger.Debug().
			Str("form_id", formID).
			Int("errors", len(inst.errors)).
			Msg("submission rejected")
		return Submission{}, false
	}

	entry := Submission{
		ID:        r.ids.New(),
		FormID:    formID,
		Values:    inst.values.Clone(),
		Timestamp: r.clock.Now(),
	}

	r.mu.Lock()
	r.history = append(r.history, entry)
	r.last = formID
	r.mu.Unlock()

	r.logger.Info().
		Str("form_id", formID).
		Str("submission_id", entry.ID).
		Msg("form submitted")
	return entry.clone(), true
}

// ResetForm restores the defaults and clears errors, touched and dirty
// tracking.
func (r *Registry) ResetForm(formID string) {
	inst := r.lookup(formID)
	if inst == nil {
		return
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	inst.values = form.InitialValues(inst.config.Fields)
	inst.errors = make(form.Errors)
	inst.touched = make(map[string]struct{})
	inst.dirty = make(map[string]struct{})
	inst.valid = true
	inst.submitting = false
}

// RemoveForm destroys the instance and reports whether one existed.
func (r *Registry) RemoveForm(formID string) bool {
	r.mu.Lock()
	_, ok := r.forms[formID]
	if ok {
		delete(r.forms, formID)
		for i, id := range r.order {
			if id == formID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	count := len(r.forms)
	r.mu.Unlock()

	if ok {
		r.metrics.setActive(count)
		r.logger.Debug().Str("form_id", formID).Msg("form removed")
	}
	return ok
}

// ClearFieldErrors drops every error of the instance without revalidating.
func (r *Registry) ClearFieldErrors(formID string) {
	inst := r.lookup(formID)
	if inst == nil {
		return
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.errors = make(form.Errors)
}

// State snapshots the whole instance.
func (r *Registry) State(formID string) (State, bool) {
	inst := r.lookup(formID)
	if inst == nil {
		return State{}, false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()

	return State{
		FormID:     formID,
		Values:     inst.values.Clone(),
		Errors:     inst.errors.Clone(),
		Touched:    sortedKeys(inst.touched),
		Dirty:      sortedKeys(inst.dirty),
		Valid:      inst.valid,
		Submitting: inst.submitting,
	}, true
}

// IsDirty reports whether any field was written since the last reset.
func (r *Registry) IsDirty(formID string) bool {
	inst := r.lookup(formID)
	if inst == nil {
		return false
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return len(inst.dirty) > 0
}

// SubmissionHistory returns a copy of every recorded submission, oldest
// first.
func (r *Registry) SubmissionHistory() []Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Submission, len(r.history))
	for i, entry := range r.history {
		out[i] = entry.clone()
	}
	return out
}

// ClearSubmissionHistory empties the history. The last-submitted pointer is
// kept.
func (r *Registry) ClearSubmissionHistory() {
	r.mu.Lock()
	r.history = nil
	r.mu.Unlock()
}

// LastSubmitted returns the id of the most recently submitted form.
func (r *Registry) LastSubmitted() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.last != ""
}

// FormCount reports how many instances are live.
func (r *Registry) FormCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.forms)
}

// FormIDs lists live form ids in creation order.
func (r *Registry) FormIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func containsSorted(list []string, key string) bool {
	idx := sort.SearchStrings(list, key)
	return idx < len(list) && list[idx] == key
}
