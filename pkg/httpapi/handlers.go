package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
)

const maxBodyBytes = 1 << 20

type formSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	Fields      int    `json:"fields"`
}

type instancesResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

type createRequest struct {
	Config *form.Config `json:"config,omitempty"`
	Values form.Values  `json:"values,omitempty"`
}

type fieldRequest struct {
	Value form.Value `json:"value"`
	Touch bool       `json:"touch,omitempty"`
}

type validateResponse struct {
	Valid  bool        `json:"valid"`
	Errors form.Errors `json:"errors"`
}

type submitResponse struct {
	Submitted  bool                 `json:"submitted"`
	Submission *registry.Submission `json:"submission,omitempty"`
	State      registry.State       `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) listForms(w http.ResponseWriter, r *http.Request) {
	catalog := s.currentCatalog()
	out := make([]formSummary, 0, catalog.Len())
	for _, cfg := range catalog.Forms() {
		out = append(out, formSummary{
			ID:          cfg.ID,
			Title:       cfg.Title,
			Description: cfg.Description,
			Source:      catalog.Source(cfg.ID),
			Fields:      len(cfg.Fields),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getFormSchema(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	cfg, ok := s.currentCatalog().Form(formID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown form %q", formID)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) listInstances(w http.ResponseWriter, r *http.Request) {
	ids := s.registry.FormIDs()
	writeJSON(w, http.StatusOK, instancesResponse{IDs: ids, Count: len(ids)})
}

func (s *Server) createInstance(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	var cfg form.Config
	if req.Config != nil {
		cfg = *req.Config
		if cfg.ID == "" {
			cfg.ID = formID
		}
		if cfg.ID != formID {
			writeError(w, http.StatusBadRequest, "config id %q does not match path id %q", cfg.ID, formID)
			return
		}
		if err := schema.Check(cfg, "request", s.checkOptions...); err != nil {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
	} else {
		found, ok := s.currentCatalog().Form(formID)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown form %q", formID)
			return
		}
		cfg = found
	}

	s.registry.InitializeForm(cfg, req.Values)
	s.logger.Info().Str("form_id", formID).Msg("form instance initialized")
	s.writeState(w, http.StatusCreated, formID)
}

func (s *Server) getInstance(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, http.StatusOK, chi.URLParam(r, "formID"))
}

func (s *Server) deleteInstance(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	s.registry.RemoveForm(formID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setField(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	field, ok := s.lookupField(w, r)
	if !ok {
		return
	}

	var req fieldRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}

	s.registry.SetFieldValue(formID, field.ID, form.Normalize(field.Type, req.Value))
	if req.Touch {
		s.registry.TouchField(formID, field.ID)
	}
	s.writeState(w, http.StatusOK, formID)
}

func (s *Server) touchField(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	field, ok := s.lookupField(w, r)
	if !ok {
		return
	}
	s.registry.TouchField(formID, field.ID)
	s.writeState(w, http.StatusOK, formID)
}

func (s *Server) setValues(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	var values form.Values
	if err := decodeBody(r, &values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	s.registry.SetFormValues(formID, values)
	s.writeState(w, http.StatusOK, formID)
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	valid := s.registry.ValidateForm(formID)
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:  valid,
		Errors: s.registry.FormErrors(formID),
	})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	entry, submitted := s.registry.Submit(formID)

	resp := submitResponse{Submitted: submitted}
	if submitted {
		resp.Submission = &entry
	}
	state, _ := s.registry.State(formID)
	resp.State = state

	status := http.StatusOK
	if !submitted {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	s.registry.ResetForm(formID)
	s.writeState(w, http.StatusOK, formID)
}

func (s *Server) clearErrors(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	s.registry.ClearFieldErrors(formID)
	s.writeState(w, http.StatusOK, formID)
}

func (s *Server) renderInstance(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")
	name := chi.URLParam(r, "renderer")

	query := r.URL.Query()
	opts := render.Options{
		Action: query.Get("action"),
		Method: query.Get("method"),
	}
	if raw := query.Get("showAll"); raw != "" {
		showAll, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid showAll value %q", raw)
			return
		}
		opts.ShowAllErrors = showAll
	}

	view, err := render.NewView(s.registry, formID, s.extras)
	if err != nil {
		writeError(w, http.StatusNotFound, "%v", err)
		return
	}

	out, contentType, err := s.renderers.Render(r.Context(), name, view, opts)
	switch {
	case errors.Is(err, render.ErrUnknownRenderer):
		writeError(w, http.StatusNotFound, "%v", err)
		return
	case err != nil:
		s.logger.Error().Err(err).Str("form_id", formID).Str("renderer", name).Msg("render failed")
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	history := s.registry.SubmissionHistory()
	if formID := r.URL.Query().Get("formId"); formID != "" {
		filtered := history[:0]
		for _, sub := range history {
			if sub.FormID == formID {
				filtered = append(filtered, sub)
			}
		}
		history = filtered
	}
	if history == nil {
		history = []registry.Submission{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) clearSubmissions(w http.ResponseWriter, r *http.Request) {
	s.registry.ClearSubmissionHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookupField(w http.ResponseWriter, r *http.Request) (form.Field, bool) {
	formID := chi.URLParam(r, "formID")
	fieldID := chi.URLParam(r, "fieldID")
	cfg, ok := s.registry.Config(formID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown form instance %q", formID)
		return form.Field{}, false
	}
	field, ok := cfg.Field(fieldID)
	if !ok {
		writeError(w, http.StatusNotFound, "form %q has no field %q", formID, fieldID)
		return form.Field{}, false
	}
	return field, true
}

func (s *Server) writeState(w http.ResponseWriter, status int, formID string) {
	state, ok := s.registry.State(formID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown form instance %q", formID)
		return
	}
	writeJSON(w, status, state)
}

// decodeBody reads a JSON body into dst. An empty body leaves dst untouched.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}
