package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formstate/pkg/registry"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/schema"
)

// Server exposes a form registry over HTTP.
type Server struct {
	registry     *registry.Registry
	catalog      schema.Source
	renderers    *render.Registry
	gatherer     prometheus.Gatherer
	extras       map[string]any
	checkOptions []schema.CheckOption
	timeout      time.Duration
	logger       zerolog.Logger
	router       chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithCatalog supplies the schemas instances can be created from by id. A
// *schema.Holder keeps the server in step with a watched directory.
func WithCatalog(source schema.Source) Option {
	return func(s *Server) {
		s.catalog = source
	}
}

// WithRenderers sets the renderers reachable under /render/{renderer}.
func WithRenderers(renderers *render.Registry) Option {
	return func(s *Server) {
		if renderers != nil {
			s.renderers = renderers
		}
	}
}

// WithGatherer selects the Prometheus registry served on /metrics.
func WithGatherer(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithExtras supplies the `extras.` condition context for rendered views.
func WithExtras(extras map[string]any) Option {
	return func(s *Server) {
		s.extras = extras
	}
}

// WithCheckOptions configures how inline configs posted to /instances are
// checked.
func WithCheckOptions(options ...schema.CheckOption) Option {
	return func(s *Server) {
		s.checkOptions = append(s.checkOptions, options...)
	}
}

// WithTimeout bounds request handling. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithLogger attaches a structured logger used for request logs.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New builds a server around reg.
func New(reg *registry.Registry, options ...Option) (*Server, error) {
	if reg == nil {
		return nil, errors.New("httpapi: registry is required")
	}
	s := &Server{
		registry:  reg,
		catalog:   schema.Static{},
		renderers: render.NewRegistry(),
		timeout:   30 * time.Second,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.routes()
	return s, nil
}

// Router returns the chi router serving the API.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newLoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(middleware.Timeout(s.timeout))
	}

	r.Handle("/metrics", s.metricsHandler())

	r.Get("/forms", s.listForms)
	r.Get("/forms/{formID}", s.getFormSchema)

	r.Get("/instances", s.listInstances)
	r.Route("/instances/{formID}", func(r chi.Router) {
		r.Post("/", s.createInstance)
		r.Group(func(r chi.Router) {
			r.Use(s.requireInstance)

			r.Get("/", s.getInstance)
			r.Delete("/", s.deleteInstance)

			r.Put("/fields/{fieldID}", s.setField)
			r.Post("/fields/{fieldID}/touch", s.touchField)
			r.Patch("/values", s.setValues)

			r.Post("/validate", s.validate)
			r.Post("/submit", s.submit)
			r.Post("/reset", s.reset)
			r.Delete("/errors", s.clearErrors)

			r.Get("/render/{renderer}", s.renderInstance)
		})
	})

	r.Get("/submissions", s.listSubmissions)
	r.Delete("/submissions", s.clearSubmissions)

	return r
}

// ServeHTTP makes the server usable as a plain handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) metricsHandler() http.Handler {
	if s.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}

func (s *Server) currentCatalog() *schema.Catalog {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Get()
}
