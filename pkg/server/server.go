// Package server hosts wizard sessions over HTTP. Each session owns one
// wizard.Controller built from a schema definition; clients send commands
// and receive the resulting snapshot as JSON (or HTML when a renderer is
// configured and the client asks for it).
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/renderers/html"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

var (
	errSessionNotFound    = errors.New("server: session not found")
	errDefinitionNotFound = errors.New("server: definition not found")
	errNoBackend          = errors.New("server: no backend configured")
)

// Backend performs the side effects of a wizard. *submit.Client satisfies it.
type Backend interface {
	Submit(ctx context.Context, values field.Values) (wizard.SubmitResult, error)
	Delete(ctx context.Context, values field.Values) error
}

// BackendFactory returns the backend for a definition.
type BackendFactory func(def schema.Definition) (Backend, error)

// Option configures the Server.
type Option func(*Server)

// WithRegistry sets the rule/formatter registry used to build definitions.
func WithRegistry(reg *schema.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithBackend sets how sessions reach the REST backend.
func WithBackend(factory BackendFactory) Option {
	return func(s *Server) {
		s.backend = factory
	}
}

// WithHTMLRenderer enables text/html responses for GET /sessions/{id}.
func WithHTMLRenderer(r *html.Renderer) Option {
	return func(s *Server) {
		s.html = r
	}
}

// WithLogger sets the request and session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWizardOptions appends controller options applied to every session.
func WithWizardOptions(opts ...wizard.Option) Option {
	return func(s *Server) {
		s.wizardOpts = append(s.wizardOpts, opts...)
	}
}

// Server keeps wizard sessions in memory.
type Server struct {
	defs       *schema.Store
	registry   *schema.Registry
	backend    BackendFactory
	html       *html.Renderer
	logger     *slog.Logger
	wizardOpts []wizard.Option

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	id         string
	definition string
	ctrl       *wizard.Controller
}

// New creates a server over the loaded definitions.
func New(defs *schema.Store, options ...Option) *Server {
	s := &Server{
		defs:     defs,
		registry: schema.NewRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions: make(map[string]*session),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/wizards", s.handleListDefinitions)
	r.Post("/wizards/{definition}", s.handleCreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleDelete)
		r.Post("/fields", s.handleFields)
		r.Post("/advance", s.handleAdvance)
		r.Post("/retreat", s.handleRetreat)
		r.Post("/goto", s.handleGoTo)
		r.Post("/submit", s.handleSubmit)
		r.Post("/clear", s.handleClear)
		r.Post("/cancel", s.handleCancel)
	})
	return r
}

func (s *Server) createSession(def schema.Definition, initial map[string]any) (*session, error) {
	steps, err := def.Build(s.registry)
	if err != nil {
		return nil, err
	}
	if s.backend == nil {
		return nil, errNoBackend
	}
	backend, err := s.backend(def)
	if err != nil {
		return nil, err
	}

	values := wizard.CoerceValues(steps, def.Initial, initial)

	id := uuid.NewString()
	opts := append([]wizard.Option{
		wizard.WithInitialValues(values),
		wizard.WithOnDelete(backend.Delete),
		wizard.WithLogger(s.logger.With("session", id, "definition", def.ID)),
	}, s.wizardOpts...)
	ctrl, err := wizard.New(steps, backend.Submit, opts...)
	if err != nil {
		return nil, err
	}

	sess := &session{id: id, definition: def.ID, ctrl: ctrl}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	s.logger.Info("server: session created", "session", id, "definition", def.ID)
	return sess, nil
}

func (s *Server) session(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) drop(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("server: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
