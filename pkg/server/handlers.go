package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formwizard/pkg/field"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

type createRequest struct {
	Initial map[string]any `json:"initial"`
}

type fieldsRequest struct {
	Name   string         `json:"name"`
	Value  any            `json:"value"`
	Values map[string]any `json:"values"`
}

type gotoRequest struct {
	Step int `json:"step"`
}

type sessionResponse struct {
	ID         string          `json:"id"`
	Definition string          `json:"definition"`
	Snapshot   wizard.Snapshot `json:"snapshot"`
	Moved      *bool           `json:"moved,omitempty"`
	Outcome    string          `json:"outcome,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleListDefinitions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"wizards": s.defs.IDs()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "definition")
	def, ok := s.defs.Definition(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", errDefinitionNotFound, id))
		return
	}

	var req createRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	sess, err := s.createSession(def, req.Initial)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.response(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if s.html != nil && strings.Contains(r.Header.Get("Accept"), "text/html") {
		out, err := s.html.Render(sess.ctrl.Snapshot(), sess.ctrl.Steps())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}
	writeJSON(w, http.StatusOK, s.response(sess))
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req fieldsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	changes := req.Values
	if req.Name != "" {
		if changes == nil {
			changes = make(map[string]any, 1)
		}
		changes[req.Name] = req.Value
	}
	specs := specsByName(sess.ctrl.Steps())
	for _, name := range orderedNames(sess.ctrl.Steps(), changes) {
		spec, known := specs[name]
		value := changes[name]
		if known {
			value = field.Coerce(spec, value)
		}
		if err := sess.ctrl.HandleFieldChange(name, value); err != nil {
			s.writeError(w, statusFor(err), err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.response(sess))
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	moved, err := sess.ctrl.Advance(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	resp := s.response(sess)
	resp.Moved = &moved
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRetreat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	moved, err := sess.ctrl.Retreat()
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	resp := s.response(sess)
	resp.Moved = &moved
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGoTo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req gotoRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	moved, err := sess.ctrl.GoToStep(req.Step)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	resp := s.response(sess)
	resp.Moved = &moved
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	outcome, err := sess.ctrl.Submit(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	resp := s.response(sess)
	resp.Outcome = outcome.String()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.ctrl.ClearCurrentStep()
	writeJSON(w, http.StatusOK, s.response(sess))
}

// handleCancel resets the session and closes it.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.ctrl.Cancel(); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.drop(sess.id)
	s.logger.Info("server: session cancelled", "session", sess.id)
	writeJSON(w, http.StatusOK, s.response(sess))
}

// handleDelete deletes the backing record and closes the session.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := sess.ctrl.Delete(r.Context()); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.drop(sess.id)
	s.logger.Info("server: record deleted", "session", sess.id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.session(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", errSessionNotFound, id))
		return nil, false
	}
	return sess, true
}

func (s *Server) response(sess *session) sessionResponse {
	return sessionResponse{
		ID:         sess.id,
		Definition: sess.definition,
		Snapshot:   sess.ctrl.Snapshot(),
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("server: request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, wizard.ErrSubmitInFlight):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrUnknownField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrDeleteUnsupported):
		return http.StatusMethodNotAllowed
	default:
		return http.StatusBadGateway
	}
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("server: decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
