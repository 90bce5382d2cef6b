package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/aretw0/assetflow/internal/presentation/graph"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/aretw0/assetflow/pkg/wizard"
	"github.com/aretw0/assetflow/pkg/workflows"
	"github.com/go-chi/chi/v5"
)

// StartRequest opens a wizard session.
type StartRequest struct {
	Workflow string         `json:"workflow"`
	Values   map[string]any `json:"values,omitempty"`
}

// SessionResponse carries a full instance snapshot.
type SessionResponse struct {
	SessionID string                   `json:"session_id"`
	Instance  *domain.WorkflowInstance `json:"instance"`
}

// DiffResponse carries the changes caused by one operation.
type DiffResponse struct {
	SessionID string               `json:"session_id"`
	Diff      *domain.InstanceDiff `json:"diff,omitempty"`
	// Closed reports that the session ended (submitted or cancelled) and was removed.
	Closed bool `json:"closed,omitempty"`
}

func (s *Server) controller(def *workflows.Definition, sessionID string) (*wizard.Controller, error) {
	return def.NewController(nil,
		wizard.WithLifecycleHooks(s.hooks),
		wizard.WithNotifier(s.notifier),
		wizard.WithLogger(s.logger.With("session_id", sessionID)),
	)
}

// applyValues sets values in key order so the result does not depend on map iteration.
func applyValues(ctrl *wizard.Controller, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := ctrl.UpdateField(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err, nil)
		return
	}
	def, err := s.catalogue.Get(req.Workflow)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	ctrl, err := s.controller(def, "")
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if err := applyValues(ctrl, req.Values); err != nil {
		s.writeError(w, err, nil)
		return
	}

	inst := ctrl.Snapshot()
	id, err := s.sessions.Start(r.Context(), inst)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.logger.Info("wizard session started", "session_id", id, "workflow", def.ID)
	s.writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id, Instance: inst})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	inst, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, Instance: inst})
}

// GetSessionGraph handles GET /sessions/{sessionID}/graph, highlighting the
// session's current step.
func (s *Server) GetSessionGraph(w http.ResponseWriter, r *http.Request) {
	inst, err := s.sessions.Load(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	def, err := s.catalogue.Get(inst.Workflow)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeMermaid(w, def, graph.OverlayFrom(inst))
}

type operation func(ctx context.Context, def *workflows.Definition, ctrl *wizard.Controller) error

// drive restores the stored instance into a fresh controller, runs op under
// the session lock and persists the outcome. Sessions that were submitted or
// cancelled are removed.
func (s *Server) drive(w http.ResponseWriter, r *http.Request, op operation) {
	id := chi.URLParam(r, "sessionID")
	var before, after *domain.WorkflowInstance
	closed := false

	_, err := s.sessions.Update(r.Context(), id, func(ctx context.Context, inst *domain.WorkflowInstance) (*domain.WorkflowInstance, error) {
		def, err := s.catalogue.Get(inst.Workflow)
		if err != nil {
			return inst, err
		}
		ctrl, err := s.controller(def, id)
		if err != nil {
			return inst, err
		}
		if err := ctrl.Restore(inst); err != nil {
			return inst, err
		}
		before = ctrl.Snapshot()
		opErr := op(ctx, def, ctrl)
		after = ctrl.Snapshot()

		if after.Phase == domain.PhaseSubmitted || !ctrl.Active() {
			closed = true
			return nil, opErr
		}
		return after, opErr
	})

	diff := domain.Diff(before, after)
	if diff != nil {
		if payload, mErr := json.Marshal(diff); mErr == nil {
			s.streams.Broadcast(id, string(payload))
		}
	}
	if err != nil {
		s.writeError(w, err, diff)
		return
	}
	if closed {
		s.streams.Close(id)
	}
	s.writeJSON(w, http.StatusOK, DiffResponse{SessionID: id, Diff: diff, Closed: closed})
}

// UpdateFields handles PATCH /sessions/{sessionID}/fields with a JSON object
// of field values.
func (s *Server) UpdateFields(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := decodeBody(r, &values); err != nil {
		s.writeError(w, err, nil)
		return
	}
	if len(values) == 0 {
		s.writeError(w, &badRequestError{msg: "no fields to update"}, nil)
		return
	}
	s.drive(w, r, func(_ context.Context, _ *workflows.Definition, ctrl *wizard.Controller) error {
		return applyValues(ctrl, values)
	})
}

// Next handles POST /sessions/{sessionID}/next.
func (s *Server) Next(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(_ context.Context, _ *workflows.Definition, ctrl *wizard.Controller) error {
		return ctrl.Next()
	})
}

// Back handles POST /sessions/{sessionID}/back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(_ context.Context, _ *workflows.Definition, ctrl *wizard.Controller) error {
		return ctrl.Back()
	})
}

// Reset handles POST /sessions/{sessionID}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(_ context.Context, _ *workflows.Definition, ctrl *wizard.Controller) error {
		ctrl.Reset()
		return nil
	})
}

// Submit handles POST /sessions/{sessionID}/submit. The session lock is held
// for the whole commit, so a concurrent submit of the same session waits and
// then observes the outcome.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(ctx context.Context, def *workflows.Definition, ctrl *wizard.Controller) error {
		if s.commit == nil {
			return errors.New("no commit function configured")
		}
		return ctrl.Submit(ctx, s.commit(def))
	})
}

// CancelSession handles DELETE /sessions/{sessionID}.
func (s *Server) CancelSession(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(_ context.Context, _ *workflows.Definition, ctrl *wizard.Controller) error {
		ctrl.Cancel()
		return nil
	})
}
