package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/gymlog/internal/session"
	"github.com/claude/gymlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type startSessionRequest struct {
	PlanID int64 `json:"plan_id"`
}

type editEntryRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.PlanID <= 0 {
		writeError(w, http.StatusBadRequest, "plan_id is required")
		return
	}

	sess, err := session.Load(r.Context(), s.gw, req.PlanID, session.Options{
		Clock:   s.clock,
		Log:     s.log,
		Metrics: s.metrics,
		Owner:   uid,
	})
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.sessions.Add(sess)
	s.log.Info("session started", "session", sess.ID, "user_id", uid, "plan_id", req.PlanID)
	writeJSON(w, http.StatusCreated, session.NewView(sess.ID, sess.State()))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.NewView(sess.ID, sess.State()))
}

func (s *Server) handleToggleWorkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	st, err := sess.ToggleWorkout()
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.NewView(sess.ID, st))
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	st, err := sess.ToggleSet()
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.NewView(sess.ID, st))
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	exercise, err1 := strconv.Atoi(chi.URLParam(r, "exercise"))
	set, err2 := strconv.Atoi(chi.URLParam(r, "set"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "invalid exercise or set index")
		return
	}
	var req editEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := sess.Edit(exercise, set, session.Field(req.Field), req.Value)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.NewView(sess.ID, st))
}

// handleFinishSession persists the log. The session stays registered on
// failure so the client can retry.
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	log, err := sess.Finish(r.Context())
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.sessions.Remove(sess.ID)
	writeJSON(w, http.StatusCreated, log)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	s.sessions.Remove(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ownedSession looks up the session in the URL. Sessions of other users are
// reported as missing.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	sess, found := s.sessions.Get(id)
	if !found || sess.Owner != uid {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// sessionStatus maps runner errors onto HTTP status codes.
func sessionStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrLoadFailure):
		if errors.Is(err, storage.ErrNotFound) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, session.ErrNotStarted), errors.Is(err, session.ErrSetLocked):
		return http.StatusConflict
	case errors.Is(err, session.ErrAuthMissing):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrPersistFailure):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrInvalidField):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) sessionError(w http.ResponseWriter, err error) {
	status := sessionStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("session error", "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}
