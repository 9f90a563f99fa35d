package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/gymlog/internal/identity"
	"github.com/claude/gymlog/internal/models"
	"github.com/claude/gymlog/internal/storage"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := identity.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetProfile(r.Context(), uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := s.store.UpdateProfile(r.Context(), uid,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteUser(r.Context(), uid); err != nil {
		s.storeError(w, err)
		return
	}
	n := s.sessions.CloseOwner(uid)
	s.log.Info("account deleted", "user_id", uid, "sessions_closed", n)
	w.WriteHeader(http.StatusNoContent)
}

// --- Plans ---

type planExerciseRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Sets int    `json:"sets"`
}

type planRequest struct {
	Name      string                `json:"name"`
	Exercises []planExerciseRequest `json:"exercises"`
}

func (req planRequest) toPlan() (*models.Plan, error) {
	p := &models.Plan{Name: strings.TrimSpace(req.Name)}
	for i, ex := range req.Exercises {
		typ, err := models.ParseEquipmentType(ex.Type)
		if err != nil {
			return nil, fmt.Errorf("exercise %d: %w", i+1, err)
		}
		p.Exercises = append(p.Exercises, models.Exercise{
			Name: strings.TrimSpace(ex.Name),
			Type: typ,
			Sets: ex.Sets,
		})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	plans, err := s.store.ListPlans(r.Context(), uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := planIDParam(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetPlan(r.Context(), id, uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req planRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := req.toPlan()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.CreatePlan(r.Context(), uid, p); err != nil {
		s.storeError(w, err)
		return
	}
	s.log.Info("plan created", "user_id", uid, "plan_id", p.ID, "exercises", len(p.Exercises))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := planIDParam(w, r)
	if !ok {
		return
	}
	var req planRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := req.toPlan()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p.ID = id
	if err := s.store.UpdatePlan(r.Context(), uid, p); err != nil {
		s.storeError(w, err)
		return
	}
	s.gw.InvalidatePlan(uid, id)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := planIDParam(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePlan(r.Context(), id, uid); err != nil {
		s.storeError(w, err)
		return
	}
	s.gw.InvalidatePlan(uid, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopyPlan(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := planIDParam(w, r)
	if !ok {
		return
	}
	p, err := s.store.CopyPlan(r.Context(), id, uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// --- Exercises and logs ---

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	exercises, err := s.store.ListExercises(r.Context(), uid)
	if err != nil {
		s.storeError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name parameter required")
		return
	}
	start, end, err := parseTimeRange(r, 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	history, err := s.store.ExerciseHistory(r.Context(), uid, name, start, end)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleQueryWorkoutLogs(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r, 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = min(parsed, 500)
		}
	}
	logs, err := s.store.QueryWorkoutLogs(r.Context(), uid, start, end, limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

type insertLogResponse struct {
	ID       string `json:"id"`
	Inserted bool   `json:"inserted"`
}

// handleInsertWorkoutLog stores a log built outside a live session, such as
// an imported history entry. Re-sending the same log ID is a no-op.
func (s *Server) handleInsertWorkoutLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var log models.WorkoutLog
	if !decodeJSON(w, r, &log) {
		return
	}
	log.UserID = uid
	if err := log.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if log.PlanID != nil {
		if _, err := s.store.GetPlan(r.Context(), *log.PlanID, uid); err != nil {
			s.storeError(w, err)
			return
		}
	}
	inserted, err := s.store.InsertWorkoutLog(r.Context(), &log)
	if err != nil {
		s.storeError(w, err)
		return
	}
	status := http.StatusCreated
	if !inserted {
		status = http.StatusOK
	}
	writeJSON(w, status, insertLogResponse{ID: log.ID.String(), Inserted: inserted})
}

// --- Helpers ---

func mustUserID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id := identity.UserID(r.Context())
	if id == 0 {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return 0, false
	}
	return id, true
}

func planIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid plan id")
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error("storage error", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseTimeRange reads RFC 3339 start/end query parameters. A missing start
// means the last defaultDays days; a missing end means now.
func parseTimeRange(r *http.Request, defaultDays int) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	end = time.Now()
	if endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid end time: %w", err)
		}
	}
	if startStr == "" {
		return end.AddDate(0, 0, -defaultDays), end, nil
	}
	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		return start, end, fmt.Errorf("invalid start time: %w", err)
	}
	if !start.Before(end) {
		return start, end, fmt.Errorf("start must be before end")
	}
	return start, end, nil
}
