package api

import (
	"net/http"
	"strings"

	"github.com/foxzi/fittrack/internal/models"
)

// MetricsRequest is the request body for PUT /api/users/me/metrics
type MetricsRequest struct {
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
}

// handleGetMetrics handles GET /api/users/me/metrics
func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()

	m, err := s.deps.Users.GetMetrics(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to get user metrics", "user_id", userID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to get metrics")
		return
	}
	if m == nil {
		m = &models.UserMetrics{UserID: userID}
	}

	s.record(r, models.ActionRead, "user_metrics", userID, nil)
	sendJSON(w, http.StatusOK, m)
}

// handleSetMetrics handles PUT /api/users/me/metrics
func (s *Server) handleSetMetrics(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()

	var req MetricsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HeightCM < 0 || req.WeightKG < 0 {
		sendError(w, http.StatusBadRequest, "metrics must not be negative")
		return
	}

	m := &models.UserMetrics{UserID: userID, HeightCM: req.HeightCM, WeightKG: req.WeightKG}
	if err := s.deps.Users.SetMetrics(r.Context(), m); err != nil {
		s.logger.Error("failed to set user metrics", "user_id", userID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to save metrics")
		return
	}

	s.record(r, models.ActionUpdate, "user_metrics", userID, req)
	sendJSON(w, http.StatusOK, m)
}

// handleMuscleGroups handles GET /api/stats/muscle-groups
func (s *Server) handleMuscleGroups(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()

	shares, err := s.deps.Stats.MuscleGroups(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to compute muscle groups", "user_id", userID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	s.record(r, models.ActionRead, "stats", "muscle-groups", nil)
	sendJSON(w, http.StatusOK, shares)
}

// handleTotalWeight handles GET /api/stats/total-weight
func (s *Server) handleTotalWeight(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()

	sessions, err := s.deps.Stats.TotalWeight(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to compute total weight", "user_id", userID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	s.record(r, models.ActionRead, "stats", "total-weight", nil)
	sendJSON(w, http.StatusOK, sessions)
}

// handleProgress handles GET /api/stats/progress?exercise=
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()

	exercise := strings.TrimSpace(r.URL.Query().Get("exercise"))
	if exercise == "" {
		sendError(w, http.StatusBadRequest, "exercise is required")
		return
	}

	points, err := s.deps.Stats.Progress(r.Context(), userID, exercise)
	if err != nil {
		s.logger.Error("failed to compute progress", "user_id", userID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to compute statistics")
		return
	}

	s.record(r, models.ActionRead, "stats", "progress", map[string]string{"exercise": exercise})
	sendJSON(w, http.StatusOK, points)
}
