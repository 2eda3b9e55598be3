package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/fittrack/internal/models"
	"github.com/foxzi/fittrack/internal/repository"
)

// handleActivityLogs handles GET /api/activity-logs
func (s *Server) handleActivityLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.ActivityLogFilter{
		UserID:     q.Get("userId"),
		EntityType: q.Get("entityType"),
	}

	start, err := ParseDateParam(q.Get("startDate"), false)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid startDate: "+err.Error())
		return
	}
	end, err := ParseDateParam(q.Get("endDate"), true)
	if err != nil {
		sendError(w, http.StatusBadRequest, "invalid endDate: "+err.Error())
		return
	}
	filter.StartDate = start
	filter.EndDate = end

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sendError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sendError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	entries, err := s.deps.Activity.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list activity logs", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to list activity logs")
		return
	}

	sendJSON(w, http.StatusOK, entries)
}

// ParseDateParam parses an RFC 3339 timestamp or a YYYY-MM-DD date.
// A date-only end bound is moved to the start of the next day so the whole day is included.
func ParseDateParam(value string, end bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		if end {
			// End bounds are exclusive; an exact timestamp is meant inclusively
			t = t.Add(time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("expected RFC 3339 or YYYY-MM-DD")
	}
	if end {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

// handleListMonitored handles GET /api/monitored-users
func (s *Server) handleListMonitored(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Monitored.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list monitored users", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to list monitored users")
		return
	}

	sendJSON(w, http.StatusOK, users)
}

// handleDeleteMonitored handles DELETE /api/monitored-users/{id}
func (s *Server) handleDeleteMonitored(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.deps.Monitored.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			sendError(w, http.StatusNotFound, "Monitored user not found")
			return
		}
		s.logger.Error("failed to delete monitored user", "id", id, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to delete monitored user")
		return
	}

	s.logger.Info("monitored user cleared", "id", id, "admin_id", claimsFrom(r.Context()).UserID())
	w.WriteHeader(http.StatusNoContent)
}
