package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/foxzi/fittrack/internal/models"
	"github.com/foxzi/fittrack/internal/repository"
)

// TrainingRequest is the request body for creating and updating trainings.
// ID lets offline clients choose the identifier on create; it is ignored on update.
type TrainingRequest struct {
	ID        string            `json:"id,omitempty"`
	Date      string            `json:"date"`
	Notes     string            `json:"notes"`
	Exercises []models.Exercise `json:"exercises"`
}

func (req *TrainingRequest) toTraining(userID string) (*models.Training, error) {
	t := &models.Training{
		UserID:    userID,
		Date:      req.Date,
		Notes:     req.Notes,
		Exercises: req.Exercises,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// handleListTrainings handles GET /api/trainings
func (s *Server) handleListTrainings(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()

	trainings, err := s.deps.Trainings.ListByUser(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list trainings", "user_id", userID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to list trainings")
		return
	}

	s.record(r, models.ActionRead, "training", "", map[string]int{"count": len(trainings)})
	sendJSON(w, http.StatusOK, trainings)
}

// handleCreateTraining handles POST /api/trainings
func (s *Server) handleCreateTraining(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()

	var req TrainingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := req.toTraining(userID)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ID != "" {
		if _, err := uuid.Parse(req.ID); err != nil {
			sendError(w, http.StatusBadRequest, "id must be a UUID")
			return
		}
		t.ID = req.ID
	}

	if err := s.deps.Trainings.Create(r.Context(), t); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.handleCreateConflict(w, r, userID, t.ID)
			return
		}
		s.logger.Error("failed to create training", "user_id", userID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to create training")
		return
	}

	s.record(r, models.ActionCreate, "training", t.ID, map[string]any{"date": t.Date, "exercises": len(t.Exercises)})
	sendJSON(w, http.StatusCreated, t)
}

// handleCreateConflict answers a create whose ID already exists. A retry of
// the user's own create returns the stored training so replays stay idempotent.
func (s *Server) handleCreateConflict(w http.ResponseWriter, r *http.Request, userID, id string) {
	existing, err := s.deps.Trainings.GetByID(r.Context(), userID, id)
	if err != nil {
		s.logger.Error("failed to get training", "id", id, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to create training")
		return
	}
	if existing == nil {
		sendError(w, http.StatusConflict, "Training ID is already taken")
		return
	}
	sendJSON(w, http.StatusOK, existing)
}

// handleGetTraining handles GET /api/trainings/{id}
func (s *Server) handleGetTraining(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()
	id := chi.URLParam(r, "id")

	t, err := s.deps.Trainings.GetByID(r.Context(), userID, id)
	if err != nil {
		s.logger.Error("failed to get training", "id", id, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to get training")
		return
	}
	if t == nil {
		sendError(w, http.StatusNotFound, "Training not found")
		return
	}

	s.record(r, models.ActionRead, "training", t.ID, nil)
	sendJSON(w, http.StatusOK, t)
}

// handleUpdateTraining handles PUT /api/trainings/{id}
func (s *Server) handleUpdateTraining(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()
	id := chi.URLParam(r, "id")

	var req TrainingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	t, err := req.toTraining(userID)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = id

	if err := s.deps.Trainings.Update(r.Context(), t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			sendError(w, http.StatusNotFound, "Training not found")
			return
		}
		s.logger.Error("failed to update training", "id", id, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to update training")
		return
	}

	updated, err := s.deps.Trainings.GetByID(r.Context(), userID, id)
	if err != nil || updated == nil {
		s.logger.Error("failed to reload training", "id", id, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to update training")
		return
	}

	s.record(r, models.ActionUpdate, "training", id, map[string]any{"date": t.Date, "exercises": len(t.Exercises)})
	sendJSON(w, http.StatusOK, updated)
}

// handleDeleteTraining handles DELETE /api/trainings/{id}
func (s *Server) handleDeleteTraining(w http.ResponseWriter, r *http.Request) {
	userID := claimsFrom(r.Context()).UserID()
	id := chi.URLParam(r, "id")

	if err := s.deps.Trainings.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			sendError(w, http.StatusNotFound, "Training not found")
			return
		}
		s.logger.Error("failed to delete training", "id", id, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to delete training")
		return
	}

	s.record(r, models.ActionDelete, "training", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
