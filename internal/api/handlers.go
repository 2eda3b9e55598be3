package api

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foxzi/fittrack/internal/auth"
	"github.com/foxzi/fittrack/internal/email"
	"github.com/foxzi/fittrack/internal/metrics"
	"github.com/foxzi/fittrack/internal/models"
	"github.com/foxzi/fittrack/internal/ratelimit"
)

const maxBodyBytes = 1 << 20

// HealthResponse is the response for GET /api/health
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// ErrorResponse is the error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
	})
}

// record appends an activity log entry for the authenticated user.
// A failure is logged and never fails the request.
func (s *Server) record(r *http.Request, action models.Action, entityType, entityID string, details any) {
	claims := claimsFrom(r.Context())
	if claims == nil {
		return
	}

	entry := &models.ActivityLogEntry{
		UserID:     claims.UserID(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  s.deps.Clock.Now(),
	}
	if details != nil {
		data, err := json.Marshal(details)
		if err == nil {
			entry.Details = data
		}
	}

	if err := s.deps.Activity.Add(r.Context(), entry); err != nil {
		s.logger.Error("failed to record activity",
			"user_id", entry.UserID,
			"action", entry.Action,
			"entity_type", entityType,
			"error", err,
		)
		return
	}
	metrics.IncActivity(string(action))
}

// decodeJSON decodes a size-limited JSON request body
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// sendJSON sends a JSON response
func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, ErrorResponse{Error: message})
}

// tokenResponse is returned by register and login
type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

func (s *Server) issueToken(w http.ResponseWriter, status int, u *models.User) {
	token, expires, err := s.deps.Tokens.Issue(u)
	if err != nil {
		s.logger.Error("failed to issue token", "user_id", u.ID, "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}
	sendJSON(w, status, tokenResponse{Token: token, ExpiresAt: expires, User: u})
}

// RegisterRequest is the request body for POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister handles POST /api/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" {
		sendError(w, http.StatusBadRequest, "username is required")
		return
	}
	if req.Email == "" {
		sendError(w, http.StatusBadRequest, "email is required")
		return
	}
	normalized, err := email.Normalize(req.Email)
	if err != nil {
		sendError(w, http.StatusBadRequest, "email is invalid")
		return
	}
	req.Email = normalized
	if len(req.Password) < 8 {
		sendError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	ctx := r.Context()
	if existing, err := s.deps.Users.GetByUsername(ctx, req.Username); err != nil {
		s.logger.Error("failed to look up user", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to register user")
		return
	} else if existing != nil {
		sendError(w, http.StatusConflict, "username is already taken")
		return
	}
	if existing, err := s.deps.Users.GetByEmail(ctx, req.Email); err != nil {
		s.logger.Error("failed to look up user", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to register user")
		return
	} else if existing != nil {
		sendError(w, http.StatusConflict, "email is already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	u := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.deps.Users.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	s.logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	s.issueToken(w, http.StatusCreated, u)
}

// LoginRequest is the request body for POST /api/auth/login.
// Username may also be the e-mail address.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin handles POST /api/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	attempt := ratelimit.Request{IP: clientIP(r), Username: strings.ToLower(req.Username)}
	if s.deps.LoginLimiter != nil {
		if result := s.deps.LoginLimiter.Check(attempt); !result.Allowed {
			s.logger.Warn("login throttled", "denied_by", result.DeniedBy, "username", req.Username, "remote_addr", r.RemoteAddr)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			sendError(w, http.StatusTooManyRequests, "Too many failed login attempts")
			return
		}
	}

	ctx := r.Context()
	u, err := s.deps.Users.GetByUsername(ctx, req.Username)
	if err == nil && u == nil {
		u, err = s.deps.Users.GetByEmail(ctx, strings.ToLower(req.Username))
	}
	if err != nil {
		s.logger.Error("failed to look up user", "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
		s.logger.Warn("failed login attempt", "username", req.Username, "remote_addr", r.RemoteAddr)
		if s.deps.LoginLimiter != nil {
			s.deps.LoginLimiter.RecordFailure(attempt)
		}
		sendError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	if s.deps.LoginLimiter != nil {
		s.deps.LoginLimiter.Reset(attempt)
	}
	s.issueToken(w, http.StatusOK, u)
}

// handleMe handles GET /api/users/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	u, err := s.deps.Users.GetByID(r.Context(), claims.UserID())
	if err != nil {
		s.logger.Error("failed to get user", "user_id", claims.UserID(), "error", err)
		sendError(w, http.StatusInternalServerError, "Failed to get user")
		return
	}
	if u == nil {
		sendError(w, http.StatusNotFound, "User not found")
		return
	}
	s.record(r, models.ActionRead, "user", u.ID, nil)
	sendJSON(w, http.StatusOK, u)
}

// clientIP strips the port from RemoteAddr; RealIP may already have replaced it with a bare IP
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
