package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/foxzi/fittrack/internal/auth"
	"github.com/foxzi/fittrack/internal/config"
	"github.com/foxzi/fittrack/internal/db"
	"github.com/foxzi/fittrack/internal/models"
	"github.com/foxzi/fittrack/internal/ratelimit"
	"github.com/foxzi/fittrack/internal/repository"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	server    *Server
	clock     *clockwork.FakeClock
	users     *repository.UserRepository
	activity  *repository.ActivityRepository
	monitored *repository.MonitoredRepository
	tokens    *auth.Tokens
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	d, err := db.New(db.MemoryPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	clock := clockwork.NewFakeClockAt(testNow)
	env := &testEnv{
		clock:     clock,
		users:     repository.NewUserRepository(d.DB),
		activity:  repository.NewActivityRepository(d.DB),
		monitored: repository.NewMonitoredRepository(d.DB),
		tokens:    auth.NewTokens("test-secret-0123456789", time.Hour, clock),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.server = NewServer(Deps{
		Users:     env.users,
		Trainings: repository.NewTrainingRepository(d.DB),
		Stats:     repository.NewStatsRepository(d.DB),
		Activity:  env.activity,
		Monitored: env.monitored,
		Tokens:    env.tokens,
		Clock:     clock,

		LoginLimiter: ratelimit.NewLimiter(ratelimit.Config{MaxFailures: 3, Window: 15 * time.Minute}, clock),
	}, &config.ServerConfig{ListenAddr: ":0"}, logger)

	return env
}

// createUser stores an account directly and returns a bearer token for it
func (e *testEnv) createUser(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()

	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", Role: role}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	token, _, err := e.tokens.Issue(u)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func sampleTraining(date string) TrainingRequest {
	return TrainingRequest{
		Date:  date,
		Notes: "leg day",
		Exercises: []models.Exercise{
			{Name: "Squat", MuscleGroup: "legs", Weight: 100, Sets: 5, Reps: 5},
			{Name: "Lunge", MuscleGroup: "legs", Weight: 20, Sets: 3, Reps: 10},
		},
	}
}

func TestHealth(t *testing.T) {
	env := setupTestServer(t)

	rec := env.do(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if resp := decode[HealthResponse](t, rec); resp.Status != "ok" {
		t.Errorf("status = %q, want ok", resp.Status)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestServer(t)

	reg := RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "correct-horse"}
	rec := env.do(t, http.MethodPost, "/api/auth/register", "", reg)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[tokenResponse](t, rec)
	if created.Token == "" || created.User == nil || created.User.Role != models.RoleUser {
		t.Fatalf("unexpected register response: %+v", created)
	}

	rec = env.do(t, http.MethodPost, "/api/auth/register", "", reg)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", rec.Code, http.StatusConflict)
	}

	tests := []struct {
		name     string
		login    LoginRequest
		wantCode int
	}{
		{"by username", LoginRequest{Username: "alice", Password: "correct-horse"}, http.StatusOK},
		{"by email", LoginRequest{Username: "alice@example.com", Password: "correct-horse"}, http.StatusOK},
		{"by email any case", LoginRequest{Username: "Alice@Example.com", Password: "correct-horse"}, http.StatusOK},
		{"wrong password", LoginRequest{Username: "alice", Password: "wrong-horse"}, http.StatusUnauthorized},
		{"unknown user", LoginRequest{Username: "bob", Password: "correct-horse"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/auth/login", "", tt.login)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			resp := decode[tokenResponse](t, rec)
			me := env.do(t, http.MethodGet, "/api/users/me", resp.Token, nil)
			if me.Code != http.StatusOK {
				t.Fatalf("me status = %d", me.Code)
			}
			if u := decode[models.User](t, me); u.Username != "alice" {
				t.Errorf("username = %q, want alice", u.Username)
			}
		})
	}
}

func TestLoginThrottling(t *testing.T) {
	env := setupTestServer(t)

	reg := RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "correct-horse"}
	if rec := env.do(t, http.MethodPost, "/api/auth/register", "", reg); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	wrong := LoginRequest{Username: "alice", Password: "wrong-horse"}
	for i := 0; i < 3; i++ {
		if rec := env.do(t, http.MethodPost, "/api/auth/login", "", wrong); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want %d", i+1, rec.Code, http.StatusUnauthorized)
		}
	}

	right := LoginRequest{Username: "Alice", Password: "correct-horse"}
	rec := env.do(t, http.MethodPost, "/api/auth/login", "", right)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("throttled status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "900" {
		t.Errorf("Retry-After = %q, want 900", got)
	}

	env.clock.Advance(15 * time.Minute)
	right.Username = "alice"
	if rec := env.do(t, http.MethodPost, "/api/auth/login", "", right); rec.Code != http.StatusOK {
		t.Errorf("status after window = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setupTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing username", RegisterRequest{Email: "a@example.com", Password: "password1"}},
		{"missing email", RegisterRequest{Username: "a", Password: "password1"}},
		{"short password", RegisterRequest{Username: "a", Email: "a@example.com", Password: "short"}},
		{"invalid email", RegisterRequest{Username: "a", Email: "not-an-address", Password: "password1"}},
		{"display name email", RegisterRequest{Username: "a", Email: "A <a@example.com>", Password: "password1"}},
		{"unknown field", map[string]string{"username": "a", "role": "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := env.do(t, http.MethodPost, "/api/auth/register", "", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestAuthorization(t *testing.T) {
	env := setupTestServer(t)
	_, userToken := env.createUser(t, "alice", models.RoleUser)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	tests := []struct {
		name     string
		path     string
		token    string
		wantCode int
	}{
		{"no token", "/api/trainings", "", http.StatusUnauthorized},
		{"garbage token", "/api/trainings", "not-a-jwt", http.StatusUnauthorized},
		{"user on own data", "/api/trainings", userToken, http.StatusOK},
		{"user on admin route", "/api/activity-logs", userToken, http.StatusForbidden},
		{"user on monitored list", "/api/monitored-users", userToken, http.StatusForbidden},
		{"admin on admin route", "/api/activity-logs", adminToken, http.StatusOK},
		{"admin on monitored list", "/api/monitored-users", adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, tt.token, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestExpiredToken(t *testing.T) {
	env := setupTestServer(t)
	_, token := env.createUser(t, "alice", models.RoleUser)

	env.clock.Advance(2 * time.Hour)

	if rec := env.do(t, http.MethodGet, "/api/users/me", token, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestTrainingLifecycle(t *testing.T) {
	env := setupTestServer(t)
	alice, token := env.createUser(t, "alice", models.RoleUser)
	_, otherToken := env.createUser(t, "bob", models.RoleUser)

	rec := env.do(t, http.MethodPost, "/api/trainings", token, sampleTraining("2026-03-10"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[models.Training](t, rec)
	if created.ID == "" || len(created.Exercises) != 2 {
		t.Fatalf("unexpected training: %+v", created)
	}
	path := "/api/trainings/" + created.ID

	if rec := env.do(t, http.MethodGet, path, otherToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("other user get status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	update := sampleTraining("2026-03-11")
	update.Exercises = update.Exercises[:1]
	rec = env.do(t, http.MethodPut, path, token, update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decode[models.Training](t, rec); got.Date != "2026-03-11" || len(got.Exercises) != 1 {
		t.Errorf("unexpected updated training: %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/trainings", token, nil)
	if list := decode[[]models.Training](t, rec); len(list) != 1 {
		t.Errorf("expected 1 training, got %d", len(list))
	}

	if rec := env.do(t, http.MethodDelete, path, otherToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("other user delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := env.do(t, http.MethodDelete, path, token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := env.do(t, http.MethodDelete, path, token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := env.do(t, http.MethodPut, path, token, update); rec.Code != http.StatusNotFound {
		t.Errorf("update after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	entries, err := env.activity.List(context.Background(), models.ActivityLogFilter{UserID: alice.ID, EntityType: "training"})
	if err != nil {
		t.Fatalf("failed to list activity: %v", err)
	}
	counts := map[models.Action]int{}
	for _, e := range entries {
		counts[e.Action]++
		if !e.Timestamp.Equal(testNow) {
			t.Errorf("entry timestamp = %v, want %v", e.Timestamp, testNow)
		}
	}
	want := map[models.Action]int{models.ActionCreate: 1, models.ActionUpdate: 1, models.ActionRead: 1, models.ActionDelete: 1}
	for action, n := range want {
		if counts[action] != n {
			t.Errorf("%s entries = %d, want %d (all: %v)", action, counts[action], n, counts)
		}
	}
}

func TestCreateTrainingWithClientID(t *testing.T) {
	env := setupTestServer(t)
	_, token := env.createUser(t, "alice", models.RoleUser)
	_, otherToken := env.createUser(t, "bob", models.RoleUser)

	req := sampleTraining("2026-03-14")
	req.ID = "6f1c2d3e-4b5a-4c6d-8e7f-9a0b1c2d3e4f"

	rec := env.do(t, http.MethodPost, "/api/trainings", token, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decode[models.Training](t, rec); got.ID != req.ID {
		t.Errorf("ID = %q, want %q", got.ID, req.ID)
	}

	// A replayed create is answered with the stored training
	rec = env.do(t, http.MethodPost, "/api/trainings", token, req)
	if rec.Code != http.StatusOK {
		t.Errorf("replayed create status = %d, want %d", rec.Code, http.StatusOK)
	}

	if rec := env.do(t, http.MethodPost, "/api/trainings", otherToken, req); rec.Code != http.StatusConflict {
		t.Errorf("foreign create status = %d, want %d", rec.Code, http.StatusConflict)
	}

	req.ID = "not-a-uuid"
	if rec := env.do(t, http.MethodPost, "/api/trainings", token, req); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateTrainingValidation(t *testing.T) {
	env := setupTestServer(t)
	_, token := env.createUser(t, "alice", models.RoleUser)

	bad := sampleTraining("14/03/2026")
	if rec := env.do(t, http.MethodPost, "/api/trainings", token, bad); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	empty := sampleTraining("2026-03-14")
	empty.Exercises = nil
	if rec := env.do(t, http.MethodPost, "/api/trainings", token, empty); rec.Code != http.StatusBadRequest {
		t.Errorf("no exercises status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	entries, _ := env.activity.List(context.Background(), models.ActivityLogFilter{})
	if len(entries) != 0 {
		t.Errorf("rejected requests must not be recorded, got %d entries", len(entries))
	}
}

func TestMetricsAndStats(t *testing.T) {
	env := setupTestServer(t)
	_, token := env.createUser(t, "alice", models.RoleUser)

	rec := env.do(t, http.MethodGet, "/api/users/me/metrics", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get metrics status = %d", rec.Code)
	}
	if m := decode[models.UserMetrics](t, rec); m.WeightKG != 0 {
		t.Errorf("unset weight = %v, want 0", m.WeightKG)
	}

	rec = env.do(t, http.MethodPut, "/api/users/me/metrics", token, MetricsRequest{HeightCM: 180, WeightKG: 82.5})
	if rec.Code != http.StatusOK {
		t.Fatalf("set metrics status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPut, "/api/users/me/metrics", token, MetricsRequest{WeightKG: -1}); rec.Code != http.StatusBadRequest {
		t.Errorf("negative weight status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	rec = env.do(t, http.MethodGet, "/api/users/me/metrics", token, nil)
	if m := decode[models.UserMetrics](t, rec); m.WeightKG != 82.5 || m.HeightCM != 180 {
		t.Errorf("unexpected metrics: %+v", m)
	}

	env.do(t, http.MethodPost, "/api/trainings", token, sampleTraining("2026-03-10"))

	rec = env.do(t, http.MethodGet, "/api/stats/total-weight", token, nil)
	sessions := decode[[]models.SessionWeight](t, rec)
	if len(sessions) != 1 || sessions[0].TotalWeight != 100*5*5+20*3*10 {
		t.Errorf("unexpected total weight: %+v", sessions)
	}

	rec = env.do(t, http.MethodGet, "/api/stats/muscle-groups", token, nil)
	shares := decode[[]models.MuscleGroupShare](t, rec)
	if len(shares) != 1 || shares[0].MuscleGroup != "legs" || shares[0].Count != 2 {
		t.Errorf("unexpected muscle groups: %+v", shares)
	}

	if rec := env.do(t, http.MethodGet, "/api/stats/progress", token, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("progress without exercise status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	rec = env.do(t, http.MethodGet, "/api/stats/progress?exercise=squat", token, nil)
	points := decode[[]models.ProgressPoint](t, rec)
	if len(points) != 1 || points[0].MaxWeight != 100 {
		t.Errorf("unexpected progress: %+v", points)
	}
}

func TestActivityLogsFilters(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice, _ := env.createUser(t, "alice", models.RoleUser)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	stamps := []time.Time{
		time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	}
	for i, ts := range stamps {
		entry := &models.ActivityLogEntry{
			UserID:     alice.ID,
			Action:     models.ActionRead,
			EntityType: "training",
			EntityID:   fmt.Sprintf("t%d", i),
			Timestamp:  ts,
		}
		if err := env.activity.Add(ctx, entry); err != nil {
			t.Fatalf("failed to add entry: %v", err)
		}
	}
	if err := env.activity.Add(ctx, &models.ActivityLogEntry{
		UserID: "someone", Action: models.ActionCreate, EntityType: "user_metrics", Timestamp: stamps[0],
	}); err != nil {
		t.Fatalf("failed to add entry: %v", err)
	}

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantCount int
	}{
		{"all", "", http.StatusOK, 4},
		{"by user", "?userId=" + alice.ID, http.StatusOK, 3},
		{"by entity type", "?entityType=user_metrics", http.StatusOK, 1},
		{"date-only end includes the day", "?userId=" + alice.ID + "&startDate=2026-03-02&endDate=2026-03-02", http.StatusOK, 1},
		{"rfc3339 bounds", "?startDate=2026-03-02T00:00:00Z&endDate=2026-03-03T00:00:00Z", http.StatusOK, 2},
		{"limit", "?limit=2", http.StatusOK, 2},
		{"offset", "?limit=2&offset=3", http.StatusOK, 1},
		{"bad start", "?startDate=yesterday", http.StatusBadRequest, 0},
		{"bad end", "?endDate=2026-13-01", http.StatusBadRequest, 0},
		{"bad limit", "?limit=-1", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/activity-logs"+tt.query, adminToken, nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if got := decode[[]models.ActivityLogEntry](t, rec); len(got) != tt.wantCount {
				t.Errorf("got %d entries, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestAdminAllowedIPs(t *testing.T) {
	env := setupTestServer(t)
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(Deps{
		Users:     env.users,
		Activity:  env.activity,
		Monitored: env.monitored,
		Tokens:    env.tokens,
		Clock:     env.clock,
	}, &config.ServerConfig{AdminAllowedIPs: []string{"10.0.0.0/8"}}, logger)

	tests := []struct {
		name       string
		realIP     string
		wantStatus int
	}{
		{"outside allow list", "", http.StatusForbidden},
		{"inside allow list", "10.1.2.3", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/monitored-users", nil)
			req.Header.Set("Authorization", "Bearer "+adminToken)
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestMonitoredUsers(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	_, adminToken := env.createUser(t, "root", models.RoleAdmin)

	m := &models.MonitoredUser{UserID: "u-1", Username: "alice", Reason: "High activity: 11 actions in 1 min"}
	if _, err := env.monitored.Insert(ctx, m); err != nil {
		t.Fatalf("failed to insert monitored user: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/monitored-users", adminToken, nil)
	list := decode[[]models.MonitoredUser](t, rec)
	if len(list) != 1 || list[0].Reason != m.Reason {
		t.Fatalf("unexpected monitored list: %+v", list)
	}

	if rec := env.do(t, http.MethodDelete, "/api/monitored-users/"+m.ID, adminToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec := env.do(t, http.MethodDelete, "/api/monitored-users/"+m.ID, adminToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestParseDateParam(t *testing.T) {
	tests := []struct {
		value   string
		end     bool
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{value: "", wantNil: true},
		{value: "2026-03-02", want: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{value: "2026-03-02", end: true, want: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{value: "2026-03-02T10:00:00Z", want: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
		{value: "2026-03-02T10:00:00Z", end: true, want: time.Date(2026, 3, 2, 10, 0, 0, 1, time.UTC)},
		{value: "02.03.2026", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/end=%v", tt.value, tt.end), func(t *testing.T) {
			got, err := ParseDateParam(tt.value, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if got == nil || !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
