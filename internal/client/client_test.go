package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foxzi/fittrack/internal/models"
)

func TestDo(t *testing.T) {
	var gotAuth, gotBody, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"t1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	c.SetToken("secret")

	resp, err := c.Do(context.Background(), http.MethodPost, "/api/trainings", []byte(`{"date":"2026-03-14"}`))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !resp.OK() || resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if string(resp.Body) != `{"id":"t1"}` {
		t.Errorf("body = %q", resp.Body)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody != `{"date":"2026-03-14"}` {
		t.Errorf("request body = %q", gotBody)
	}
}

func TestDoErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"date must be in YYYY-MM-DD format"}`))
		case "/down":
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	url := srv.URL

	c := New(url, time.Second)

	resp, err := c.Do(context.Background(), http.MethodGet, "/bad", nil)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	var se *StatusError
	if !errors.As(resp.Err(), &se) {
		t.Fatalf("expected StatusError, got %v", resp.Err())
	}
	if se.StatusCode != http.StatusBadRequest || se.Message != "date must be in YYYY-MM-DD format" || se.Temporary() {
		t.Errorf("unexpected status error: %+v", se)
	}

	resp, _ = c.Do(context.Background(), http.MethodGet, "/down", nil)
	if !errors.As(resp.Err(), &se) || !se.Temporary() {
		t.Errorf("503 should be a temporary status error, got %v", resp.Err())
	}

	srv.Close()
	_, err = c.Do(context.Background(), http.MethodGet, "/bad", nil)
	if !IsNetworkError(err) {
		t.Errorf("expected network error after server shutdown, got %v", err)
	}
}

func TestLoginAndTypedCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["password"] != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid username or password"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "jwt-token",
			"user":  models.User{ID: "u1", Username: req["username"]},
		})
	})
	mux.HandleFunc("GET /api/trainings", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]models.Training{{ID: "t1", Date: "2026-03-14"}})
	})
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, time.Second)
	ctx := context.Background()

	if h, err := c.Health(ctx); err != nil || h.Status != "ok" {
		t.Fatalf("Health() = %+v, %v", h, err)
	}

	if _, err := c.ListTrainings(ctx); err == nil {
		t.Fatal("expected error without token")
	}

	if _, err := c.Login(ctx, "alice", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	resp, err := c.Login(ctx, "alice", "correct-horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.User.Username != "alice" || c.Token() != "jwt-token" {
		t.Errorf("unexpected login state: %+v token=%q", resp, c.Token())
	}

	trainings, err := c.ListTrainings(ctx)
	if err != nil {
		t.Fatalf("ListTrainings() error = %v", err)
	}
	if len(trainings) != 1 || trainings[0].ID != "t1" {
		t.Errorf("unexpected trainings: %+v", trainings)
	}
}
