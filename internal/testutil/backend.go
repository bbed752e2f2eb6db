// Package testutil provides an in-memory fake of the Baikal backend for
// package tests: the full REST contract behind a chi router, with request
// recording and per-route failure injection.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RecordedRequest captures one request as the backend saw it.
type RecordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

// Backend is a scriptable fake of the platform API. Fixtures are raw JSON
// objects so the fake stays decoupled from the client's typed model.
type Backend struct {
	Server *httptest.Server

	// Accepted credentials and the token issued for them.
	Email       string
	Password    string
	IssuedToken string

	UserJSON string

	Docs        []json.RawMessage
	Automations map[string]json.RawMessage
	AutoOrder   []string
	Runs        map[string][]json.RawMessage

	// Reply produces the assistant answer; defaults to an echo.
	Reply func(message string, history []map[string]string) (string, error)

	// OnTriggerRun runs when a run is triggered; defaults to prepending a
	// queued run so the "eventual visibility" flow is exercisable.
	OnTriggerRun func(autoID string)

	// ForceStatus maps "METHOD /path" to a status returned unconditionally
	// for that route, for failure injection.
	ForceStatus map[string]int

	Requests []RecordedRequest
}

// NewBackend starts a fake backend with sensible defaults and registers
// its shutdown with t.Cleanup.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		Email:       "admin@baikal.ai",
		Password:    "admin1234",
		IssuedToken: "test-token",
		UserJSON:    `{"name":"Admin","email":"admin@baikal.ai"}`,
		Automations: make(map[string]json.RawMessage),
		Runs:        make(map[string][]json.RawMessage),
		ForceStatus: make(map[string]int),
	}
	b.OnTriggerRun = func(autoID string) {
		b.AddRun(autoID, fmt.Sprintf(
			`{"id":%q,"automation_id":%q,"status":"queued","started_at":null,"finished_at":null,"log":null,"result_payload":null}`,
			uuid.New().String(), autoID))
	}

	b.Server = httptest.NewServer(b.router())
	t.Cleanup(b.Server.Close)
	return b
}

// AddAutomation registers an automation fixture under id.
func (b *Backend) AddAutomation(id, rawJSON string) {
	if _, exists := b.Automations[id]; !exists {
		b.AutoOrder = append(b.AutoOrder, id)
	}
	b.Automations[id] = json.RawMessage(rawJSON)
}

// AddRun prepends a run fixture for an automation (newest first, matching
// the backend's ordering).
func (b *Backend) AddRun(autoID, rawJSON string) {
	b.Runs[autoID] = append([]json.RawMessage{json.RawMessage(rawJSON)}, b.Runs[autoID]...)
}

func (b *Backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)
	r.Use(b.forced)

	r.Post("/auth/login", b.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(b.requireBearer)

		r.Get("/auth/me", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, json.RawMessage(b.UserJSON))
		})

		r.Get("/docs/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, rawList(b.Docs))
		})
		r.Post("/docs/generate", b.handleGenerate)
		r.Delete("/docs/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			for i, d := range b.Docs {
				if jsonField(d, "id") == id {
					b.Docs = append(b.Docs[:i], b.Docs[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			writeDetail(w, http.StatusNotFound, "Document not found")
		})

		r.Get("/automations/", func(w http.ResponseWriter, _ *http.Request) {
			list := make([]json.RawMessage, 0, len(b.AutoOrder))
			for _, id := range b.AutoOrder {
				list = append(list, b.Automations[id])
			}
			writeJSON(w, http.StatusOK, list)
		})
		r.Post("/automations/", b.handleCreateAutomation)
		r.Get("/automations/{id}", func(w http.ResponseWriter, r *http.Request) {
			def, ok := b.Automations[chi.URLParam(r, "id")]
			if !ok {
				writeDetail(w, http.StatusNotFound, "Automation not found")
				return
			}
			writeJSON(w, http.StatusOK, def)
		})
		r.Delete("/automations/{id}", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if _, ok := b.Automations[id]; !ok {
				writeDetail(w, http.StatusNotFound, "Automation not found")
				return
			}
			delete(b.Automations, id)
			for i, aid := range b.AutoOrder {
				if aid == id {
					b.AutoOrder = append(b.AutoOrder[:i], b.AutoOrder[i+1:]...)
					break
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/automations/{id}/run", func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if _, ok := b.Automations[id]; !ok {
				writeDetail(w, http.StatusNotFound, "Automation not found")
				return
			}
			if b.OnTriggerRun != nil {
				b.OnTriggerRun(id)
			}
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		})
		r.Get("/automations/{id}/runs", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, rawList(b.Runs[chi.URLParam(r, "id")]))
		})

		r.Post("/ai/chat", b.handleChat)
	})

	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		b.Requests = append(b.Requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) forced(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		if status, ok := b.ForceStatus[key]; ok {
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+b.IssuedToken {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	if creds.Email != b.Email || creds.Password != b.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": b.IssuedToken})
}

func (b *Backend) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocType       string `json:"doc_type"`
		Title         string `json:"title"`
		ContentPrompt string `json:"content_prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	doc := map[string]any{
		"id":             uuid.New().String(),
		"title":          req.Title,
		"doc_type":       req.DocType,
		"content_prompt": req.ContentPrompt,
		"output_content": "Generated: " + req.ContentPrompt,
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}
	raw, _ := json.Marshal(doc)
	b.Docs = append([]json.RawMessage{raw}, b.Docs...)
	writeJSON(w, http.StatusCreated, doc)
}

func (b *Backend) handleCreateAutomation(w http.ResponseWriter, r *http.Request) {
	var def map[string]any
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	id := uuid.New().String()
	def["id"] = id
	def["created_at"] = time.Now().UTC().Format(time.RFC3339)
	raw, _ := json.Marshal(def)
	b.AddAutomation(id, string(raw))
	writeJSON(w, http.StatusCreated, json.RawMessage(raw))
}

func (b *Backend) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string              `json:"message"`
		History []map[string]string `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	reply := "echo: " + req.Message
	if b.Reply != nil {
		var err error
		reply, err = b.Reply(req.Message, req.History)
		if err != nil {
			writeDetail(w, http.StatusBadGateway, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func rawList(list []json.RawMessage) []json.RawMessage {
	if list == nil {
		return []json.RawMessage{}
	}
	return list
}

func jsonField(raw json.RawMessage, key string) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
