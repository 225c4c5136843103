package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatd/internal/manager"
	"chatd/pkg/types"
)

type mockService struct {
	status    types.StatusResponse
	state     string
	ready     bool
	chatErr   error
	warmupErr error
	warmed    bool
	released  bool
	convs     map[string]types.ConversationResponse
	deleted   []string
	lastReq   types.ChatRequest
}

func (m *mockService) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	m.lastReq = req
	if m.chatErr != nil {
		return types.ChatResponse{}, m.chatErr
	}
	return types.ChatResponse{
		ConversationID: "conv-1",
		Reply:          types.Message{ID: "r1", Role: types.RoleAssistant, Content: "You said: " + req.Content},
		ElapsedMS:      12,
		EstTokens:      5,
	}, nil
}

func (m *mockService) Warmup(ctx context.Context) error {
	m.warmed = true
	return m.warmupErr
}

func (m *mockService) Release() { m.released = true }

func (m *mockService) State() string {
	if m.state == "" {
		return "uninitialized"
	}
	return m.state
}

func (m *mockService) Ready() bool { return m.ready }

func (m *mockService) Status() types.StatusResponse { return m.status }

func (m *mockService) Conversation(id string) (types.ConversationResponse, bool) {
	c, ok := m.convs[id]
	return c, ok
}

func (m *mockService) DeleteConversation(id string) { m.deleted = append(m.deleted, id) }

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(w, req)
	return w
}

func TestChatHandler(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := postJSON(t, r, "/chat", `{"content":"hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var body types.ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Reply.Content != "You said: hi" {
		t.Fatalf("reply=%q", body.Reply.Content)
	}
	if body.ConversationID != "conv-1" {
		t.Fatalf("conversation=%q", body.ConversationID)
	}
}

func TestChatBadJSON(t *testing.T) {
	r := NewMux(&mockService{})
	w := postJSON(t, r, "/chat", "not-json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestChatUnsupportedMediaType(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(`{"content":"hi"}`))
	req.Header.Set("Content-Type", "text/plain")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestChatContentRequired(t *testing.T) {
	r := NewMux(&mockService{})
	w := postJSON(t, r, "/chat", `{"content":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank content, got %d", w.Code)
	}
}

func TestChatBodyTooLarge(t *testing.T) {
	r := NewMux(&mockService{})
	// Valid JSON, so the 400 comes from the size cap and not the parser.
	big := []byte(`{"content":"` + strings.Repeat("a", (1<<20)+10) + `"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too-large body, got %d", w.Code)
	}
}

func TestChatErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"busy", manager.ErrBusy(15 * time.Second), http.StatusTooManyRequests},
		{"timeout", manager.ErrTimeout(manager.PhaseGenerate, 30 * time.Second), http.StatusGatewayTimeout},
		{"capability", manager.ErrCapability("device reports 2048 MB RAM, below the 3072 MB minimum for on-device inference"), http.StatusServiceUnavailable},
		{"init", manager.ErrInit(errors.New("bad magic")), http.StatusServiceUnavailable},
		{"not ready", manager.ErrNotReady(), http.StatusServiceUnavailable},
		{"exhausted", manager.ErrExhausted(manager.PhaseGenerate, errors.New("oom killed")), http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewMux(&mockService{chatErr: tc.err})
			w := postJSON(t, r, "/chat", `{"content":"hi"}`)
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d", w.Code, tc.want)
			}
			var body types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("json: %v", err)
			}
			if body.Code != tc.want || body.Error == "" {
				t.Fatalf("payload=%+v", body)
			}
		})
	}
}

func TestChatCapabilityMessageVerbatim(t *testing.T) {
	err := manager.ErrCapability("device reports 2048 MB RAM, below the 3072 MB minimum for on-device inference")
	r := NewMux(&mockService{chatErr: err})
	w := postJSON(t, r, "/chat", `{"content":"hi"}`)
	var body types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(body.Error, "2048 MB") {
		t.Fatalf("measured memory missing from payload %q", body.Error)
	}
}

func TestChatInternalTextDoesNotLeak(t *testing.T) {
	r := NewMux(&mockService{chatErr: manager.ErrEngine(errors.New("ggml tensor fault at 0x7f"))})
	w := postJSON(t, r, "/chat", `{"content":"hi"}`)
	if strings.Contains(w.Body.String(), "ggml") {
		t.Fatalf("internal text leaked: %s", w.Body.String())
	}
}

func TestChatCanceledGetsNoBody(t *testing.T) {
	r := NewMux(&mockService{chatErr: context.Canceled})
	w := postJSON(t, r, "/chat", `{"content":"hi"}`)
	if w.Body.Len() != 0 {
		t.Fatalf("canceled request got a body: %s", w.Body.String())
	}
}

func TestWarmupHandler(t *testing.T) {
	svc := &mockService{state: "ready"}
	r := NewMux(svc)
	w := postJSON(t, r, "/warmup", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if !svc.warmed {
		t.Fatal("warmup never reached the service")
	}
	var body types.StateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.State != "ready" {
		t.Fatalf("state=%q", body.State)
	}
}

func TestWarmupFailureMaps503(t *testing.T) {
	svc := &mockService{warmupErr: manager.ErrInit(errors.New("bad magic"))}
	r := NewMux(svc)
	w := postJSON(t, r, "/warmup", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReleaseHandler(t *testing.T) {
	svc := &mockService{}
	r := NewMux(svc)
	w := postJSON(t, r, "/release", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !svc.released {
		t.Fatal("release never reached the service")
	}
}

func TestStatusHandler(t *testing.T) {
	svc := &mockService{status: types.StatusResponse{State: "ready", Engine: "mock"}}
	r := NewMux(svc)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.State != "ready" || body.Engine != "mock" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestConversationHandlers(t *testing.T) {
	svc := &mockService{convs: map[string]types.ConversationResponse{
		"c1": {ID: "c1", Messages: []types.Message{{Role: types.RoleUser, Content: "hi"}}},
	}}
	r := NewMux(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/c1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var body types.ConversationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.ID != "c1" || len(body.Messages) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/conversations/c1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if len(svc.deleted) != 1 || svc.deleted[0] != "c1" {
		t.Fatalf("deleted=%v", svc.deleted)
	}
}

func TestHealthz(t *testing.T) {
	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyz(t *testing.T) {
	r := NewMux(&mockService{ready: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestReadyzNotReady(t *testing.T) {
	r := NewMux(&mockService{ready: false, state: "initializing"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "initializing") {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestCORSPreflightWhenEnabled(t *testing.T) {
	SetCORSOptions(true, []string{"*"}, []string{"GET", "POST", "DELETE"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)

	r := NewMux(&mockService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin=%q", got)
	}
}
