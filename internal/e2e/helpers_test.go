package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chatd/internal/artifact"
	"chatd/internal/chat"
	"chatd/internal/engine"
	"chatd/internal/httpapi"
	"chatd/internal/manager"
	"chatd/internal/metrics"
)

const testModel = "gemma-e2e.Q8_0.gguf"

// seedModelFile plants a small GGUF-headed artifact into dir so the store
// has something to materialize.
func seedModelFile(t *testing.T, dir string) {
	t.Helper()
	payload := append([]byte("GGUF"), bytes.Repeat([]byte{0x2a}, 2048)...)
	if err := os.WriteFile(filepath.Join(dir, testModel), payload, 0o644); err != nil {
		t.Fatalf("seed model: %v", err)
	}
}

// newChatServer stands up the full stack over the mock engine: artifact
// store, lifecycle manager, chat service and HTTP mux behind a test server.
func newChatServer(t *testing.T, mock *engine.Mock) (*httptest.Server, *chat.Service) {
	return newChatServerWith(t, mock, true, nil)
}

// newChatServerWith seeds the artifact only when seed is set and lets tests
// tune admission and timeout behavior before the client is built.
func newChatServerWith(t *testing.T, mock *engine.Mock, seed bool, mutate func(*chat.Config)) (*httptest.Server, *chat.Service) {
	t.Helper()
	assets, data := t.TempDir(), t.TempDir()
	if seed {
		seedModelFile(t, assets)
	}
	store, err := artifact.NewStore(assets, data)
	if err != nil {
		t.Fatalf("artifact store: %v", err)
	}

	tracker := metrics.NewTracker(true)
	events := manager.NewMemoryPublisher(32)
	mgr := manager.New(manager.Config{
		Engine:      mock,
		Store:       store,
		Metrics:     tracker,
		Publisher:   events,
		Model:       testModel,
		LoadTimeout: 5 * time.Second,
	})

	cfg := chat.Config{
		Manager:       mgr,
		Metrics:       tracker,
		ReplyTimeout:  5 * time.Second,
		QueueWait:     2 * time.Second,
		MaxQueueDepth: 4,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	client := chat.New(cfg)

	svc := chat.NewService(chat.ServiceConfig{
		Client:    client,
		Manager:   mgr,
		Artifacts: store,
		Metrics:   tracker,
		Events:    events,
		Engine:    "mock",
	})

	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	t.Cleanup(mgr.Release)
	return srv, svc
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPost(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpDelete(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp
}
