package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewEventLevels(t *testing.T) {
	text := "أريد الاستعلام عن دفع الرسوم"

	ev := NewEvent(LevelMetadata, "req-1", "route", text)
	if ev.Preview != "" {
		t.Fatalf("metadata level carried a preview: %q", ev.Preview)
	}
	if ev.RequestID != "req-1" || ev.Operation != "route" || ev.Version != "1" {
		t.Fatalf("event fields = %+v", ev)
	}

	ev = NewEvent(LevelFull, "req-2", "auto_reply", text)
	if ev.Preview != text {
		t.Fatalf("full level preview = %q, want original text", ev.Preview)
	}
}

func TestPreviewTruncatedAtRuneBoundary(t *testing.T) {
	long := strings.Repeat("استفسار ", 100)
	ev := NewEvent(LevelFull, "req-3", "route", long)

	if !strings.HasSuffix(ev.Preview, "...") {
		t.Fatalf("long preview not truncated: %q", ev.Preview)
	}
	runes := []rune(strings.TrimSuffix(ev.Preview, "..."))
	if len(runes) != previewLimit {
		t.Fatalf("preview length = %d runes, want %d", len(runes), previewLimit)
	}
}

func TestFileSinkWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "decisions.jsonl")

	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("file sink: %v", err)
	}

	for _, id := range []string{"req-1", "req-2"} {
		if err := sink.Deliver(context.Background(), NewEvent(LevelMetadata, id, "route", "")); err != nil {
			t.Fatalf("deliver %s: %v", id, err)
		}
	}
	if err := sink.Close(context.Background()); err != nil {
		t.Fatalf("close sink: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var decoded Event
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("unmarshal jsonl line: %v", err)
	}
	if decoded.RequestID != "req-1" {
		t.Fatalf("expected request_id req-1, got %s", decoded.RequestID)
	}
}

func TestWebhookSinkHandlesNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	t.Cleanup(srv.Close)

	sink, err := NewWebhookSink(srv.URL, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("webhook sink: %v", err)
	}
	err = sink.Deliver(context.Background(), NewEvent(LevelMetadata, "req-1", "route", ""))
	if err == nil {
		t.Fatalf("expected non-2xx to return error")
	}
	if !strings.Contains(err.Error(), "status") {
		t.Fatalf("error should mention status, got %v", err)
	}
}

func TestWebhookSinkRetriesThenSucceeds(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		fail := attempts == 1
		mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	sink, err := NewWebhookSink(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("webhook sink: %v", err)
	}
	if err := sink.Deliver(context.Background(), NewEvent(LevelMetadata, "req-1", "route", "")); err != nil {
		t.Fatalf("deliver after retry: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestEmitterDropsWhenQueueFull(t *testing.T) {
	wait := make(chan struct{})
	sink := &blockingSink{wait: wait}
	em := NewEmitter(EmitterConfig{QueueSize: 1, Workers: 1, ShutdownTimeout: time.Second}, []Sink{sink})

	ev := NewEvent(LevelMetadata, "req-1", "route", "")
	em.Emit(context.Background(), ev)
	em.Emit(context.Background(), ev)
	em.Emit(context.Background(), ev)

	if em.dropped.Load() == 0 {
		t.Fatalf("expected dropped events when queue is full")
	}

	close(wait)
	em.Close(context.Background())
}

func TestEmitterDeliversInBackground(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Event
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var ev Event
		if err := json.NewDecoder(r.Body).Decode(&ev); err == nil {
			mu.Lock()
			received = append(received, ev)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	sink, err := NewWebhookSink(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("webhook sink: %v", err)
	}
	em := NewEmitter(EmitterConfig{QueueSize: 8, Workers: 1, ShutdownTimeout: time.Second}, []Sink{sink})
	defer em.Close(context.Background())

	for i := 0; i < 5; i++ {
		em.Emit(context.Background(), NewEvent(LevelMetadata, "batch", "route", ""))
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		if len(received) >= 5 {
			mu.Unlock()
			break
		}
		mu.Unlock()
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for webhook events, got %d", len(received))
		}
		time.Sleep(20 * time.Millisecond)
	}

	if em.dropped.Load() != 0 {
		t.Fatalf("did not expect dropped events, got %d", em.dropped.Load())
	}
}

func TestEmitAfterCloseIsNoop(t *testing.T) {
	em := NewEmitter(EmitterConfig{QueueSize: 1, Workers: 1, ShutdownTimeout: time.Second}, nil)
	em.Close(context.Background())
	em.Emit(context.Background(), NewEvent(LevelMetadata, "late", "route", ""))
}

type blockingSink struct {
	wait chan struct{}
}

func (s *blockingSink) Name() string { return "blocking" }

func (s *blockingSink) Deliver(context.Context, *Event) error {
	<-s.wait
	return nil
}

func (s *blockingSink) Close(context.Context) error {
	select {
	case <-s.wait:
	default:
		close(s.wait)
	}
	return nil
}
