package telegram_receiver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jdelaire/goalbot/adapters/telegram_receiver"
	"github.com/jdelaire/goalbot/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetchSuccess(t *testing.T) {
	var gotPath, gotOffset, gotTimeout string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotOffset = r.URL.Query().Get("offset")
		gotTimeout = r.URL.Query().Get("timeout")
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []map[string]any{
				{
					"update_id": 100,
					"message": map[string]any{
						"message_id": 1,
						"from":       map[string]any{"id": 42},
						"chat":       map[string]any{"id": 123, "type": "private"},
						"date":       time.Now().Unix(),
						"text":       "/goals",
					},
				},
				{"update_id": 101, "edited_message": map[string]any{"message_id": 2}},
			},
		})
	}))
	defer srv.Close()

	recv := telegram_receiver.New("test-token", testLogger()).WithBaseURL(srv.URL)
	events, err := recv.Fetch(context.Background(), 100, 30*time.Second)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotPath != "/bottest-token/getUpdates" {
		t.Errorf("path = %q", gotPath)
	}
	if gotOffset != "100" || gotTimeout != "30" {
		t.Errorf("offset = %q, timeout = %q, want 100 and 30", gotOffset, gotTimeout)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	want := core.InboundEvent{Cursor: 100, ChatID: 123, Text: "/goals"}
	if events[0] != want {
		t.Errorf("events[0] = %+v, want %+v", events[0], want)
	}
	if events[1].Cursor != 101 || events[1].ChatID != 0 {
		t.Errorf("events[1] = %+v, want cursor 101 with no chat", events[1])
	}
}

func TestFetchEmptyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer srv.Close()

	recv := telegram_receiver.New("tok", testLogger()).WithBaseURL(srv.URL)
	events, err := recv.Fetch(context.Background(), 0, time.Second)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"ok":false,"description":"Conflict: terminated by other getUpdates request"}`))
	}))
	defer srv.Close()

	recv := telegram_receiver.New("tok", testLogger()).WithBaseURL(srv.URL)
	_, err := recv.Fetch(context.Background(), 0, time.Second)

	var terr *core.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Fetch error = %v, want *TransportError", err)
	}
	if terr.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", terr.StatusCode)
	}
	if !strings.Contains(terr.Description, "Conflict") {
		t.Errorf("description = %q", terr.Description)
	}
}

func TestFetchNetworkErrorHidesToken(t *testing.T) {
	recv := telegram_receiver.New("super-secret", testLogger()).WithBaseURL("http://127.0.0.1:1")
	_, err := recv.Fetch(context.Background(), 0, time.Second)

	var terr *core.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("Fetch error = %v, want *TransportError", err)
	}
	if strings.Contains(err.Error(), "super-secret") {
		t.Errorf("error leaks token: %v", err)
	}
}

func TestFetchMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"ok false", `{"ok":false,"description":"nope"}`},
		{"result not array", `{"ok":true,"result":{}}`},
		{"missing update_id", `{"ok":true,"result":[{"message":{"chat":{"id":1},"text":"hi"}}]}`},
		{"missing chat id", `{"ok":true,"result":[{"update_id":5,"message":{"chat":{},"text":"hi"}}]}`},
		{"missing chat", `{"ok":true,"result":[{"update_id":5,"message":{"text":"hi"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			recv := telegram_receiver.New("tok", testLogger()).WithBaseURL(srv.URL)
			_, err := recv.Fetch(context.Background(), 0, time.Second)
			if !errors.Is(err, core.ErrMalformedResponse) {
				t.Errorf("Fetch error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestFetchContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	recv := telegram_receiver.New("tok", testLogger()).WithBaseURL(srv.URL)
	start := time.Now()
	if _, err := recv.Fetch(ctx, 0, 30*time.Second); err == nil {
		t.Fatal("expected error after cancellation")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Fetch did not return promptly after cancellation")
	}
}

func TestParseUpdatesMessageWithoutText(t *testing.T) {
	events, err := telegram_receiver.ParseUpdates([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"chat":{"id":9},"sticker":{}}}]}`))
	if err != nil {
		t.Fatalf("ParseUpdates: %v", err)
	}
	if len(events) != 1 || events[0].ChatID != 9 || events[0].Text != "" {
		t.Errorf("events = %+v", events)
	}
}
