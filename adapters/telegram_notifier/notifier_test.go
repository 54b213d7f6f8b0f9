package telegram_notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jdelaire/goalbot/core"
)

func TestNotifier_SendTextSuccess(t *testing.T) {
	var method, receivedChatID, receivedText string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		method = r.Method
		receivedChatID = r.URL.Query().Get("chat_id")
		receivedText = r.URL.Query().Get("text")

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true,"result":{"message_id":77,"date":1700000000,"chat":{"id":12345}}}`))
	}))
	defer server.Close()

	n := New("test-token").WithBaseURL(server.URL)
	d, err := n.SendText(context.Background(), 12345, "hello & welcome")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method != http.MethodGet {
		t.Errorf("method = %s, want GET", method)
	}
	if receivedChatID != "12345" {
		t.Errorf("expected chat_id 12345, got %s", receivedChatID)
	}
	if receivedText != "hello & welcome" {
		t.Errorf("expected text 'hello & welcome', got %s", receivedText)
	}
	if d.MessageID != 77 || d.ChatID != 12345 || d.SentAt.Unix() != 1700000000 {
		t.Errorf("delivery = %+v", d)
	}
}

func TestNotifier_SendTextAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	n := New("test-token").WithBaseURL(server.URL)
	_, err := n.SendText(context.Background(), 1, "hi")

	var terr *core.TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if terr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", terr.StatusCode)
	}
	if !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNotifier_SendTextMalformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"ok":false}`,
		`{"ok":true}`,
		`{"ok":true,"result":{"chat":{"id":1}}}`,
		`{"ok":true,"result":{"message_id":1}}`,
	}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		n := New("test-token").WithBaseURL(server.URL)
		_, err := n.SendText(context.Background(), 1, "hi")
		if !errors.Is(err, core.ErrMalformedResponse) {
			t.Errorf("body %s: error = %v, want ErrMalformedResponse", body, err)
		}
		server.Close()
	}
}

func TestNotifier_SendTextNetworkError(t *testing.T) {
	n := New("secret-token").WithBaseURL("http://127.0.0.1:1")
	_, err := n.SendText(context.Background(), 1, "hi")
	if err == nil {
		t.Fatal("expected error for network failure")
	}
	var terr *core.TransportError
	if !errors.As(err, &terr) {
		t.Errorf("error = %v, want *TransportError", err)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("error leaks token: %v", err)
	}
}

func TestNotifier_BotTokenInURL(t *testing.T) {
	var requestedPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":1}}}`))
	}))
	defer server.Close()

	n := New("my-secret-token").WithBaseURL(server.URL)
	n.SendText(context.Background(), 1, "hi")

	if requestedPath != "/botmy-secret-token/sendMessage" {
		t.Errorf("unexpected path: %s", requestedPath)
	}
}
