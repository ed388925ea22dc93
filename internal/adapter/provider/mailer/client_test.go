package mailer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Send_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var got sendRequest
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got.To != "alice@example.com" {
			t.Errorf("To = %q", got.To)
		}
		if got.From != "no-reply@agora.example" {
			t.Errorf("From = %q", got.From)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "no-reply@agora.example", newTestLogger())
	err := c.Send(context.Background(), "alice@example.com", "New activity", "There are new statements to vote on.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Send_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "invalid recipient"}`))
	}))
	defer srv.Close()

	c := NewClientWithURL(srv.URL, "no-reply@agora.example", newTestLogger())
	err := c.Send(context.Background(), "not-an-address", "subject", "body")
	if err == nil {
		t.Fatal("expected error")
	}
}
