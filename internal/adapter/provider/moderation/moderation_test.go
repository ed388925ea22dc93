package moderation

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSpamChecker_IsSpam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response string
		want     bool
		wantErr  bool
	}{
		{name: "flagged", response: "true", want: true},
		{name: "clean", response: "false", want: false},
		{name: "garbage response", response: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/1.1/comment-check" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				if err := r.ParseForm(); err != nil {
					t.Fatalf("parse form: %v", err)
				}
				if r.PostForm.Get("comment_content") == "" {
					t.Error("missing comment_content")
				}
				w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			c := NewSpamCheckerWithURL(srv.URL, "https://agora.example", newTestLogger())
			got, err := c.IsSpam(context.Background(), "buy cheap meds online")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsSpam = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProfanityChecker_HasProfanity(t *testing.T) {
	t.Parallel()

	c := NewProfanityChecker(nil)

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "clean text", text: "We should fund public transit.", want: false},
		{name: "profane token", text: "this policy is SHIT, frankly", want: true},
		{name: "substring does not match", text: "Scunthorpe council meeting", want: false},
		{name: "punctuation-separated", text: "fuck. that.", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := c.HasProfanity(context.Background(), tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasProfanity(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestProfanityChecker_CustomBlocklist(t *testing.T) {
	t.Parallel()

	c := NewProfanityChecker([]string{"widget"})

	got, err := c.HasProfanity(context.Background(), "no widget talk allowed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got {
		t.Error("expected custom blocklist word to match")
	}
}
