package mailer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func TestSendOTP(t *testing.T) {
	t.Run("posts payload to the otp endpoint", func(t *testing.T) {
		var got map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			_, _ = w.Write([]byte(`{"success": true}`))
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "", 5*time.Second, testLogger())
		if err := client.SendOTP(context.Background(), "sam@example.com", "123456", "Sam"); err != nil {
			t.Fatalf("SendOTP failed: %v", err)
		}

		if got["email"] != "sam@example.com" || got["otp"] != "123456" || got["firstName"] != "Sam" {
			t.Errorf("unexpected payload: %v", got)
		}
	})

	t.Run("rejected response is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": false, "message": "quota exceeded"}`))
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "", 5*time.Second, testLogger())
		if err := client.SendOTP(context.Background(), "sam@example.com", "123456", "Sam"); err == nil {
			t.Fatal("expected error when the mail service rejects the request")
		}
	})

	t.Run("non-2xx status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewHTTPClient(server.URL, "", 5*time.Second, testLogger())
		if err := client.SendOTP(context.Background(), "sam@example.com", "123456", "Sam"); err == nil {
			t.Fatal("expected error for 502 response")
		}
	})
}

func TestSendWelcome(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	client := NewHTTPClient("", server.URL, 5*time.Second, testLogger())
	if err := client.SendWelcome(context.Background(), "sam@example.com", "Sam"); err != nil {
		t.Fatalf("SendWelcome failed: %v", err)
	}

	if got["email"] != "sam@example.com" || got["firstName"] != "Sam" {
		t.Errorf("unexpected payload: %v", got)
	}
	if _, ok := got["otp"]; ok {
		t.Error("welcome payload should not carry an otp field")
	}
}
