package vertex

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/civic-issues/internal/core/domain"
	"github.com/kirillkom/civic-issues/internal/infrastructure/resilience"
)

func TestGenerateFromImageSendsInlineImage(t *testing.T) {
	var captured generateRequest
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"LATITUDE: 44.1\n"},{"text":"LONGITUDE: 26.1 "}]}}]}`))
	}))
	defer server.Close()

	client := New(Config{ProjectID: "proj", Location: "europe-west1", Model: "gemini-test", Endpoint: server.URL}, server.Client(), nil)
	text, err := client.GenerateFromImage(context.Background(), "read the watermark", []byte{0xff, 0xd8}, "image/jpeg")
	if err != nil {
		t.Fatalf("GenerateFromImage() error = %v", err)
	}
	if text != "LATITUDE: 44.1\nLONGITUDE: 26.1" {
		t.Fatalf("unexpected text: %q", text)
	}
	wantPath := "/v1/projects/proj/locations/europe-west1/publishers/google/models/gemini-test:generateContent"
	if path != wantPath {
		t.Fatalf("unexpected path: %s", path)
	}
	parts := captured.Contents[0].Parts
	if len(parts) != 2 || parts[0].Text != "read the watermark" || parts[1].InlineData == nil {
		t.Fatalf("unexpected parts: %+v", parts)
	}
	if parts[1].InlineData.MimeType != "image/jpeg" || parts[1].InlineData.Data != base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8}) {
		t.Fatalf("unexpected inline data: %+v", parts[1].InlineData)
	}
}

func TestGenerateFromImageNoCandidatesIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := New(Config{ProjectID: "p", Location: "l", Endpoint: server.URL}, server.Client(), nil)
	text, err := client.GenerateFromImage(context.Background(), "prompt", []byte("x"), "image/jpeg")
	if err != nil {
		t.Fatalf("GenerateFromImage() error = %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestGenerateFromImageRetriesUnavailable(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
	})
	client := New(Config{ProjectID: "p", Location: "l", Endpoint: server.URL}, server.Client(), exec)
	text, err := client.GenerateFromImage(context.Background(), "prompt", []byte("x"), "image/jpeg")
	if err != nil {
		t.Fatalf("GenerateFromImage() error = %v", err)
	}
	if text != "ok" || attempts != 2 {
		t.Fatalf("expected success on second attempt, text=%q attempts=%d", text, attempts)
	}
}

func TestGenerateFromImageErrorKinds(t *testing.T) {
	cases := []struct {
		status int
		kind   error
	}{
		{http.StatusBadGateway, domain.ErrTemporary},
		{http.StatusForbidden, domain.ErrExtractionUnavailable},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model said no", tc.status)
		}))

		client := New(Config{ProjectID: "p", Location: "l", Endpoint: server.URL}, server.Client(), nil)
		_, err := client.GenerateFromImage(context.Background(), "prompt", []byte("x"), "image/jpeg")
		server.Close()

		if !domain.IsKind(err, tc.kind) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.kind, err)
		}
		if !strings.Contains(err.Error(), "model said no") {
			t.Fatalf("expected response body in error, got %v", err)
		}
	}
}
