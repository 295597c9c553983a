package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forPelevin/hookscan/internal/types"
)

const testKey = "AIza-test-secret-key"

func TestComplete(t *testing.T) {
	t.Parallel()

	var (
		gotPath string
		gotKey  string
		got     map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":" {\"hooks\":[]} "}]}}]}`)
	}))
	defer srv.Close()

	a, err := New(context.Background(), Options{APIKey: testKey, Model: "gemini-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := a.Complete(context.Background(), types.CompletionRequest{
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: "eres un experto"},
			{Role: types.RoleUser, Content: "hola"},
		},
		Temperature:     0.5,
		MaxOutputTokens: 1000,
		JSONMode:        true,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"hooks":[]}` {
		t.Fatalf("unexpected content %q", out)
	}
	if !strings.HasSuffix(gotPath, "/models/gemini-test:generateContent") {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotKey != testKey {
		t.Fatalf("expected api key header")
	}
	gc, _ := got["generationConfig"].(map[string]any)
	if gc["responseMimeType"] != "application/json" {
		t.Fatalf("expected JSON mime type, got %v", gc)
	}
	if gc["maxOutputTokens"] != float64(1000) {
		t.Fatalf("unexpected maxOutputTokens: %v", gc["maxOutputTokens"])
	}
	if _, ok := got["systemInstruction"]; !ok {
		t.Fatalf("expected system instruction in request: %v", got)
	}
	contents, _ := got["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("expected only the user turn in contents, got %d", len(contents))
	}
}

func TestComplete_ErrorDoesNotLeakKey(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"API key `+testKey+` is invalid","status":"PERMISSION_DENIED"}}`)
	}))
	defer srv.Close()

	a, err := New(context.Background(), Options{APIKey: testKey, BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = a.Complete(context.Background(), types.CompletionRequest{
		Messages: []types.Message{{Role: types.RoleUser, Content: "hola"}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if strings.Contains(err.Error(), testKey) {
		t.Fatalf("api key leaked: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in error, got %q", err.Error())
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestComplete_NoUserContent(t *testing.T) {
	a, err := New(context.Background(), Options{APIKey: testKey, BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_, err = a.Complete(context.Background(), types.CompletionRequest{
		Messages: []types.Message{{Role: types.RoleSystem, Content: "solo sistema"}},
	})
	if err == nil || !strings.Contains(err.Error(), "no user content") {
		t.Fatalf("expected no user content error, got %v", err)
	}
}
