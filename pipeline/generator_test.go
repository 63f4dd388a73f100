package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blogforge/blogforge-api/internal/config"
)

const promptPrefix = "Write a blog article based on the following transcription:\n\n"

func testGenConfig(endpoint string) config.GenerationConfig {
	return config.GenerationConfig{
		Endpoint:         endpoint,
		Model:            "sonar-pro",
		APIKey:           "gen-key",
		PromptCharBudget: 1500,
		MaxTokens:        1000,
		Timeout:          5 * time.Second,
	}
}

func chatOK(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(b)
}

func TestGenerateSuccess(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer gen-key" {
			t.Errorf("Authorization = %q", auth)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(chatOK("# Intro to X\nGenerated article.")))
	}))
	defer srv.Close()

	g := NewGenerator(testGenConfig(srv.URL))
	body, err := g.Generate(context.Background(), "hello world transcript")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if body != "# Intro to X\nGenerated article." {
		t.Fatalf("body = %q", body)
	}

	if got.Model != "sonar-pro" {
		t.Errorf("model = %q", got.Model)
	}
	if got.MaxTokens != 1000 {
		t.Errorf("max_tokens = %d", got.MaxTokens)
	}
	if len(got.Messages) != 1 || !strings.HasPrefix(got.Messages[0].Content, promptPrefix) {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestGenerateTruncatesTranscriptExactly(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(chatOK("body")))
	}))
	defer srv.Close()

	cfg := testGenConfig(srv.URL)
	cfg.PromptCharBudget = 10
	g := NewGenerator(cfg)

	if _, err := g.Generate(context.Background(), strings.Repeat("long transcript ", 20)); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	submitted := strings.TrimPrefix(got.Messages[0].Content, promptPrefix)
	if n := len([]rune(submitted)); n != 10 {
		t.Fatalf("submitted transcript length = %d, want exactly 10", n)
	}
}

func TestGenerateShortTranscriptNotTruncated(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(chatOK("body")))
	}))
	defer srv.Close()

	g := NewGenerator(testGenConfig(srv.URL))
	if _, err := g.Generate(context.Background(), "short"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if submitted := strings.TrimPrefix(got.Messages[0].Content, promptPrefix); submitted != "short" {
		t.Fatalf("submitted transcript = %q", submitted)
	}
}

func TestGenerateServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewGenerator(testGenConfig(srv.URL))
	_, err := g.Generate(context.Background(), "transcript")

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *StageError", err)
	}
	if se.Stage != StageGeneration || se.Kind != KindGenerationService {
		t.Fatalf("stage/kind = %s/%s", se.Stage, se.Kind)
	}
	want := "Server processing failed: GenerationServiceError - check server logs for details."
	if se.ClientMessage() != want {
		t.Fatalf("client message = %q, want %q", se.ClientMessage(), want)
	}
}

func TestGenerateParseErrorOnUnexpectedShape(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices":[]}`},
		{"empty content", chatOK("   ")},
		{"not json", `<html>gateway error</html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			g := NewGenerator(testGenConfig(srv.URL))
			_, err := g.Generate(context.Background(), "transcript")

			var se *StageError
			if !errors.As(err, &se) || se.Kind != KindGenerationParse {
				t.Fatalf("error = %v, want GenerationParseError", err)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abcd" {
		t.Errorf("Truncate = %q, want %q", got, "abcd")
	}
	if got := Truncate("abc", 4); got != "abc" {
		t.Errorf("Truncate short = %q, want unchanged", got)
	}
	if got := Truncate("abc", 0); got != "abc" {
		t.Errorf("Truncate zero budget = %q, want unchanged", got)
	}
	// Multi-byte runes count as single characters.
	if got := Truncate("héllo wörld", 5); got != "héllo" {
		t.Errorf("Truncate runes = %q, want %q", got, "héllo")
	}
}
