package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blogforge/blogforge-api/internal/config"
)

func newScratchAudio(t *testing.T, content string) *TempAudio {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "run")
	path := filepath.Join(dir, "audio.webm")
	mustWriteFile(t, path, content)
	return NewTempAudio(path, dir)
}

func TestTranscribeSuccess(t *testing.T) {
	var polls int32

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing api key on upload")
		}
		json.NewEncoder(w).Encode(map[string]string{"upload_url": srv.URL + "/stored/audio"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["audio_url"] == "" {
			t.Errorf("submit request missing audio_url")
		}
		json.NewEncoder(w).Encode(transcriptResponse{ID: "t1", Status: "queued"})
	})
	mux.HandleFunc("/transcript/t1", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 2 {
			json.NewEncoder(w).Encode(transcriptResponse{ID: "t1", Status: "processing"})
			return
		}
		json.NewEncoder(w).Encode(transcriptResponse{ID: "t1", Status: "completed", Text: "hello world"})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	audio := newScratchAudio(t, "audio-bytes")
	tr := NewTranscriberForTests(srv.URL, "test-key", 5*time.Millisecond)

	text, err := tr.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello world" {
		t.Fatalf("text = %q, want %q", text, "hello world")
	}

	if !audio.Released() {
		t.Fatal("audio handle not released after success")
	}
	if _, err := os.Stat(audio.Path); !os.IsNotExist(err) {
		t.Fatal("audio file still on disk after success")
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	dir := t.TempDir()
	audio := NewTempAudio(filepath.Join(dir, "nope.webm"), dir)

	tr := NewTranscriberForTests("http://unused.invalid", "k", time.Millisecond)
	_, err := tr.Transcribe(context.Background(), audio)

	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindTranscriptionInput {
		t.Fatalf("error = %v, want TranscriptionInputError", err)
	}
	if !audio.Released() {
		t.Fatal("audio handle not released on input error")
	}
}

func TestTranscribeEmptyFile(t *testing.T) {
	audio := newScratchAudio(t, "")

	tr := NewTranscriberForTests("http://unused.invalid", "k", time.Millisecond)
	_, err := tr.Transcribe(context.Background(), audio)

	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindTranscriptionInput {
		t.Fatalf("error = %v, want TranscriptionInputError", err)
	}
	if !audio.Released() {
		t.Fatal("audio handle not released on empty input")
	}
}

func TestTranscribeServiceErrorStillReleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	audio := newScratchAudio(t, "audio-bytes")
	tr := NewTranscriberForTests(srv.URL, "k", time.Millisecond)

	_, err := tr.Transcribe(context.Background(), audio)

	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindTranscriptionService {
		t.Fatalf("error = %v, want TranscriptionServiceError", err)
	}
	if !audio.Released() {
		t.Fatal("audio handle not released on service error")
	}
	if _, statErr := os.Stat(audio.Path); !os.IsNotExist(statErr) {
		t.Fatal("audio file still on disk after service error")
	}
}

func TestTranscribeRemoteFailureStatus(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_url": srv.URL + "/stored/audio"})
	})
	mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transcriptResponse{ID: "t2", Status: "queued"})
	})
	mux.HandleFunc("/transcript/t2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transcriptResponse{ID: "t2", Status: "error", Error: "audio too noisy"})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	audio := newScratchAudio(t, "audio-bytes")
	tr := NewTranscriberForTests(srv.URL, "k", time.Millisecond)

	_, err := tr.Transcribe(context.Background(), audio)

	var se *StageError
	if !errors.As(err, &se) || se.Kind != KindTranscriptionService {
		t.Fatalf("error = %v, want TranscriptionServiceError", err)
	}
	if !audio.Released() {
		t.Fatal("audio handle not released on remote failure")
	}
}

func TestNewTranscriberUsesConfiguredIntervals(t *testing.T) {
	tr := NewTranscriber(config.TranscriptionConfig{
		BaseURL:        "http://stt.local",
		APIKey:         "k",
		Timeout:        time.Minute,
		RequestTimeout: 7 * time.Second,
		PollInterval:   250 * time.Millisecond,
	})

	if tr.httpClient.Timeout != 7*time.Second {
		t.Errorf("request timeout = %v", tr.httpClient.Timeout)
	}
	if tr.pollInterval != 250*time.Millisecond {
		t.Errorf("poll interval = %v", tr.pollInterval)
	}
	if tr.timeout != time.Minute {
		t.Errorf("overall timeout = %v", tr.timeout)
	}
}

func TestTempAudioReleaseIdempotent(t *testing.T) {
	audio := newScratchAudio(t, "x")

	if err := audio.Release(); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}
	if err := audio.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
	if !audio.Released() {
		t.Fatal("Released() = false after Release")
	}
}

func TestTempAudioReleasedConcurrent(t *testing.T) {
	audio := newScratchAudio(t, "x")

	// Release and Released from separate goroutines; run with -race.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = audio.Release()
			_ = audio.Released()
		}()
	}
	wg.Wait()

	if !audio.Released() {
		t.Fatal("Released() = false after concurrent Release")
	}
}
