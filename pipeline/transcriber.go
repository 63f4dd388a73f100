package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/logger"
	"github.com/cenkalti/backoff/v4"
)

// Transcriber submits audio files to a speech-to-text service (AssemblyAI
// wire format: upload, submit, poll). It is the last consumer of the scratch
// audio, so it releases the handle on every exit path.
type Transcriber struct {
	baseURL string
	apiKey  string

	httpClient   *http.Client
	pollInterval time.Duration
	timeout      time.Duration
	log          *logger.Logger
}

// NewTranscriber constructs a transcriber from configuration.
func NewTranscriber(cfg config.TranscriptionConfig) *Transcriber {
	return &Transcriber{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		log:          logger.New(),
	}
}

// NewTranscriberForTests constructs a transcriber with a fast poll interval.
func NewTranscriberForTests(baseURL, apiKey string, pollInterval time.Duration) *Transcriber {
	return &Transcriber{
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		pollInterval: pollInterval,
		timeout:      10 * time.Second,
		log:          logger.New(),
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Transcribe uploads the audio and blocks until the service returns text or
// fails. The handle is released exactly once before returning, success or not.
func (t *Transcriber) Transcribe(ctx context.Context, audio *TempAudio) (string, error) {
	defer func() {
		if err := audio.Release(); err != nil {
			t.log.WithError(err).Warn("failed to release scratch audio")
		}
	}()

	info, err := os.Stat(audio.Path)
	if err != nil {
		return "", stageErr(StageTranscription, KindTranscriptionInput,
			"audio file missing", err)
	}
	if info.Size() == 0 {
		return "", stageErr(StageTranscription, KindTranscriptionInput,
			"audio file is empty", nil)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	audioURL, err := t.upload(ctx, audio.Path)
	if err != nil {
		return "", stageErr(StageTranscription, KindTranscriptionService,
			"audio upload failed", err)
	}

	id, err := t.submit(ctx, audioURL)
	if err != nil {
		return "", stageErr(StageTranscription, KindTranscriptionService,
			"transcription request failed", err)
	}

	text, err := t.poll(ctx, id)
	if err != nil {
		return "", stageErr(StageTranscription, KindTranscriptionService,
			"transcription did not complete", err)
	}
	return text, nil
}

func (t *Transcriber) upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out uploadResponse
	if err := t.doJSON(req, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("upload response missing upload_url")
	}
	return out.UploadURL, nil
}

func (t *Transcriber) submit(ctx context.Context, audioURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"audio_url": audioURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out transcriptResponse
	if err := t.doJSON(req, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("transcript response missing id")
	}
	return out.ID, nil
}

// poll fetches transcript status until the service reports completed or error.
func (t *Transcriber) poll(ctx context.Context, id string) (string, error) {
	var text string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/transcript/"+id, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", t.apiKey)

		var out transcriptResponse
		if err := t.doJSON(req, &out); err != nil {
			return err
		}

		switch out.Status {
		case "completed":
			text = out.Text
			return nil
		case "error":
			return backoff.Permanent(fmt.Errorf("transcription failed: %s", out.Error))
		default:
			return fmt.Errorf("transcription still %s", out.Status)
		}
	}

	bo := backoff.WithContext(backoff.NewConstantBackOff(t.pollInterval), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return "", err
	}
	return text, nil
}

func (t *Transcriber) doJSON(req *http.Request, target interface{}) error {
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("speech service error %s: %s", resp.Status, truncateForLog(body))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decoding speech service response: %w", err)
	}
	return nil
}

func truncateForLog(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
