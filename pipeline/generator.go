package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/logger"
)

// Generator turns a transcript into a blog article via a chat-completions
// API (endpoint, model and bearer key come from configuration).
type Generator struct {
	endpoint   string
	model      string
	apiKey     string
	charBudget int
	maxTokens  int

	httpClient *http.Client
	log        *logger.Logger
}

// NewGenerator constructs a generator from configuration.
func NewGenerator(cfg config.GenerationConfig) *Generator {
	return &Generator{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		charBudget: cfg.PromptCharBudget,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.New(),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate submits the (truncated) transcript and returns the article body.
func (g *Generator) Generate(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(
		"Write a blog article based on the following transcription:\n\n%s",
		Truncate(transcript, g.charBudget),
	)

	payload, err := json.Marshal(chatRequest{
		Model:     g.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		return "", stageErr(StageGeneration, KindGenerationService,
			"building generation request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", stageErr(StageGeneration, KindGenerationService,
			"building generation request", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", stageErr(StageGeneration, KindGenerationService,
			"generation request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		g.log.WithField("status", resp.StatusCode).WithField("body", truncateForLog(body)).
			Error("generation service returned non-success")
		return "", stageErr(StageGeneration, KindGenerationService,
			fmt.Sprintf("generation service returned %d", resp.StatusCode), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", stageErr(StageGeneration, KindGenerationParse,
			"cannot decode generation response", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", stageErr(StageGeneration, KindGenerationParse,
			"generation response has no content", nil)
	}

	return parsed.Choices[0].Message.Content, nil
}

// Truncate cuts text to at most budget characters. Truncation is a silent
// prompt-size guard, not a correctness concern.
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}
	return string(runes[:budget])
}
