// Package translate provides the stateless text translation operation. It is
// independent of the generation pipeline: one remote call per invocation.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// TranslationResponse represents the JSON response from the model
type TranslationResponse struct {
	TranslatedText string `json:"translated_text" jsonschema_description:"The input text translated into the target language"`
}

// GenerateSchema generates a JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// translationResponseSchema is the cached schema
var translationResponseSchema = GenerateSchema[TranslationResponse]()

// Translator translates article text into a target language.
type Translator struct {
	client openai.Client
}

// New builds a translator with the given API key.
func New(apiKey string, opts ...option.RequestOption) *Translator {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Translator{client: openai.NewClient(opts...)}
}

// Translate converts text into the target language (ISO 639-1 code).
func (t *Translator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following text into the language with ISO 639-1 code %q.
Preserve formatting and meaning. Respond in JSON format with this structure:
{
  "translated_text": "the translation here"
}

Text:
%s`, targetLang, text)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "translation",
		Description: openai.String("A translation of the given text"),
		Schema:      translationResponseSchema,
		Strict:      openai.Bool(true),
	}

	chatCompletion, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4oMini,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("translation API error: %w", err)
	}

	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("no response from translation API")
	}

	raw := chatCompletion.Choices[0].Message.Content
	if raw == "" {
		return "", fmt.Errorf("translation API returned empty response. Finish reason: %s",
			chatCompletion.Choices[0].FinishReason)
	}

	var parsed TranslationResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse translation JSON response: %w", err)
	}

	translated := strings.TrimSpace(parsed.TranslatedText)
	if translated == "" {
		return "", fmt.Errorf("translation API returned empty translation")
	}
	return translated, nil
}
