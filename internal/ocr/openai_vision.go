package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"liftsheet/internal/logger"
)

const transcriptionPrompt = `You are an OCR engine. Transcribe all text in the image exactly as written,
line by line, top to bottom and left to right. Keep punctuation such as ":", "/", "(" and ")".
Do not correct spelling, do not add commentary, and do not wrap the answer in code fences.
If the image contains no text, answer with an empty message.`

// OpenAIConfig selects the model used for transcription.
type OpenAIConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint; empty means the public API.
	BaseURL string
}

// OpenAIVisionService implements TextDetector with an OpenAI vision model.
type OpenAIVisionService struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenAIVisionService creates a chat completion client for transcription.
func NewOpenAIVisionService(config OpenAIConfig) (*OpenAIVisionService, error) {
	const op = "NewOpenAIVisionService"

	if config.APIKey == "" {
		return nil, NewOCRError(op, ErrMissingCredentials, "OPENAI_API_KEY is not set")
	}
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIVisionService{
		client: openai.NewClientWithConfig(clientConfig),
		model:  config.Model,
		log:    logger.WithComponent("ocr-openai"),
	}, nil
}

// DetectText asks the model for a verbatim transcription of the image.
func (o *OpenAIVisionService) DetectText(ctx context.Context, image []byte) ([]string, error) {
	const op = "DetectText"
	startTime := time.Now()

	if err := validateImage(op, image); err != nil {
		return nil, err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType(image), base64.StdEncoding.EncodeToString(image))

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: transcriptionPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Transcribe this workout log.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, callFailed(op, err, "OpenAI API call failed")
	}

	if len(resp.Choices) == 0 {
		return nil, WrapOCRError(op, ErrOCRFailed, "no choices in OpenAI response")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)

	o.log.Debug().
		Str("model", o.model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Dur("duration", time.Since(startTime)).
		Msg("OpenAI transcription completed")

	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

// Close is a no-op; the HTTP client needs no cleanup.
func (o *OpenAIVisionService) Close() error {
	return nil
}
