// Package prompt talks to text and speech models used for scene planning and
// speech-to-video transcription.
package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"clipforge/internal/infra"
)

const (
	defaultBaseURL         = "https://api.openai.com/v1"
	defaultChatModel       = "gpt-4o-mini"
	defaultTranscribeModel = "whisper-1"
	defaultTimeout         = 60 * time.Second
)

// Options configures an OpenAI-compatible client.
type Options struct {
	BaseURL         string
	APIKey          string
	ChatModel       string
	TranscribeModel string
	HTTPClient      *http.Client
	Logger          *infra.Logger
}

// OpenAIClient implements text completion and audio transcription against any
// OpenAI-compatible endpoint.
type OpenAIClient struct {
	baseURL         string
	apiKey          string
	chatModel       string
	transcribeModel string
	httpClient      *http.Client
	logger          infra.Logger
}

// NewOpenAIClient constructs a client with sane defaults.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("prompt: api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	chatModel := opts.ChatModel
	if chatModel == "" {
		chatModel = defaultChatModel
	}
	transcribeModel := opts.TranscribeModel
	if transcribeModel == "" {
		transcribeModel = defaultTranscribeModel
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &OpenAIClient{
		baseURL:         baseURL,
		apiKey:          opts.APIKey,
		chatModel:       chatModel,
		transcribeModel: transcribeModel,
		httpClient:      httpClient,
		logger:          logger,
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

type transcriptionResponse struct {
	Text  string    `json:"text"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}

// Complete sends one system+user exchange and returns the assistant reply.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	payload := chatRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("prompt: encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("prompt: build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prompt: chat request: %w", err)
	}
	defer resp.Body.Close()

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("prompt: decode chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prompt: chat completion status %d: %s", resp.StatusCode, decoded.errorMessage())
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("prompt: chat completion returned no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

// Transcribe uploads audio and returns the recognized text.
func (c *OpenAIClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("prompt: build upload: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("prompt: copy audio: %w", err)
	}
	if err := mw.WriteField("model", c.transcribeModel); err != nil {
		return "", fmt.Errorf("prompt: build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("prompt: finalize upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("prompt: build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("prompt: transcribe request: %w", err)
	}
	defer resp.Body.Close()

	var decoded transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("prompt: decode transcription: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("prompt: transcription status %d: %s", resp.StatusCode, decoded.errorMessage())
	}
	text := strings.TrimSpace(decoded.Text)
	if text == "" {
		return "", fmt.Errorf("prompt: transcription returned empty text")
	}
	c.logger.Debug().Int("chars", len(text)).Msg("prompt: transcription complete")
	return text, nil
}

func (r chatResponse) errorMessage() string {
	if r.Error != nil && r.Error.Message != "" {
		return r.Error.Message
	}
	return "unknown error"
}

func (r transcriptionResponse) errorMessage() string {
	if r.Error != nil && r.Error.Message != "" {
		return r.Error.Message
	}
	return "unknown error"
}
