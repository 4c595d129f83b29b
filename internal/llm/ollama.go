package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// OllamaClient talks to a local Ollama server's chat API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	tracer     trace.Tracer
	logger     *zap.Logger
}

// NewOllamaClient creates a client for the given Ollama server and model.
func NewOllamaClient(baseURL, model string, logger *zap.Logger) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		tracer: otel.Tracer("ollama-client"),
		logger: logger.Named("ollama"),
	}
}

// SetBaseURL overrides the server URL for testing purposes.
func (c *OllamaClient) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

// Chat sends the conversation to Ollama and returns the raw completion text.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	ctx, span := c.tracer.Start(ctx, "ollama.chat")
	defer span.End()

	span.SetAttributes(
		attribute.String("model", c.model),
		attribute.Int("message_count", len(messages)),
	)

	if opts.MaxTokens == 0 {
		opts.MaxTokens = 4000
	}

	reqBody := ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  opts.MaxTokens,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("ollama returned status %d (failed to read body: %w)", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}

	c.logger.Debug("completion generated",
		zap.String("model", c.model),
		zap.Int("chars", len(chatResp.Message.Content)),
	)

	return chatResp.Message.Content, nil
}

// Health lists installed models and reports whether the configured model is
// available.
func (c *OllamaClient) Health(ctx context.Context) (*Health, error) {
	ctx, span := c.tracer.Start(ctx, "ollama.health")
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return &Health{Status: "error"}, fmt.Errorf("failed to reach ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Health{Status: "error"}, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return &Health{Status: "error"}, fmt.Errorf("failed to decode tags response: %w", err)
	}

	var names []string
	available := false
	for _, m := range tags.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		names = append(names, name)
		if name == c.model || strings.TrimSuffix(name, ":latest") == c.model {
			available = true
		}
	}

	status := "ok"
	if !available {
		status = "model_not_found"
	}

	span.SetAttributes(attribute.Bool("model_available", available))

	return &Health{
		Status:          status,
		ModelAvailable:  available,
		AvailableModels: names,
	}, nil
}

// ModelName returns the configured model identifier.
func (c *OllamaClient) ModelName() string {
	return c.model
}
