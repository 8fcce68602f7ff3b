package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// AzureConfig holds Azure OpenAI connection settings.
type AzureConfig struct {
	Endpoint   string        `json:"endpoint"`    // e.g. https://myresource.openai.azure.com
	APIKey     string        `json:"api_key"`     // api-key header
	APIVersion string        `json:"api_version"` // query parameter
	Deployment string        `json:"deployment"`  // deployment name, e.g. gpt-4o
	Timeout    time.Duration `json:"timeout"`
}

// DefaultAzureConfig returns sensible defaults.
func DefaultAzureConfig() *AzureConfig {
	return &AzureConfig{
		APIVersion: "2024-12-01-preview",
		Deployment: "gpt-4o",
		Timeout:    30 * time.Second,
	}
}

// AzureClient implements Client against the Azure OpenAI chat-completions API.
type AzureClient struct {
	config *AzureConfig
	client *http.Client
	logger zerolog.Logger
}

// NewAzureClient creates an Azure OpenAI client. Endpoint and API key fall
// back to the AZURE_OPENAI_ENDPOINT / AZURE_OPENAI_API_KEY environment
// variables when unset in the config.
func NewAzureClient(logger zerolog.Logger, config *AzureConfig) *AzureClient {
	if config == nil {
		config = DefaultAzureConfig()
	}
	if config.Endpoint == "" {
		config.Endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	}
	if config.APIKey == "" {
		config.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}
	if config.APIVersion == "" {
		config.APIVersion = DefaultAzureConfig().APIVersion
	}
	if config.Deployment == "" {
		config.Deployment = DefaultAzureConfig().Deployment
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultAzureConfig().Timeout
	}

	return &AzureClient{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger.With().Str("component", "azure-llm").Logger(),
	}
}

// Name returns the backend identifier.
func (c *AzureClient) Name() string {
	return "azure"
}

// IsAvailable reports whether the client has endpoint and key configured.
func (c *AzureClient) IsAvailable() bool {
	return c.config.Endpoint != "" && c.config.APIKey != ""
}

// chatRequest is the Azure OpenAI chat-completions request body.
type chatRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
}

// chatResponse is the subset of the response body we consume. Content is a
// pointer because the API returns null when a content filter fired.
type chatResponse struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete runs one chat completion against the configured deployment.
func (c *AzureClient) Complete(ctx context.Context, req *Request) (*Result, error) {
	if !c.IsAvailable() {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.config.Endpoint, c.config.Deployment, c.config.APIVersion)

	body, err := json.Marshal(chatRequest{
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.config.APIKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("completion request failed: %d - %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("completion error: %s - %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := parsed.Choices[0]
	content := ""
	if choice.Message.Content != nil {
		content = *choice.Message.Content
	}

	c.logger.Debug().
		Str("finish_reason", choice.FinishReason).
		Int("messages", len(req.Messages)).
		Dur("latency", time.Since(start)).
		Msg("Completion received")

	return &Result{
		Content:      content,
		FinishReason: mapFinishReason(choice.FinishReason),
	}, nil
}

func mapFinishReason(reason string) FinishReason {
	switch reason {
	case "stop":
		return FinishStop
	case "content_filter":
		return FinishContentFilter
	default:
		return FinishOther
	}
}
