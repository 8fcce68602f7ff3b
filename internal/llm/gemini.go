package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GeminiConfig holds Gemini backend settings.
type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"` // e.g. gemini-2.0-flash
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		Model: "gemini-2.0-flash",
	}
}

// GeminiClient implements Client on top of the Google GenAI SDK. It is the
// alternate backend to Azure OpenAI, selected through configuration.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

// NewGeminiClient creates a Gemini-backed completion client. The API key
// falls back to the GEMINI_API_KEY environment variable.
func NewGeminiClient(ctx context.Context, logger zerolog.Logger, config *GeminiConfig) (*GeminiClient, error) {
	if config == nil {
		config = DefaultGeminiConfig()
	}
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	model := config.Model
	if model == "" {
		model = DefaultGeminiConfig().Model
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
		logger: logger.With().Str("component", "gemini-llm").Logger(),
	}, nil
}

// Name returns the backend identifier.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Complete runs one chat completion. The leading system message becomes the
// system instruction; assistant turns map to the model role.
func (c *GeminiClient) Complete(ctx context.Context, req *Request) (*Result, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     genai.Ptr(float32(req.Temperature)),
		TopP:            genai.Ptr(float32(req.TopP)),
	}

	var contents []*genai.Content
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			cfg.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrNoChoices
	}

	candidate := resp.Candidates[0]
	c.logger.Debug().
		Str("finish_reason", string(candidate.FinishReason)).
		Int("messages", len(req.Messages)).
		Msg("Completion received")

	return &Result{
		Content:      resp.Text(),
		FinishReason: mapGeminiFinishReason(candidate.FinishReason),
	}, nil
}

func mapGeminiFinishReason(reason genai.FinishReason) FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return FinishStop
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return FinishContentFilter
	default:
		return FinishOther
	}
}
