package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Default Azure Speech voice for the Chipi persona.
const AzureDefaultVoice = "ko-KR-SeoHyeonNeural"

// AzureConfig holds Azure Speech settings.
type AzureConfig struct {
	Region  string        `json:"region"`  // e.g. koreacentral
	APIKey  string        `json:"api_key"` // subscription key
	Voice   string        `json:"voice"`   // default voice id
	Format  string        `json:"format"`  // output format header value
	Timeout time.Duration `json:"timeout"`
}

// DefaultAzureConfig returns sensible defaults.
func DefaultAzureConfig() *AzureConfig {
	return &AzureConfig{
		Region:  "koreacentral",
		Voice:   AzureDefaultVoice,
		Format:  "riff-24khz-16bit-mono-pcm",
		Timeout: 30 * time.Second,
	}
}

// AzureEngine speaks through the Azure Speech REST synthesis endpoint with
// SSML expressive styles. Playback and capture are delegated to the injected
// Player and Recognizer.
type AzureEngine struct {
	config     *AzureConfig
	client     *http.Client
	player     Player
	recognizer Recognizer
	logger     zerolog.Logger
}

// NewAzureEngine creates an Azure speech engine. The API key falls back to
// the AZURE_SPEECH_KEY environment variable.
func NewAzureEngine(logger zerolog.Logger, config *AzureConfig, player Player, recognizer Recognizer) *AzureEngine {
	if config == nil {
		config = DefaultAzureConfig()
	}
	if config.APIKey == "" {
		config.APIKey = os.Getenv("AZURE_SPEECH_KEY")
	}
	if config.Region == "" {
		config.Region = DefaultAzureConfig().Region
	}
	if config.Voice == "" {
		config.Voice = DefaultAzureConfig().Voice
	}
	if config.Format == "" {
		config.Format = DefaultAzureConfig().Format
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultAzureConfig().Timeout
	}

	return &AzureEngine{
		config:     config,
		client:     &http.Client{Timeout: config.Timeout},
		player:     player,
		recognizer: recognizer,
		logger:     logger.With().Str("provider", "azure-speech").Logger(),
	}
}

// Name returns the vendor identifier.
func (e *AzureEngine) Name() string {
	return "azure"
}

// IsAvailable checks if the engine has an API key configured.
func (e *AzureEngine) IsAvailable() bool {
	return e.config.APIKey != ""
}

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// buildSSML renders the utterance with the expressive style wrapper. A zero
// Params falls back to the configured default voice with no styling.
func (e *AzureEngine) buildSSML(text string, params Params) string {
	voice := params.Voice
	if voice == "" {
		voice = e.config.Voice
	}

	body := ssmlEscaper.Replace(text)
	if params.Pitch != 0 || params.Rate != 0 {
		body = fmt.Sprintf(`<prosody pitch="%+d%%" rate="%+d%%">%s</prosody>`,
			params.Pitch, params.Rate, body)
	}
	if params.Style != "" {
		degree := params.StyleDegree
		if degree <= 0 {
			degree = 1.0
		}
		body = fmt.Sprintf(`<mstts:express-as style="%s" styledegree="%.1f">%s</mstts:express-as>`,
			params.Style, degree, body)
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xmlns:mstts="https://www.w3.org/2001/mstts" xml:lang="ko-KR"><voice name="%s">%s</voice></speak>`,
		voice, body)
}

// Speak synthesizes text via the REST endpoint and hands the audio to the
// player.
func (e *AzureEngine) Speak(ctx context.Context, text string, params Params) error {
	if !e.IsAvailable() {
		return ErrProviderUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", e.config.Region)
	ssml := e.buildSSML(text, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(ssml)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", e.config.Format)
	req.Header.Set("Ocp-Apim-Subscription-Key", e.config.APIKey)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("synthesis request failed: %d - %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}

	e.logger.Debug().
		Str("style", params.Style).
		Int("bytes", len(audio)).
		Dur("latency", time.Since(start)).
		Msg("Synthesis complete")

	if e.player == nil {
		return nil
	}
	return e.player(ctx, audio, e.config.Format)
}

// Listen captures one utterance through the attached recognizer.
func (e *AzureEngine) Listen(ctx context.Context) (string, error) {
	if e.recognizer == nil {
		return "", ErrNoRecognizer
	}
	return e.recognizer(ctx)
}

// Close is a no-op; the engine holds no persistent connection.
func (e *AzureEngine) Close() error {
	return nil
}
