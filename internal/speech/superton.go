package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Superton streaming endpoint
const (
	SupertonWSEndpoint   = "wss://api.supertone.ai/v1/tts/stream"
	SupertonDefaultVoice = "chipi"
)

// SupertonConfig holds Superton TTS configuration.
type SupertonConfig struct {
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Voice    string        `json:"voice"`
	Language string        `json:"language"` // ko, en, ja
	Timeout  time.Duration `json:"timeout"`
}

// DefaultSupertonConfig returns sensible defaults.
func DefaultSupertonConfig() *SupertonConfig {
	return &SupertonConfig{
		Endpoint: SupertonWSEndpoint,
		Voice:    SupertonDefaultVoice,
		Language: "ko",
		Timeout:  30 * time.Second,
	}
}

// SupertonEngine streams synthesis over a reusable WebSocket connection so
// consecutive utterances avoid the handshake cost.
type SupertonEngine struct {
	config     *SupertonConfig
	player     Player
	recognizer Recognizer
	logger     zerolog.Logger

	conn     *websocket.Conn
	connMu   sync.Mutex
	lastUsed time.Time
}

// NewSupertonEngine creates a Superton speech engine. The API key falls back
// to the SUPERTON_API_KEY environment variable.
func NewSupertonEngine(logger zerolog.Logger, config *SupertonConfig, player Player, recognizer Recognizer) *SupertonEngine {
	if config == nil {
		config = DefaultSupertonConfig()
	}
	if config.Endpoint == "" {
		config.Endpoint = SupertonWSEndpoint
	}
	if config.APIKey == "" {
		config.APIKey = os.Getenv("SUPERTON_API_KEY")
	}
	if config.Voice == "" {
		config.Voice = SupertonDefaultVoice
	}
	if config.Language == "" {
		config.Language = "ko"
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultSupertonConfig().Timeout
	}

	return &SupertonEngine{
		config:     config,
		player:     player,
		recognizer: recognizer,
		logger:     logger.With().Str("provider", "superton-tts").Logger(),
	}
}

// Name returns the vendor identifier.
func (e *SupertonEngine) Name() string {
	return "superton"
}

// IsAvailable checks if the engine has an API key configured.
func (e *SupertonEngine) IsAvailable() bool {
	return e.config.APIKey != ""
}

// supertonRequest is the streaming synthesis request frame.
type supertonRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	Language string `json:"language"`
	Style    string `json:"style"`
}

// supertonResponse is a streaming response frame.
type supertonResponse struct {
	Data  string `json:"data,omitempty"` // base64 audio chunk
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// connect establishes or reuses the WebSocket connection.
func (e *SupertonEngine) connect(ctx context.Context) (*websocket.Conn, error) {
	e.connMu.Lock()
	defer e.connMu.Unlock()

	if e.conn != nil && time.Since(e.lastUsed) < 30*time.Second {
		e.lastUsed = time.Now()
		return e.conn, nil
	}
	if e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+e.config.APIKey)

	conn, resp, err := dialer.DialContext(ctx, e.config.Endpoint, header)
	if err != nil {
		if resp != nil {
			e.logger.Error().Int("status", resp.StatusCode).Err(err).Msg("Superton connection failed")
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	e.conn = conn
	e.lastUsed = time.Now()
	e.logger.Info().Msg("Connected to Superton")
	return conn, nil
}

// Speak streams synthesis for one utterance and plays chunks as they land.
func (e *SupertonEngine) Speak(ctx context.Context, text string, params Params) error {
	if !e.IsAvailable() {
		return ErrProviderUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	conn, err := e.connect(ctx)
	if err != nil {
		return err
	}

	language := params.Language
	if language == "" {
		language = e.config.Language
	}
	voice := params.Voice
	if voice == "" {
		voice = e.config.Voice
	}
	style := params.Style
	if style == "" {
		style = "neutral"
	}

	req := supertonRequest{
		Text:     text,
		Voice:    voice,
		Language: language,
		Style:    style,
	}

	conn.SetWriteDeadline(time.Now().Add(e.config.Timeout))
	if err := conn.WriteJSON(req); err != nil {
		e.dropConn()
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(e.config.Timeout))
		var frame supertonResponse
		if err := conn.ReadJSON(&frame); err != nil {
			e.dropConn()
			return fmt.Errorf("failed to read synthesis frame: %w", err)
		}
		if frame.Error != "" {
			return fmt.Errorf("synthesis error: %s", frame.Error)
		}
		if frame.Data != "" && e.player != nil {
			chunk, err := base64.StdEncoding.DecodeString(frame.Data)
			if err != nil {
				return fmt.Errorf("failed to decode audio chunk: %w", err)
			}
			if err := e.player(ctx, chunk, "pcm_s16le"); err != nil {
				return fmt.Errorf("playback failed: %w", err)
			}
		}
		if frame.Done {
			e.connMu.Lock()
			e.lastUsed = time.Now()
			e.connMu.Unlock()
			return nil
		}
	}
}

// Listen captures one utterance through the attached recognizer.
func (e *SupertonEngine) Listen(ctx context.Context) (string, error) {
	if e.recognizer == nil {
		return "", ErrNoRecognizer
	}
	return e.recognizer(ctx)
}

func (e *SupertonEngine) dropConn() {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	if e.conn != nil {
		e.conn.Close()
		e.conn = nil
	}
}

// Close releases the persistent connection.
func (e *SupertonEngine) Close() error {
	e.connMu.Lock()
	defer e.connMu.Unlock()
	if e.conn != nil {
		err := e.conn.Close()
		e.conn = nil
		return err
	}
	return nil
}
