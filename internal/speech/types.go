// Package speech wraps speech input/output vendors behind narrow contracts.
// The conversation core only produces a reply string and a style tag; audio
// device handling stays behind the injected Player and Recognizer.
package speech

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrProviderUnavailable = errors.New("speech provider unavailable")
	ErrEmptyText           = errors.New("nothing to speak")
	ErrNoRecognizer        = errors.New("no speech recognizer attached")
)

// Params carries the expressive style parameters for one utterance.
type Params struct {
	Voice       string  `json:"voice"`        // vendor voice id
	Language    string  `json:"language"`     // e.g. "ko"
	Style       string  `json:"style"`        // neutral, sad, cheerful, ...
	StyleDegree float64 `json:"style_degree"` // style intensity, vendor scale
	Pitch       int     `json:"pitch"`        // percent offset
	Rate        int     `json:"rate"`         // percent offset
}

// Player receives synthesized audio for playback.
type Player func(ctx context.Context, audio []byte, format string) error

// Recognizer captures one user utterance as text; empty means nothing heard.
type Recognizer func(ctx context.Context) (string, error)

// Speaker synthesizes and plays one utterance.
type Speaker interface {
	Speak(ctx context.Context, text string, params Params) error
}

// Listener captures one user utterance.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Engine is a full speech capability: ears and mouth.
type Engine interface {
	Speaker
	Listener

	// Name returns the vendor identifier (e.g. "azure", "superton").
	Name() string

	// Close releases any persistent vendor connection.
	Close() error
}
