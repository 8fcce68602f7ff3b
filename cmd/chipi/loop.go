package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chipilabs/chipi/internal/speech"
	"github.com/chipilabs/chipi/internal/tone"
)

// defaultExitKeywords end the conversation loop when they appear anywhere in
// the utterance.
var defaultExitKeywords = []string{"종료", "그만", "꺼져"}

const (
	greeting = "준비됐어! 말 걸어줘!"
	farewell = "안녕!"
	askAgain = "미안, 다시 말해줄래?"
)

// runConversation drives the listen/respond/speak loop for one provider.
func runConversation(ctx context.Context, provider string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// An empty provider defers to the configured speech vendor.
	if provider == "" {
		provider = a.cfg.Speech.Provider
	}
	if provider == "" {
		provider = "azure"
	}

	engine := buildEngine(a.log, a.cfg, provider)
	defer engine.Close()

	logger := a.log.Component("loop")
	logger.Info().
		Str("speech", engine.Name()).
		Str("persona", personaID(a)).
		Msg("Conversation loop starting")

	exitWords := a.cfg.Keywords.Exit
	if len(exitWords) == 0 {
		exitWords = defaultExitKeywords
	}

	// Superton mode picks the style per turn; Azure mode keeps the fixed
	// expressive parameters from config.
	dynamicTone := provider == "superton"

	speak(ctx, a, engine, greeting, tone.StyleNeutral, dynamicTone)

	for {
		text, err := engine.Listen(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, speech.ErrNoRecognizer) {
				return err
			}
			logger.Warn().Err(err).Msg("Listen failed, retrying")
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if containsAny(text, exitWords) {
			speak(ctx, a, engine, farewell, tone.StyleNeutral, dynamicTone)
			return nil
		}

		a.manager.AddTurn(text)
		reply := a.manager.Respond(ctx, personaID(a), a.cfg.Device.Serial)
		if reply == "" {
			speak(ctx, a, engine, askAgain, tone.StyleNeutral, dynamicTone)
			continue
		}

		fmt.Printf("치피: %s\n", reply)
		speak(ctx, a, engine, reply, a.tones.Select(text), dynamicTone)
	}
}

func personaID(a *app) string {
	if a.cfg.Persona.Default != "" {
		return a.cfg.Persona.Default
	}
	return "chipi"
}

func speak(ctx context.Context, a *app, engine speech.Engine, text string, style tone.Style, dynamicTone bool) {
	params := speech.Params{
		Language:    a.cfg.Speech.Language,
		Style:       a.cfg.Speech.Style,
		StyleDegree: a.cfg.Speech.StyleDegree,
		Pitch:       a.cfg.Speech.Pitch,
		Rate:        a.cfg.Speech.Rate,
	}
	if dynamicTone {
		params.Style = string(style)
		params.StyleDegree = 0
		params.Pitch = 0
		params.Rate = 0
	}
	if err := engine.Speak(ctx, text, params); err != nil && !errors.Is(err, speech.ErrProviderUnavailable) {
		logger := a.log.Component("loop")
		logger.Warn().Err(err).Msg("Speak failed")
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// stdinRecognizer reads utterances from a terminal, standing in for the
// microphone capture that lives outside this process.
func stdinRecognizer(r io.Reader) speech.Recognizer {
	reader := bufio.NewReader(r)
	return func(ctx context.Context) (string, error) {
		fmt.Print("나: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
}
