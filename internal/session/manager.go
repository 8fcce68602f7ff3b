// Package session orchestrates one conversation: memory lifecycle, prompt
// composition, the completion call, and the validate/fallback cycle around it.
package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/chipilabs/chipi/internal/devicectx"
	"github.com/chipilabs/chipi/internal/llm"
	"github.com/chipilabs/chipi/internal/memory"
	"github.com/chipilabs/chipi/internal/persona"
	"github.com/chipilabs/chipi/internal/tone"
)

// Fallback replies. apologyReply is persisted as the assistant's turn when
// the model returned nothing (including content-filter suppression) so the
// conversation keeps its continuity. failureReply is returned on transport
// failures and is never persisted.
const (
	apologyReply = "어, 지금은 잘 모르겠어. 잠시만 기다려줄래?"
	failureReply = "어, 뭔가 잘못됐나봐. 잠시만 기다려줄래?"
)

// Config holds the fixed generation policy and the deadline applied to both
// I/O boundaries. The temperature deliberately favors expressive variability
// over determinism.
type Config struct {
	MaxTokens      int
	Temperature    float64
	TopP           float64
	RequestTimeout time.Duration
}

// DefaultConfig returns the fixed generation defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:      100,
		Temperature:    0.7,
		TopP:           1.0,
		RequestTimeout: 30 * time.Second,
	}
}

// Manager owns the session state. One Manager serves one conversation and
// its methods are not safe for concurrent use.
type Manager struct {
	config   Config
	store    *memory.Store
	composer *persona.Composer
	tones    *tone.Selector
	resolver devicectx.Resolver // nil when no device database is configured
	client   llm.Client
	logger   zerolog.Logger

	// turns holds user/assistant history only. The current system
	// instruction lives in its own field and is recomputed per request,
	// so no positional convention is needed.
	turns  []memory.Turn
	system string
}

// NewManager creates a Manager and loads any persisted history.
func NewManager(config Config, store *memory.Store, composer *persona.Composer, tones *tone.Selector, resolver devicectx.Resolver, client llm.Client, logger zerolog.Logger) *Manager {
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultConfig().MaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = DefaultConfig().Temperature
	}
	if config.TopP <= 0 {
		config.TopP = DefaultConfig().TopP
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultConfig().RequestTimeout
	}

	m := &Manager{
		config:   config,
		store:    store,
		composer: composer,
		tones:    tones,
		resolver: resolver,
		client:   client,
		logger:   logger.With().Str("component", "session").Logger(),
	}
	m.turns = store.Load()
	return m
}

// AddTurn appends a user turn. Empty input should be rejected by the entry
// point before it reaches the session.
func (m *Manager) AddTurn(text string) {
	m.turns = append(m.turns, memory.Turn{Role: memory.RoleUser, Content: text})
}

// History returns a copy of the user/assistant turns.
func (m *Manager) History() []memory.Turn {
	out := make([]memory.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// SystemPrompt returns the system instruction installed by the last Respond.
func (m *Manager) SystemPrompt() string {
	return m.system
}

// Reset clears the in-memory session and truncates the durable store.
func (m *Manager) Reset() error {
	m.turns = nil
	m.system = ""
	return m.store.Reset()
}

// Respond produces the assistant's reply for the current history. It always
// returns something speakable: a real completion, a persisted apology when
// the model returned nothing, or a transient failure reply that leaves the
// session exactly as it was so a retry re-sends the same context.
func (m *Manager) Respond(ctx context.Context, personaID, deviceSerial string) string {
	rc := m.resolveContext(ctx, deviceSerial)
	m.system = m.composer.Compose(personaID, rc)

	messages := make([]llm.Message, 0, len(m.turns)+1)
	messages = append(messages, llm.Message{Role: string(memory.RoleSystem), Content: m.system})
	for _, t := range m.turns {
		messages = append(messages, llm.Message{Role: string(t.Role), Content: t.Content})
	}

	reqCtx, cancel := context.WithTimeout(ctx, m.config.RequestTimeout)
	defer cancel()

	m.logger.Debug().
		Str("persona", personaID).
		Int("messages", len(messages)).
		Msg("Requesting completion")

	result, err := m.client.Complete(reqCtx, &llm.Request{
		Messages:    messages,
		MaxTokens:   m.config.MaxTokens,
		Temperature: m.config.Temperature,
		TopP:        m.config.TopP,
	})
	if err != nil {
		// Hard failure for this turn only: nothing is appended and
		// nothing is saved, so the session state is untouched.
		m.logger.Error().Err(err).Str("persona", personaID).Msg("Completion failed")
		return failureReply
	}

	content := result.Content
	if content == "" {
		if result.FinishReason == llm.FinishContentFilter {
			m.logger.Warn().Msg("Reply suppressed by content filter, using apology")
		} else {
			m.logger.Warn().Str("finish_reason", string(result.FinishReason)).Msg("Empty reply, using apology")
		}
		content = apologyReply
	}

	m.turns = append(m.turns, memory.Turn{Role: memory.RoleAssistant, Content: content})
	m.store.Save(m.turns)
	return content
}

// resolveContext runs the device-context query when a serial and resolver
// are present. Resolution failures degrade to an unaugmented prompt.
func (m *Manager) resolveContext(ctx context.Context, deviceSerial string) persona.ResolvedContext {
	if deviceSerial == "" || m.resolver == nil {
		return persona.ResolvedContext{}
	}

	onlyTemp, onlyHumidity := m.tones.Climate(m.latestUserText())

	resolveCtx, cancel := context.WithTimeout(ctx, m.config.RequestTimeout)
	defer cancel()

	text, speaker, err := m.resolver.Resolve(resolveCtx, deviceSerial, onlyTemp, onlyHumidity)
	if err != nil {
		m.logger.Warn().Err(err).Str("serial", deviceSerial).Msg("Context resolution failed, continuing without it")
		return persona.ResolvedContext{}
	}
	return persona.ResolvedContext{Text: text, SpeakerName: speaker}
}

func (m *Manager) latestUserText() string {
	for i := len(m.turns) - 1; i >= 0; i-- {
		if m.turns[i].Role == memory.RoleUser {
			return m.turns[i].Content
		}
	}
	return ""
}
