// Package memory persists the rolling dialogue history between runs.
package memory

import (
	"bufio"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single dialogue turn. Turns are immutable once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Store reads and writes the durable turn log. The on-disk format is one
// turn per line, `role:content`, with the first colon as the delimiter so
// content may itself contain colons. System turns are never persisted;
// they are recomputed on every request.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "memory").Logger(),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the turn log. A missing or unreadable file degrades to an
// empty history; load never fails the caller. Lines without a colon are
// skipped.
func (s *Store) Load() []Turn {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("history unreadable, starting empty")
		}
		return nil
	}
	defer f.Close()

	var turns []Turn
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		role, content, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		turns = append(turns, Turn{
			Role:    Role(strings.TrimSpace(role)),
			Content: strings.TrimSpace(content),
		})
	}
	if err := scanner.Err(); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("history partially read")
	}
	return turns
}

// Save overwrites the turn log with every non-system turn. Embedded
// newlines are collapsed to a single space to keep one turn per line.
// Write failures are logged, never propagated.
func (s *Store) Save(turns []Turn) {
	var sb strings.Builder
	for _, t := range turns {
		if t.Role == RoleSystem {
			continue
		}
		content := strings.ReplaceAll(t.Content, "\n", " ")
		sb.WriteString(string(t.Role))
		sb.WriteString(":")
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	if err := os.WriteFile(s.path, []byte(sb.String()), 0644); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to save history")
	}
}

// Reset truncates the turn log. An empty file is the canonical reset state.
func (s *Store) Reset() error {
	return os.WriteFile(s.path, nil, 0644)
}
