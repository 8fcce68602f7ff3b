// Package persona builds the per-request system instruction from a persona
// template, resolved device context, and speaker-name substitution.
package persona

import (
	"strings"
	"sync"
)

// addressToken is the literal substring templates use to address the user.
// A resolved speaker name replaces every occurrence in the template portion
// only, never in the appended context block.
const addressToken = "user"

// genericTemplate is used when the requested persona has no template.
const genericTemplate = "You are a helpful assistant. Respond in Korean."

// contextHeader delimits the appended device-context section.
const contextHeader = "## 사용자 컨텍스트"

// ResolvedContext is the per-request context produced by a context resolver.
// It lives for exactly one respond call and is never persisted.
type ResolvedContext struct {
	Text        string
	SpeakerName string
}

// Registry maps persona identifiers to raw instruction templates.
type Registry map[string]string

// Composer composes system instructions. The template registry is replaced
// wholesale on configuration reload; individual entries are never mutated.
type Composer struct {
	mu        sync.RWMutex
	templates Registry
}

// NewComposer creates a Composer over the given registry.
func NewComposer(templates Registry) *Composer {
	if templates == nil {
		templates = Registry{}
	}
	return &Composer{templates: templates}
}

// Replace swaps the template registry, e.g. after a config file change.
func (c *Composer) Replace(templates Registry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.templates = templates
}

// Template returns the raw template for a persona and whether it exists.
func (c *Composer) Template(personaID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tmpl, ok := c.templates[personaID]
	return tmpl, ok && tmpl != ""
}

// Compose builds the final system instruction. Unknown personas fall back
// to a generic instruction. The result is used verbatim as the session's
// system turn content.
func (c *Composer) Compose(personaID string, rc ResolvedContext) string {
	tmpl, ok := c.Template(personaID)
	if !ok {
		tmpl = genericTemplate
	}

	if rc.SpeakerName != "" {
		tmpl = strings.ReplaceAll(tmpl, addressToken, rc.SpeakerName)
	}

	if rc.Text != "" {
		tmpl += "\n\n" + contextHeader + "\n" + rc.Text
	}
	return tmpl
}
