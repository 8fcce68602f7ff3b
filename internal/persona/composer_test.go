package persona

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposer_Compose_SpeakerSubstitution(t *testing.T) {
	c := NewComposer(Registry{"chipi": "Hi user, how are you?"})

	got := c.Compose("chipi", ResolvedContext{SpeakerName: "Alex"})
	assert.Equal(t, "Hi Alex, how are you?", got)
}

func TestComposer_Compose_NoSpeakerKeepsTemplate(t *testing.T) {
	c := NewComposer(Registry{"chipi": "Hi user, how are you?"})

	got := c.Compose("chipi", ResolvedContext{})
	assert.Equal(t, "Hi user, how are you?", got)
}

func TestComposer_Compose_AppendsContextSection(t *testing.T) {
	c := NewComposer(Registry{"chipi": "Be kind."})

	got := c.Compose("chipi", ResolvedContext{Text: "T=24C"})
	assert.True(t, strings.HasPrefix(got, "Be kind."))
	assert.True(t, strings.HasSuffix(got, "T=24C"))
	assert.Contains(t, got, "\n\n## 사용자 컨텍스트\n")
}

func TestComposer_Compose_TokenInsideContextNotSubstituted(t *testing.T) {
	c := NewComposer(Registry{"chipi": "Hi user."})

	got := c.Compose("chipi", ResolvedContext{
		SpeakerName: "Alex",
		Text:        "registered user since 2024",
	})
	assert.Contains(t, got, "Hi Alex.")
	assert.Contains(t, got, "registered user since 2024")
}

func TestComposer_Compose_UnknownPersonaFallsBack(t *testing.T) {
	c := NewComposer(Registry{"chipi": "template"})

	got := c.Compose("nobody", ResolvedContext{})
	assert.Equal(t, "You are a helpful assistant. Respond in Korean.", got)
}

func TestComposer_Compose_EmptyTemplateFallsBack(t *testing.T) {
	c := NewComposer(Registry{"chipi": ""})

	got := c.Compose("chipi", ResolvedContext{})
	assert.Equal(t, "You are a helpful assistant. Respond in Korean.", got)
}

func TestComposer_Replace(t *testing.T) {
	c := NewComposer(Registry{"chipi": "old"})

	c.Replace(Registry{"chipi": "new"})
	got := c.Compose("chipi", ResolvedContext{})
	assert.Equal(t, "new", got)
}
