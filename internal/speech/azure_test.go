package speech

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestAzureEngine(params ...Player) *AzureEngine {
	var player Player
	if len(params) > 0 {
		player = params[0]
	}
	return NewAzureEngine(zerolog.Nop(), &AzureConfig{APIKey: "test-key"}, player, nil)
}

func TestAzureEngine_BuildSSML_Basic(t *testing.T) {
	e := newTestAzureEngine()

	ssml := e.buildSSML("안녕", Params{})
	assert.Contains(t, ssml, `<voice name="ko-KR-SeoHyeonNeural">`)
	assert.Contains(t, ssml, "안녕")
	assert.NotContains(t, ssml, "express-as")
	assert.NotContains(t, ssml, "prosody")
}

func TestAzureEngine_BuildSSML_StyleAndProsody(t *testing.T) {
	e := newTestAzureEngine()

	ssml := e.buildSSML("준비됐어!", Params{
		Style:       "cheerful",
		StyleDegree: 2.0,
		Pitch:       10,
		Rate:        20,
	})
	assert.Contains(t, ssml, `<mstts:express-as style="cheerful" styledegree="2.0">`)
	assert.Contains(t, ssml, `<prosody pitch="+10%" rate="+20%">`)
}

func TestAzureEngine_BuildSSML_DefaultStyleDegree(t *testing.T) {
	e := newTestAzureEngine()

	ssml := e.buildSSML("슬퍼", Params{Style: "sad"})
	assert.Contains(t, ssml, `styledegree="1.0"`)
}

func TestAzureEngine_BuildSSML_EscapesMarkup(t *testing.T) {
	e := newTestAzureEngine()

	ssml := e.buildSSML(`1 < 2 & "yes"`, Params{})
	assert.Contains(t, ssml, "1 &lt; 2 &amp; &quot;yes&quot;")
	assert.Equal(t, 1, strings.Count(ssml, "<speak"))
}

func TestAzureEngine_BuildSSML_VoiceOverride(t *testing.T) {
	e := newTestAzureEngine()

	ssml := e.buildSSML("hello", Params{Voice: "en-US-JennyNeural"})
	assert.Contains(t, ssml, `<voice name="en-US-JennyNeural">`)
}

func TestAzureEngine_Speak_EmptyText(t *testing.T) {
	e := newTestAzureEngine()

	err := e.Speak(context.Background(), "   ", Params{})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestAzureEngine_Speak_NoAPIKey(t *testing.T) {
	e := &AzureEngine{config: &AzureConfig{}, logger: zerolog.Nop()}

	err := e.Speak(context.Background(), "hello", Params{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestAzureEngine_Listen_NoRecognizer(t *testing.T) {
	e := newTestAzureEngine()

	_, err := e.Listen(context.Background())
	assert.ErrorIs(t, err, ErrNoRecognizer)
}

func TestAzureEngine_Listen_DelegatesToRecognizer(t *testing.T) {
	e := NewAzureEngine(zerolog.Nop(), &AzureConfig{APIKey: "test-key"}, nil,
		func(_ context.Context) (string, error) { return "안녕", nil })

	got, err := e.Listen(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "안녕", got)
}
