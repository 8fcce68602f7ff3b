// Package tone selects an expressive speaking style from the user's utterance.
package tone

import "strings"

// Style is an expressive style tag understood by the speech output layer.
type Style string

const (
	StyleNeutral Style = "neutral"
	StyleSad     Style = "sad"
)

// Keywords holds the keyword groups driving style and climate detection.
// These are configuration data, not code: the lists can be extended through
// the config file without touching the matching logic.
type Keywords struct {
	// Sad triggers the sad speaking style; matched by literal containment.
	Sad []string
	// Temperature and Humidity drive the device-context narrowing signal;
	// matched case-insensitively.
	Temperature []string
	Humidity    []string
}

// DefaultKeywords returns the built-in Korean keyword groups.
func DefaultKeywords() Keywords {
	return Keywords{
		Sad: []string{
			"죽고싶다", "뛰어내리고싶다", "살기싫다", "자살",
			"끝내고싶다", "절망", "극도로 힘들어",
		},
		Temperature: []string{"온도", "따뜻", "더워", "추워"},
		Humidity:    []string{"습도", "건조", "말라"},
	}
}

// Selector maps utterances to styles and climate signals. All methods are
// pure functions over the configured keyword groups.
type Selector struct {
	keywords Keywords
}

// NewSelector creates a Selector. Empty keyword groups fall back to the
// built-in defaults.
func NewSelector(kw Keywords) *Selector {
	def := DefaultKeywords()
	if len(kw.Sad) == 0 {
		kw.Sad = def.Sad
	}
	if len(kw.Temperature) == 0 {
		kw.Temperature = def.Temperature
	}
	if len(kw.Humidity) == 0 {
		kw.Humidity = def.Humidity
	}
	return &Selector{keywords: kw}
}

// Select returns the speaking style for the given user utterance.
func (s *Selector) Select(utterance string) Style {
	for _, kw := range s.keywords.Sad {
		if strings.Contains(utterance, kw) {
			return StyleSad
		}
	}
	return StyleNeutral
}

// Climate reports whether the utterance asks about temperature only or
// humidity only. When keywords from both groups are present neither signal
// fires, so the context resolver answers with the full picture.
func (s *Selector) Climate(utterance string) (onlyTemperature, onlyHumidity bool) {
	lower := strings.ToLower(utterance)
	hasTemp := containsAny(lower, s.keywords.Temperature)
	hasHumidity := containsAny(lower, s.keywords.Humidity)
	return hasTemp && !hasHumidity, hasHumidity && !hasTemp
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
