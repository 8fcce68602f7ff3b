package speech

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSupertonTestServer runs a fake streaming endpoint that records the
// request frame and answers with two audio chunks.
func newSupertonTestServer(t *testing.T, audio []byte, gotReq *supertonRequest) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.ReadJSON(gotReq))

		half := len(audio) / 2
		conn.WriteJSON(supertonResponse{Data: base64.StdEncoding.EncodeToString(audio[:half])})
		conn.WriteJSON(supertonResponse{Data: base64.StdEncoding.EncodeToString(audio[half:]), Done: true})
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestSupertonEngine_Speak_StreamsChunksToPlayer(t *testing.T) {
	audio := []byte("fake-pcm-audio-bytes")
	var gotReq supertonRequest
	server := newSupertonTestServer(t, audio, &gotReq)
	defer server.Close()

	var played []byte
	player := func(_ context.Context, chunk []byte, _ string) error {
		played = append(played, chunk...)
		return nil
	}

	e := NewSupertonEngine(zerolog.Nop(), &SupertonConfig{
		Endpoint: wsURL(server),
		APIKey:   "test-key",
	}, player, nil)
	defer e.Close()

	err := e.Speak(context.Background(), "준비됐어!", Params{Style: "sad", Language: "ko"})
	require.NoError(t, err)

	assert.Equal(t, audio, played)
	assert.Equal(t, "준비됐어!", gotReq.Text)
	assert.Equal(t, "sad", gotReq.Style)
	assert.Equal(t, "ko", gotReq.Language)
	assert.Equal(t, SupertonDefaultVoice, gotReq.Voice)
}

func TestSupertonEngine_Speak_DefaultsStyleToNeutral(t *testing.T) {
	var gotReq supertonRequest
	server := newSupertonTestServer(t, []byte("xx"), &gotReq)
	defer server.Close()

	e := NewSupertonEngine(zerolog.Nop(), &SupertonConfig{
		Endpoint: wsURL(server),
		APIKey:   "test-key",
	}, nil, nil)
	defer e.Close()

	require.NoError(t, e.Speak(context.Background(), "안녕", Params{}))
	assert.Equal(t, "neutral", gotReq.Style)
}

func TestSupertonEngine_Speak_NoAPIKey(t *testing.T) {
	e := &SupertonEngine{config: &SupertonConfig{}, logger: zerolog.Nop()}

	err := e.Speak(context.Background(), "hello", Params{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestSupertonEngine_Speak_EmptyText(t *testing.T) {
	e := NewSupertonEngine(zerolog.Nop(), &SupertonConfig{APIKey: "test-key"}, nil, nil)

	err := e.Speak(context.Background(), "", Params{})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestSupertonEngine_Listen_NoRecognizer(t *testing.T) {
	e := NewSupertonEngine(zerolog.Nop(), &SupertonConfig{APIKey: "test-key"}, nil, nil)

	_, err := e.Listen(context.Background())
	assert.ErrorIs(t, err, ErrNoRecognizer)
}
