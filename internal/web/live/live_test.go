package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/conduit-lang/excellent/internal/tooling"
	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/conduit-lang/excellent/pkg/lexer"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, allowedOrigins ...string) *httptest.Server {
	t.Helper()

	l, err := lexer.New(lexer.WithAllowedTopLevels("contact", "flow"))
	require.NoError(t, err)

	vocab := vocabulary.NewStaticStore(
		[]string{"contact", "flow"},
		map[string][]string{"contact": {"name", "age"}},
		nil,
	)

	api := tooling.NewAPIWithConfig(tooling.Config{Lexer: l, Vocabulary: vocab})
	srv := httptest.NewServer(NewHandler(api, nil, allowedOrigins))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSession_Completes(t *testing.T) {
	conn := dial(t, newTestServer(t))

	require.NoError(t, conn.WriteJSON(Request{ID: "1", Text: "Hi @contact.na"}))

	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))

	assert.Equal(t, "1", resp.ID)
	require.NotNil(t, resp.Context)
	assert.Equal(t, "contact.na", *resp.Context)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "name", resp.Items[0].Label)
	assert.Empty(t, resp.Error)
}

func TestSession_AnswersInOrder(t *testing.T) {
	conn := dial(t, newTestServer(t))

	texts := []string{"@", "@(contact.", "plain text"}
	for i, text := range texts {
		require.NoError(t, conn.WriteJSON(Request{ID: string(rune('a' + i)), Text: text}))
	}

	var first, second, third Response
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	require.NoError(t, conn.ReadJSON(&third))

	assert.Equal(t, "a", first.ID)
	assert.Nil(t, first.Context)
	assert.Empty(t, first.Items)

	assert.Equal(t, "b", second.ID)
	require.NotNil(t, second.Context)
	assert.Equal(t, "contact.", *second.Context)
	assert.Len(t, second.Items, 2)

	assert.Equal(t, "c", third.ID)
	assert.Nil(t, third.Context)
	assert.NotNil(t, third.Items)
}

func TestSession_InvalidMessage(t *testing.T) {
	conn := dial(t, newTestServer(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	var resp Response
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "invalid message", resp.Error)

	// the session survives a bad frame
	require.NoError(t, conn.WriteJSON(Request{ID: "2", Text: "@fl"}))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "2", resp.ID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "flow", resp.Items[0].Label)
}

func TestHandler_RejectsPlainHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandler_ChecksOrigin(t *testing.T) {
	srv := newTestServer(t, "https://editor.example.com")
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	tests := []struct {
		name   string
		origin string
		wantOK bool
	}{
		{"no origin", "", true},
		{"same origin", srv.URL, true},
		{"allowed origin", "https://editor.example.com", true},
		{"other origin", "https://evil.example.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}

			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.wantOK {
				require.NoError(t, err)
				conn.Close()
				return
			}

			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}
