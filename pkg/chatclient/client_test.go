package chatclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestURL(t *testing.T) {
	cases := []struct {
		base, user, key, want string
	}{
		{"http://localhost:8000", "alice", "", "ws://localhost:8000/ws/alice"},
		{"https://chat.example/api/", "bob", "k 1", "wss://chat.example/api/ws/bob?key=k+1"},
		{"ws://h:1", "a b", "", "ws://h:1/ws/a%20b"},
		{"ws://h:1", "team/alice", "", "ws://h:1/ws/team%2Falice"},
	}
	for _, c := range cases {
		got, err := URL(c.base, c.user, c.key)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}

	_, err := URL("ftp://h", "u", "")
	assert.Error(t, err)
	_, err = URL("http://h", "", "")
	assert.Error(t, err)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Income{Kind: ReadFailure}.Retryable())
	assert.True(t, Income{Kind: ConnClosed, Code: ws.CloseAbnormalClosure}.Retryable())
	assert.False(t, Income{Kind: ConnClosed, Code: ws.CloseNormalClosure}.Retryable())
	assert.False(t, Income{Kind: ConnClosed, Code: 4401}.Retryable())
	assert.False(t, Income{Kind: ReadOK}.Retryable())
}

// echoServer upper-cases every frame. The first connection is dropped after
// one reply when dropFirst is set.
func echoServer(t *testing.T, dropFirst bool) *httptest.Server {
	t.Helper()

	var conns atomic.Int32
	up := ws.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		n := conns.Add(1)

		if r.URL.Query().Get("key") == "bad" {
			_ = conn.WriteControl(ws.CloseMessage, ws.FormatCloseMessage(4401, "unauthorized"), time.Now().Add(time.Second))
			return
		}

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(ws.TextMessage, []byte(strings.ToUpper(string(msg)))); err != nil {
				return
			}
			if dropFirst && n == 1 {
				return
			}
		}
	}))
}

func wsAddr(srv *httptest.Server, key string) string {
	addr, _ := URL(srv.URL, "u", key)
	return addr
}

func TestRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := echoServer(t, false)
	defer srv.Close()

	c, err := Dial(context.Background(), wsAddr(srv, ""), 10*time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, c.Send("hello"))
	in := c.Read()
	assert.Equal(t, ReadOK, in.Kind)
	assert.Equal(t, "HELLO", in.Text)

	require.NoError(t, c.Close())
}

func TestUnauthorizedClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := echoServer(t, false)
	defer srv.Close()

	c, err := Dial(context.Background(), wsAddr(srv, "bad"), 10*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	in := c.Read()
	assert.Equal(t, ConnClosed, in.Kind)
	assert.Equal(t, 4401, in.Code)
	assert.False(t, in.Retryable())
}

func TestReconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := echoServer(t, true)
	defer srv.Close()

	c, err := Dial(context.Background(), wsAddr(srv, ""), 10*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send("one"))
	assert.Equal(t, "ONE", c.Read().Text)

	in := c.Read()
	require.NotEqual(t, ReadOK, in.Kind)
	require.True(t, in.Retryable())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Reconnect(ctx))

	require.NoError(t, c.Send("two"))
	assert.Equal(t, "TWO", c.Read().Text)
}
