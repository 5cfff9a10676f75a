package observer

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lexazan/ape-ecs/internal/core/observability/log"
)

func TestBroadcastReachesClients(t *testing.T) {
	s := NewServer("127.0.0.1:0", log.NewNop())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/deltas"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return s.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	s.Broadcast(TickDelta{
		Tick: 7,
		Queries: []QueryDelta{
			{Query: "active", Added: []string{"A"}, Removed: []string{"B"}},
		},
	})

	var got TickDelta
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, uint64(7), got.Tick)
	require.Len(t, got.Queries, 1)
	assert.Equal(t, "active", got.Queries[0].Query)
	assert.Equal(t, []string{"A"}, got.Queries[0].Added)
	assert.Equal(t, []string{"B"}, got.Queries[0].Removed)
}

func TestDroppedClientIsForgotten(t *testing.T) {
	s := NewServer("127.0.0.1:0", log.NewNop())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/deltas"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return s.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	s.Broadcast(TickDelta{Tick: 1})
	require.Eventually(t, func() bool {
		return s.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}
