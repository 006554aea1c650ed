package status

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientReceivesStatus(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// wait for registration, the first frame may be an older last message
	require.Eventually(t, func() bool {
		globalLock.Lock()
		defer globalLock.Unlock()
		return len(broadcastList) != 0
	}, time.Second, 10*time.Millisecond)

	Progress(float32(math.NaN()), "unpacking %s", "ui.ipf")

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)

		var s status
		require.NoError(t, json.Unmarshal(msg, &s))
		if s.Message != "unpacking ui.ipf" {
			continue
		}
		assert.Equal(t, PROGRESS, s.Type)
		assert.Zero(t, s.Progress)
		break
	}
}
