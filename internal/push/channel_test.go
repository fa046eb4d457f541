package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unnati-09m/MediQ/pkg/logger"
	"github.com/unnati-09m/MediQ/pkg/monitoring"
)

// pushServer is a websocket endpoint handing accepted connections to the test
type pushServer struct {
	server *httptest.Server
	conns  chan *websocket.Conn
}

func newPushServer(t *testing.T) *pushServer {
	t.Helper()

	ps := &pushServer{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{}

	ps.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ps.conns <- conn

		// Drain client frames so pings do not back up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ps.server.Close)

	return ps
}

func (ps *pushServer) url() string {
	return "ws" + strings.TrimPrefix(ps.server.URL, "http")
}

func (ps *pushServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ps.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no websocket connection established")
		return nil
	}
}

func (ps *pushServer) send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(frame{Event: event, Data: payload}))
}

func startTestChannel(t *testing.T, url string) *Channel {
	t.Helper()

	channel := NewChannel(Config{
		URL:            url,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     50 * time.Millisecond,
		PingInterval:   time.Hour,
	}, logger.New("error"), monitoring.NewMetricsCollector("test"))

	channel.Start(context.Background())
	t.Cleanup(channel.Close)

	return channel
}

func TestChannel_DeliversFramesToTopicHandlers(t *testing.T) {
	server := newPushServer(t)
	channel := startTestChannel(t, server.url())

	received := make(chan json.RawMessage, 1)
	channel.Subscribe("queue_updated", func(data json.RawMessage) {
		received <- data
	})

	conn := server.accept(t)
	server.send(t, conn, "queue_updated", map[string]interface{}{"queue": []interface{}{}})

	select {
	case data := <-received:
		assert.JSONEq(t, `{"queue":[]}`, string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("handler never received the frame")
	}
}

func TestChannel_FrameReachesOnlyItsTopic(t *testing.T) {
	server := newPushServer(t)
	channel := startTestChannel(t, server.url())

	queueFrames := make(chan json.RawMessage, 1)
	doctorFrames := make(chan json.RawMessage, 1)
	channel.Subscribe("queue_updated", func(data json.RawMessage) { queueFrames <- data })
	channel.Subscribe("doctor_status_changed", func(data json.RawMessage) { doctorFrames <- data })

	conn := server.accept(t)
	server.send(t, conn, "doctor_status_changed", map[string]interface{}{"doctor_id": 1})

	select {
	case <-doctorFrames:
	case <-time.After(2 * time.Second):
		t.Fatal("doctor handler never received the frame")
	}

	select {
	case <-queueFrames:
		t.Fatal("queue handler received a doctor frame")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestChannel_UnsubscribeKeepsConnectionUp(t *testing.T) {
	server := newPushServer(t)
	channel := startTestChannel(t, server.url())

	stays := make(chan json.RawMessage, 1)
	gone := make(chan json.RawMessage, 1)
	channel.Subscribe("queue_updated", func(data json.RawMessage) { stays <- data })
	sub := channel.Subscribe("queue_updated", func(data json.RawMessage) { gone <- data })

	conn := server.accept(t)
	sub.Unsubscribe()

	server.send(t, conn, "queue_updated", map[string]interface{}{"queue": []interface{}{}})

	select {
	case <-stays:
	case <-time.After(2 * time.Second):
		t.Fatal("remaining handler never received the frame")
	}

	select {
	case <-gone:
		t.Fatal("unsubscribed handler still received a frame")
	case <-time.After(50 * time.Millisecond):
	}

	assert.True(t, channel.Connected(), "unsubscribing a view must not tear down the shared connection")
}

func TestChannel_ReconnectsAfterDrop(t *testing.T) {
	server := newPushServer(t)
	channel := startTestChannel(t, server.url())

	received := make(chan json.RawMessage, 1)
	channel.Subscribe("queue_updated", func(data json.RawMessage) { received <- data })

	first := server.accept(t)
	first.Close()

	// The channel redials on its own; subscriptions survive the reconnect
	second := server.accept(t)
	server.send(t, second, "queue_updated", map[string]interface{}{"queue": []interface{}{}})

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never received a frame after reconnect")
	}
}

func TestChannel_DiscardsPongFrames(t *testing.T) {
	server := newPushServer(t)
	channel := startTestChannel(t, server.url())

	received := make(chan json.RawMessage, 2)
	channel.Subscribe("pong", func(data json.RawMessage) { received <- data })
	channel.Subscribe("queue_updated", func(data json.RawMessage) { received <- data })

	conn := server.accept(t)
	server.send(t, conn, "pong", map[string]interface{}{})
	server.send(t, conn, "queue_updated", map[string]interface{}{"queue": []interface{}{}})

	select {
	case data := <-received:
		assert.JSONEq(t, `{"queue":[]}`, string(data), "pong must be swallowed before dispatch")
	case <-time.After(2 * time.Second):
		t.Fatal("queue frame never arrived")
	}
}

func TestChannel_PanickingHandlerDoesNotKillConnection(t *testing.T) {
	server := newPushServer(t)
	channel := startTestChannel(t, server.url())

	received := make(chan json.RawMessage, 1)
	channel.Subscribe("queue_updated", func(data json.RawMessage) { panic("boom") })
	channel.Subscribe("queue_updated", func(data json.RawMessage) { received <- data })

	conn := server.accept(t)
	server.send(t, conn, "queue_updated", map[string]interface{}{"queue": []interface{}{}})

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler never received the frame")
	}
	assert.True(t, channel.Connected())
}
