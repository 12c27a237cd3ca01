package live

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 2 * pingInterval
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Serve upgrades the request and streams the topics' messages until the
// client leaves or falls behind.
func Serve(w http.ResponseWriter, r *http.Request, hub *Hub, topics ...string) {
	l := logging.FromContext(r.Context()).With("component", "live.ws", "topics", topics)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Warn("ws_upgrade_failed", "error", err)
		return
	}
	defer conn.Close()

	sub := hub.Subscribe(topics...)
	defer sub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(map[string]any{"type": "connected"}); err != nil {
		return
	}
	l.Info("ws_connected")

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			l.Info("ws_disconnected")
			return
		case msg, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				l.Warn("ws_dropped", "reason", "slow consumer")
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "slow consumer"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
