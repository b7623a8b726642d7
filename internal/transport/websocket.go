// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "github.com/atici/MicMonitor/internal/log"
)

// WebSocketTransport broadcasts telemetry frames to connected monitoring
// clients with rate limiting to avoid flooding clients or the network.
//
// Thread Safety:
// - Mutex-guarded client map
// - Rate limiting drops frames instead of queueing them
// - Safe for calls from the audio callback thread (worst case one JSON
//   marshal and non-blocking writes per allowed frame)
type WebSocketTransport struct {
	clients         map[*websocket.Conn]bool
	clientsMutex    sync.Mutex
	upgrader        websocket.Upgrader
	server          *http.Server
	lastSend        time.Time
	minSendInterval time.Duration
	closeOnce       sync.Once
}

// NewWebSocketTransport creates a WebSocket transport and starts an HTTP
// server on the given port serving the /monitor endpoint. minSendInterval
// bounds the broadcast rate; frames arriving faster are dropped.
func NewWebSocketTransport(port string, minSendInterval time.Duration) *WebSocketTransport {
	t := &WebSocketTransport{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local monitoring tool, any origin may connect
			},
		},
		minSendInterval: minSendInterval,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/monitor", t.handleWebSocket)
	t.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		applog.Infof("Telemetry WebSocket listening on port %s", port)
		if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
			applog.Errorf("Telemetry server error: %v", err)
		}
	}()

	return t
}

// handleWebSocket upgrades HTTP connections and tracks the client until it
// disconnects.
func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	t.clientsMutex.Lock()
	t.clients[conn] = true
	t.clientsMutex.Unlock()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				t.clientsMutex.Lock()
				delete(t.clients, conn)
				t.clientsMutex.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Send broadcasts one frame to all connected clients. Frames exceeding the
// rate limit are dropped silently; a dropped telemetry frame is cheaper
// than a blocked audio callback.
func (t *WebSocketTransport) Send(data any) error {
	now := time.Now()
	if now.Sub(t.lastSend) < t.minSendInterval {
		return nil
	}
	t.lastSend = now

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	t.clientsMutex.Lock()
	for client := range t.clients {
		if err := client.WriteMessage(websocket.TextMessage, jsonData); err != nil {
			client.Close()
			delete(t.clients, client)
		}
	}
	t.clientsMutex.Unlock()

	return nil
}

// Close disconnects all clients and shuts down the HTTP server. Idempotent.
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.clientsMutex.Lock()
		for client := range t.clients {
			client.Close()
			delete(t.clients, client)
		}
		t.clientsMutex.Unlock()
		err = t.server.Close()
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
