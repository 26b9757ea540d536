// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	applog "visualizer/internal/log"

	"github.com/gorilla/websocket"
)

// DefaultWriteTimeout bounds each write to a client. A client that cannot
// take a frame within it is disconnected.
const DefaultWriteTimeout = time.Second

// WebSocketTransport broadcasts frames as JSON ({"seq":n,"bands":[...]}) to
// every client connected to /ws. Messages from clients are read and dropped.
// Writes happen outside the client lock, so a stalled client never holds up
// Send, connects or disconnects.
type WebSocketTransport struct {
	upgrader     websocket.Upgrader
	clients      map[*websocket.Conn]bool
	clientsMu    sync.Mutex
	numClients   atomic.Int32
	writeTimeout time.Duration
	broadcast    chan Frame
	done         chan struct{}
	broadcaster  sync.WaitGroup
	closeOnce    sync.Once
	listener     net.Listener
	server       *http.Server
}

// NewWebSocketTransport listens on addr and starts serving clients.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Read-only data for any local page
			},
		},
		clients:      make(map[*websocket.Conn]bool),
		writeTimeout: DefaultWriteTimeout,
		broadcast:    make(chan Frame, 256),
		done:         make(chan struct{}),
		listener:     ln,
	}
	wst.start()
	return wst, nil
}

// Addr returns the address the server listens on.
func (wst *WebSocketTransport) Addr() net.Addr {
	return wst.listener.Addr()
}

func (wst *WebSocketTransport) start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	wst.server = &http.Server{Handler: mux}

	go func() {
		applog.Infof("WebSocketTransport: Serving on ws://%s/ws", wst.listener.Addr())
		if err := wst.server.Serve(wst.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()

	wst.broadcaster.Add(1)
	go wst.handleBroadcasts()
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	select {
	case <-wst.done:
		wst.clientsMu.Unlock()
		conn.Close()
		return
	default:
	}
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.numClients.Store(int32(total))
	wst.clientsMu.Unlock()
	applog.Infof("WebSocketTransport: Client %s connected, total: %d", conn.RemoteAddr(), total)

	// Drain until the client goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		if wst.remove(conn) {
			applog.Infof("WebSocketTransport: Client %s disconnected", conn.RemoteAddr())
		}
	}()
}

// remove drops and closes a client, reporting whether it was still registered.
func (wst *WebSocketTransport) remove(conn *websocket.Conn) bool {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	if !wst.clients[conn] {
		return false
	}
	delete(wst.clients, conn)
	wst.numClients.Store(int32(len(wst.clients)))
	conn.Close()
	return true
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	return int(wst.numClients.Load())
}

// handleBroadcasts sends queued frames to all connected clients. It is the
// only goroutine that writes to clients.
func (wst *WebSocketTransport) handleBroadcasts() {
	defer wst.broadcaster.Done()
	var targets []*websocket.Conn
	for {
		select {
		case <-wst.done:
			return
		case f := <-wst.broadcast:
			targets = targets[:0]
			wst.clientsMu.Lock()
			for client := range wst.clients {
				targets = append(targets, client)
			}
			wst.clientsMu.Unlock()

			for _, client := range targets {
				client.SetWriteDeadline(time.Now().Add(wst.writeTimeout))
				if err := client.WriteJSON(f); err != nil {
					if wst.remove(client) {
						applog.Warnf("WebSocketTransport: Dropped client %s: %v", client.RemoteAddr(), err)
					}
				}
			}
		}
	}
}

// Send queues a copy of f for broadcast. It never blocks: frames are dropped
// when nobody is connected or the queue is full.
func (wst *WebSocketTransport) Send(f *Frame) error {
	if wst.numClients.Load() == 0 {
		return nil
	}
	msg := Frame{Seq: f.Seq, Timestamp: f.Timestamp, Bands: append([]float32(nil), f.Bands...)}
	select {
	case <-wst.done:
		return errors.New("websocket transport is closed")
	case wst.broadcast <- msg:
	default:
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Infof("WebSocketTransport: Closing server")
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.numClients.Store(0)
		wst.clientsMu.Unlock()

		err = wst.server.Close()
		wst.broadcaster.Wait()
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
