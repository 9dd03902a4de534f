package blobserver

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 512,
	// the watch feed carries only identifiers, no document bodies
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans the identifier of every stored write out to connected watchers.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.Close()
}

// broadcast sends the identifier to every watcher; dead connections are
// dropped on write failure. The lock also serializes writers, which gorilla
// connections require.
func (h *hub) broadcast(identifier string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.conns {
		if err := c.WriteMessage(websocket.TextMessage, []byte(identifier)); err != nil {
			delete(h.conns, c)
			c.Close()
		}
	}
}

// Watch upgrades the request to a websocket and streams identifiers of
// updated documents until the client disconnects.
func (h *Handler) Watch(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("watch upgrade failed", "err", err)
		return
	}
	h.hub.add(conn)

	// drain (and discard) client frames so pings and closes are processed
	go func() {
		defer h.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
