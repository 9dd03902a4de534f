package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
)

// Watch subscribes to the endpoint's change feed and invokes fn with the
// identifier of every document another client writes. Returns when the
// connection drops or ctx is done; redialing is the caller's concern.
func (c *Client) Watch(ctx context.Context, fn func(identifier string)) error {
	wsURL := strings.Replace(c.base, "http", "ws", 1) + "/api/watch"

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial watch: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// close the connection when ctx ends so ReadMessage unblocks
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read watch message: %w", err)
		}
		if mt == websocket.TextMessage && len(msg) > 0 {
			fn(string(msg))
		}
	}
}
