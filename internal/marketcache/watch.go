package marketcache

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

// Watch subscribes to GET /stream and calls fn with each health update
// until ctx is done, fn returns false or the server closes the stream.
// A clean stop returns nil.
func (c *Client) Watch(ctx context.Context, fn func(model.Health) bool) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/stream"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var h model.Health
		if err := conn.ReadJSON(&h); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if !fn(h) {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}
