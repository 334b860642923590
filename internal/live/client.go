package live

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second

	// maxMissed consecutive dropped messages disconnect a client. Its screen
	// is stale by then and a reconnect reloads it.
	maxMissed = 32
)

// Client is one subscriber of the change feed. The feed is one-way: anything
// the peer sends closes the connection.
type Client struct {
	hub    *Hub
	conn   *ws.Conn
	remote string
	send   chan []byte

	missed    atomic.Int32
	evict     chan struct{}
	evictOnce sync.Once
}

// NewClient creates a Client tied to the given hub and connection.
func NewClient(hub *Hub, conn *ws.Conn, remote string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		remote: remote,
		send:   make(chan []byte, sendBufferSize),
		evict:  make(chan struct{}),
	}
}

// offer queues data without blocking and reports whether it was queued.
// Too many misses in a row mark the client for eviction.
func (c *Client) offer(data []byte) bool {
	select {
	case c.send <- data:
		c.missed.Store(0)
		return true
	default:
	}
	if c.missed.Add(1) >= maxMissed {
		c.evictOnce.Do(func() { close(c.evict) })
	}
	return false
}

// Run registers the client and streams messages until the peer goes away,
// the hub closes, or the client falls too far behind.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)
	defer c.conn.CloseNow()

	// CloseRead answers control frames in the background, which Ping needs,
	// and cancels ctx once the peer closes.
	ctx = c.conn.CloseRead(ctx)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(ws.StatusGoingAway, "server shutting down")
				return
			}
			if err := c.write(ctx, msg); err != nil {
				c.hub.writeFailed(c, err)
				return
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.hub.writeFailed(c, err)
				return
			}
		case <-c.evict:
			c.hub.evicted.Add(1)
			c.hub.logger.Warn("disconnecting slow live client", "remote", c.remote)
			c.conn.Close(ws.StatusPolicyViolation, "client too slow")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, ws.MessageText, msg)
}
