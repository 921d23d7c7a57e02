package signaling

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/selkies-project/selkies/internal/logger"
	"github.com/selkies-project/selkies/internal/netutil"
)

// Client is the answerer side of the signaling protocol: it awaits the
// server's offer, and streams answers/ICE candidates/resolution
// advisories back, reconnecting with exponential backoff on involuntary
// socket loss (spec.md §4.A).
type Client struct {
	log    *logger.Logger
	url    url.URL
	Events *Events

	retry *netutil.Retry

	mu              sync.Mutex
	conn            *deadlinedConn
	send            chan []byte
	explicitClosure bool
	closed          bool
}

// New constructs a Client for the given websocket URL. backoffBase and
// backoffCeiling configure the reconnect schedule (spec.md §4.A
// "exponential backoff capped at a configurable ceiling").
func New(log *logger.Logger, target url.URL, backoffBase, backoffCeiling time.Duration) *Client {
	return &Client{
		log:    log,
		url:    target,
		Events: newEvents(),
		retry:  netutil.NewRetry(backoffBase, backoffCeiling),
	}
}

// Connect dials the signaling endpoint and starts the reader/writer
// pumps. On involuntary loss it reconnects automatically in the
// background until Disconnect is called.
func (c *Client) Connect(ctx context.Context) error {
	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url.String(), nil)
	if err != nil {
		emit(c.Events.Error, err)
		return err
	}

	c.mu.Lock()
	c.conn = &deadlinedConn{sock: conn}
	c.send = make(chan []byte, 32)
	c.explicitClosure = false
	c.closed = false
	c.mu.Unlock()

	c.retry.Reset()
	emit(c.Events.Status, "connected")

	var wg sync.WaitGroup
	wg.Add(2)
	go c.reader(ctx, &wg)
	go c.writer(&wg)

	go func() {
		wg.Wait()
		c.handleClosed(ctx)
	}()

	return nil
}

func (c *Client) reader(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	conn := conn(c)
	if conn == nil {
		return
	}
	conn.sock.SetReadLimit(maxMessageSize)
	_ = conn.sock.SetReadDeadline(time.Now().Add(pongWait))
	conn.sock.SetPongHandler(func(string) error {
		return conn.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		data, err := conn.read()
		if err != nil {
			emit(c.Events.Debug, "read loop ended: "+err.Error())
			return
		}
		frame, err := parseFrame(data)
		if err != nil {
			emit(c.Events.Error, err)
			continue
		}
		emit(c.Events.Frame, frame)
	}
}

func (c *Client) writer(wg *sync.WaitGroup) {
	defer wg.Done()

	conn := conn(c)
	if conn == nil {
		return
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	sendCh := c.sendChannel()
	for {
		select {
		case msg, ok := <-sendCh:
			if !ok {
				_ = conn.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.write(websocket.TextMessage, msg); err != nil {
				emit(c.Events.Debug, "write loop ended: "+err.Error())
				return
			}
		case <-ticker.C:
			if err := conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func conn(c *Client) *deadlinedConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

func (c *Client) sendChannel() chan []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send
}

// sendFrame queues a frame for the writer pump.
func (c *Client) sendFrame(f Frame) error {
	data, err := f.marshal()
	if err != nil {
		return err
	}
	c.mu.Lock()
	ch := c.send
	closed := c.closed
	c.mu.Unlock()
	if closed || ch == nil {
		return websocket.ErrCloseSent
	}
	ch <- data
	return nil
}

// SendAnswer streams the local SDP answer to the server.
func (c *Client) SendAnswer(sdp any) error {
	f, err := newFrame(KindAnswer, sdp)
	if err != nil {
		return err
	}
	return c.sendFrame(f)
}

// SendICECandidate streams one discovered ICE candidate.
func (c *Client) SendICECandidate(candidate any) error {
	f, err := newFrame(KindICE, candidate)
	if err != nil {
		return err
	}
	return c.sendFrame(f)
}

// SendResolution streams the current-resolution advisory.
func (c *Client) SendResolution(w, h int) error {
	f, err := newFrame(KindResolution, struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}{w, h})
	if err != nil {
		return err
	}
	return c.sendFrame(f)
}

// Disconnect closes the connection explicitly; no reconnection follows.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.explicitClosure = true
	c.closed = true
	conn := c.conn
	send := c.send
	c.mu.Unlock()

	if send != nil {
		close(send)
	}
	if conn != nil {
		_ = conn.close()
	}
}

func (c *Client) handleClosed(ctx context.Context) {
	c.mu.Lock()
	explicit := c.explicitClosure
	c.closed = true
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.close()
	}

	emit(c.Events.Disconnect, DisconnectEvent{Reconnect: !explicit})
	if explicit {
		return
	}

	go c.reconnectLoop(ctx)
}

func (c *Client) reconnectLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retry.Next()):
		}

		c.mu.Lock()
		explicit := c.explicitClosure
		c.mu.Unlock()
		if explicit {
			return
		}

		if err := c.dial(ctx); err != nil {
			emit(c.Events.Status, "reconnect failed, retrying")
			continue
		}
		emit(c.Events.Status, "reconnected")
		return
	}
}
