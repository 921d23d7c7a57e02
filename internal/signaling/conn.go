// Package signaling implements the Signaling Client (spec.md §4.A): a
// JSON-over-websocket connection that carries session-description
// offers/answers, ICE candidates, and resolution advisories, with
// automatic reconnection. The reader/writer pump split and deadlined
// connection wrapper are grounded on the teacher's
// pkg/network/websocket/{websocket,connection}.go.
package signaling

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 64 * 1024
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	writeWait      = 10 * time.Second
)

// deadlinedConn wraps a gorilla/websocket connection with the
// read/write deadlines the pump goroutines enforce.
type deadlinedConn struct {
	sock *websocket.Conn
}

func (c *deadlinedConn) read() ([]byte, error) {
	_, msg, err := c.sock.ReadMessage()
	return msg, err
}

func (c *deadlinedConn) write(messageType int, data []byte) error {
	if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.sock.WriteMessage(messageType, data)
}

func (c *deadlinedConn) close() error { return c.sock.Close() }
