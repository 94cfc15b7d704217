package realtime

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	types "github.com/yungbote/signage-backend/internal/domain/signage"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

// Socket is the slice of *websocket.Conn the hub needs.
type Socket interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one display connection. Only the write pump writes to the socket.
type Conn struct {
	ID     uuid.UUID
	Remote string

	socket    Socket
	send      chan []byte
	done      chan struct{}
	state     atomic.Int32
	lastSeen  atomic.Int64
	closeOnce sync.Once
	writeWait time.Duration
	readWait  time.Duration
	log       *logger.Logger
}

func newConn(socket Socket, remote string, buffer int, writeWait, readWait time.Duration, now time.Time, log *logger.Logger) *Conn {
	if buffer <= 0 {
		buffer = 64
	}
	id := uuid.New()
	c := &Conn{
		ID:        id,
		Remote:    remote,
		socket:    socket,
		send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
		writeWait: writeWait,
		readWait:  readWait,
		log:       log.With("conn_id", id, "remote", remote),
	}
	c.state.Store(int32(StateConnecting))
	c.touch(now)
	return c
}

func (c *Conn) State() State {
	return State(c.state.Load())
}

// LastSeen is the time of the last inbound frame (or of the accept).
func (c *Conn) LastSeen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

func (c *Conn) touch(now time.Time) {
	c.lastSeen.Store(now.UnixNano())
}

func (c *Conn) open() bool {
	return c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// enqueue never blocks. It reports false when the connection is not open
// or its queue is full.
func (c *Conn) enqueue(msg []byte) (ok bool, full bool) {
	if c.State() != StateOpen {
		return false, false
	}
	select {
	case c.send <- msg:
		return true, false
	default:
		return false, true
	}
}

// shutdown moves the connection to closing and stops the write pump.
// Closing the socket unblocks the read pump.
func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		for {
			cur := c.state.Load()
			if State(cur) == StateClosed || c.state.CompareAndSwap(cur, int32(StateClosing)) {
				break
			}
		}
		close(c.done)
		_ = c.socket.Close()
		c.state.Store(int32(StateClosed))
	})
}

func (c *Conn) writePump() {
	for {
		select {
		case msg := <-c.send:
			if c.writeWait > 0 {
				_ = c.socket.SetWriteDeadline(time.Now().Add(c.writeWait))
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("Write failed, closing connection", "error", err)
				c.shutdown()
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump blocks until the socket errors. Staying silent for readWait is
// an error. Every inbound frame, pong or not, refreshes liveness.
func (c *Conn) readPump(now func() time.Time) {
	for {
		if c.readWait > 0 {
			_ = c.socket.SetReadDeadline(time.Now().Add(c.readWait))
		}
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.log.Debug("Connection read ended", "error", err)
			}
			return
		}
		c.touch(now())
		var frame types.Notification
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Debug("Ignoring non-JSON frame", "bytes", len(data))
			continue
		}
		if frame.Type == types.NotifyPong {
			c.log.Debug("Pong", "timestamp", frame.Timestamp)
		}
	}
}
