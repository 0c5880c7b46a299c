package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultWriteTimeout = 10 * time.Second
	maxInboundMessage   = 512
)

// WebSocketSink writes frames as JSON text messages over a websocket connection.
type WebSocketSink struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
	done         chan struct{}
	closeOnce    sync.Once
}

func NewWebSocketSink(conn *websocket.Conn, writeTimeout time.Duration) *WebSocketSink {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}

	return &WebSocketSink{conn: conn, writeTimeout: writeTimeout, done: make(chan struct{})}
}

func (s *WebSocketSink) Send(_ context.Context, f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() {
		return ErrSinkClosed
	}

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}

	return s.conn.WriteJSON(f)
}

func (s *WebSocketSink) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() {
		return ErrSinkClosed
	}

	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout))
}

func (s *WebSocketSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
		err = s.conn.Close()
	})

	return err
}

func (s *WebSocketSink) Done() <-chan struct{} {
	return s.done
}

// ReadLoop drains inbound frames so control messages are processed, and returns
// when the peer goes away. The sink is closed on return.
func (s *WebSocketSink) ReadLoop() error {
	defer s.Close()

	s.conn.SetReadLimit(maxInboundMessage)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, websocket.ErrCloseSent) {
				return nil
			}
			return err
		}
	}
}

func (s *WebSocketSink) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
