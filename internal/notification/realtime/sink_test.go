package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSESink(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := NewSSESink(rec)
	require.NoError(t, err)

	require.NoError(t, sink.Send(context.Background(), Frame{Type: FrameUnreadCount, Data: map[string]int{"count": 3}}))
	require.NoError(t, sink.Ping(context.Background()))

	body := rec.Body.String()
	assert.Contains(t, body, "event: unread_count\ndata: {\"type\":\"unread_count\",\"data\":{\"count\":3}")
	assert.True(t, strings.HasSuffix(body, ": ping\n\n"))
	assert.True(t, rec.Flushed)

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	assert.ErrorIs(t, sink.Send(context.Background(), Frame{Type: FrameNotification}), ErrSinkClosed)

	select {
	case <-sink.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

type gatedWriter struct {
	*httptest.ResponseRecorder
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedWriter) Write(b []byte) (int, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return g.ResponseRecorder.Write(b)
}

func TestSSESink_CloseWaitsForInflightWrite(t *testing.T) {
	gw := &gatedWriter{ResponseRecorder: httptest.NewRecorder(), entered: make(chan struct{}), release: make(chan struct{})}
	sink, err := NewSSESink(gw)
	require.NoError(t, err)

	sent := make(chan error, 1)
	go func() { sent <- sink.Send(context.Background(), Frame{Type: FrameNotification}) }()
	<-gw.entered

	closed := make(chan struct{})
	go func() {
		_ = sink.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("close returned during a write")
	case <-time.After(50 * time.Millisecond):
	}

	close(gw.release)
	require.NoError(t, <-sent)

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close did not return")
	}

	assert.ErrorIs(t, sink.Send(context.Background(), Frame{Type: FrameNotification}), ErrSinkClosed)
	assert.Equal(t, 1, strings.Count(gw.Body.String(), "event: "))
}

type noFlushWriter struct {
	http.ResponseWriter
}

func TestSSESink_RequiresFlusher(t *testing.T) {
	_, err := NewSSESink(noFlushWriter{})
	assert.ErrorIs(t, err, ErrStreamingUnsupported)
}

func TestWebSocketSink(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ready := make(chan *WebSocketSink, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sink := NewWebSocketSink(conn, time.Second)
		ready <- sink
		_ = sink.ReadLoop()
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	var sink *WebSocketSink
	select {
	case sink = <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("server never upgraded")
	}

	require.NoError(t, sink.Send(context.Background(), Frame{Type: FrameNotification, Data: "hi"}))
	require.NoError(t, sink.Ping(context.Background()))

	var got Frame
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, FrameNotification, got.Type)
	assert.Equal(t, "hi", got.Data)

	require.NoError(t, sink.Close())
	assert.ErrorIs(t, sink.Send(context.Background(), Frame{Type: FrameNotification}), ErrSinkClosed)
}
