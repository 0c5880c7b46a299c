package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

var (
	ErrStreamingUnsupported = errors.New("realtime: streaming unsupported")
	ErrSinkClosed           = errors.New("realtime: sink closed")
)

// SSESink writes frames as Server-Sent Events onto an open response.
type SSESink struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	flusher   http.Flusher
	done      chan struct{}
	closeOnce sync.Once
}

func NewSSESink(w http.ResponseWriter) (*SSESink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	return &SSESink{w: w, flusher: flusher, done: make(chan struct{})}, nil
}

func (s *SSESink) Send(_ context.Context, f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return err
	}

	return s.write(fmt.Sprintf("event: %s\ndata: %s\n\n", f.Type, payload))
}

// Ping writes an SSE comment so proxies keep the stream open.
func (s *SSESink) Ping(context.Context) error {
	return s.write(": ping\n\n")
}

// Close waits for an in-flight write; later writes fail with ErrSinkClosed.
func (s *SSESink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Done is closed once the sink is closed by the registry or the handler.
func (s *SSESink) Done() <-chan struct{} {
	return s.done
}

func (s *SSESink) write(chunk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return ErrSinkClosed
	default:
	}

	if _, err := fmt.Fprint(s.w, chunk); err != nil {
		return err
	}
	s.flusher.Flush()

	return nil
}
