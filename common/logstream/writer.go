package logstream

import (
	"bytes"
	"sync"
	"time"
)

// Writer turns a tool's output into Messages, one per line
type Writer struct {
	hub         *Hub
	operationID string
	operation   string

	mu      sync.Mutex
	pending []byte
}

// Writer returns a writer publishing lines for the given operation
func (h *Hub) Writer(operationID, operation string) *Writer {
	return &Writer{hub: h, operationID: operationID, operation: operation}
}

// Write publishes every complete line in p. A partial trailing line is held
// until the next write or Close.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	for {
		idx := bytes.IndexByte(w.pending, '\n')
		if idx < 0 {
			break
		}
		w.publish(w.pending[:idx])
		w.pending = w.pending[idx+1:]
	}
	return len(p), nil
}

// Close publishes any unterminated last line
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) > 0 {
		w.publish(w.pending)
		w.pending = nil
	}
	return nil
}

func (w *Writer) publish(line []byte) {
	line = bytes.TrimRight(line, "\r")
	w.hub.Publish(&Message{
		OperationID: w.operationID,
		Operation:   w.operation,
		Line:        string(line),
		Time:        time.Now(),
	})
}
