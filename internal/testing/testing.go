// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/subctl/internal/models"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Frame encodes an event as the JSON payload of one SSE data line.
func Frame(t models.EventType, message string) string {
	data, _ := json.Marshal(models.StreamEvent{Type: t, Message: message})
	return string(data)
}

// SSEHandler serves each payload as one "data:" frame, then returns, closing the stream.
//
// Payloads are written verbatim so tests can send malformed frames.
func SSEHandler(payloads ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)

		flusher, _ := w.(http.Flusher)
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// NewSSEServer starts an httptest server whose /stream endpoint serves payloads once per connection.
func NewSSEServer(t *testing.T, payloads ...string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("GET /stream", SSEHandler(payloads...))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// RecordingHandler captures stream callbacks in order.
type RecordingHandler struct {
	mu          sync.Mutex
	Events      []models.StreamEvent
	Raw         [][]byte
	Errors      []error
	Connects    int
	Disconnects []error
	Final       bool
}

func (h *RecordingHandler) Dispatch(ev models.StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, ev)
}

func (h *RecordingHandler) Malformed(raw []byte, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Raw = append(h.Raw, append([]byte(nil), raw...))
	h.Errors = append(h.Errors, err)
}

func (h *RecordingHandler) Connected() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Connects++
}

func (h *RecordingHandler) Disconnected(err error, final bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Disconnects = append(h.Disconnects, err)
	h.Final = final
}

// EventCount returns the number of dispatched events.
func (h *RecordingHandler) EventCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Events)
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
