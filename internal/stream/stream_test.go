package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
	"github.com/desertthunder/subctl/internal/tasks"
	th "github.com/desertthunder/subctl/internal/testing"
)

var _ Handler = (*tasks.Session)(nil)
var _ Handler = (*th.RecordingHandler)(nil)

func TestParseFrame(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want models.StreamEvent
	}{
		{name: "log", in: `{"type":"log","message":"Scanning /media"}`, want: models.StreamEvent{Type: models.EventLog, Message: "Scanning /media"}},
		{name: "progress", in: `{"type":"progress","message":"3/10"}`, want: models.StreamEvent{Type: models.EventProgress, Message: "3/10"}},
		{name: "status", in: `{"type":"status","message":"finished"}`, want: models.StreamEvent{Type: models.EventStatus, Message: "finished"}},
		{name: "missing message", in: `{"type":"log"}`, want: models.StreamEvent{Type: models.EventLog}},
		{name: "extra fields", in: `{"type":"log","message":"x","at":12}`, want: models.StreamEvent{Type: models.EventLog, Message: "x"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrame([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseFrame() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFrame() = %+v, want %+v", got, tt.want)
			}
		})
	}

	malformed := map[string]string{
		"not json":        `not json`,
		"missing type":    `{"message":"x"}`,
		"unknown type":    `{"type":"heartbeat","message":"x"}`,
		"message not str": `{"type":"log","message":5}`,
		"array":           `[1,2]`,
		"empty":           ``,
	}
	for name, in := range malformed {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFrame([]byte(in))
			if !errors.Is(err, shared.ErrMalformedFrame) {
				t.Errorf("ParseFrame(%q) error = %v, want ErrMalformedFrame", in, err)
			}
		})
	}
}

func readAll(t *testing.T, body string) []string {
	t.Helper()
	r := newFrameReader(strings.NewReader(body))
	var out []string
	for {
		payload, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, string(payload))
	}
}

func TestFrameReader(t *testing.T) {
	t.Run("single data lines", func(t *testing.T) {
		got := readAll(t, "data: a\n\ndata: b\n\n")
		if fmt.Sprint(got) != "[a b]" {
			t.Errorf("frames = %q", got)
		}
	})

	t.Run("multi-line data is joined", func(t *testing.T) {
		got := readAll(t, "data: {\"type\":\ndata: \"log\"}\n\n")
		if len(got) != 1 || got[0] != "{\"type\":\n\"log\"}" {
			t.Errorf("frames = %q", got)
		}
	})

	t.Run("comments and other fields are ignored", func(t *testing.T) {
		got := readAll(t, ": keepalive\nevent: message\nid: 7\nretry: 1000\ndata: x\n\n")
		if fmt.Sprint(got) != "[x]" {
			t.Errorf("frames = %q", got)
		}
	})

	t.Run("CRLF line endings", func(t *testing.T) {
		got := readAll(t, "data: a\r\n\r\ndata: b\r\n\r\n")
		if fmt.Sprint(got) != "[a b]" {
			t.Errorf("frames = %q", got)
		}
	})

	t.Run("no space after colon", func(t *testing.T) {
		got := readAll(t, "data:x\n\n")
		if fmt.Sprint(got) != "[x]" {
			t.Errorf("frames = %q", got)
		}
	})

	t.Run("blank lines without data dispatch nothing", func(t *testing.T) {
		got := readAll(t, "\n\n: ping\n\n")
		if len(got) != 0 {
			t.Errorf("frames = %q", got)
		}
	})

	t.Run("unterminated frame is discarded", func(t *testing.T) {
		got := readAll(t, "data: a\n\ndata: partial")
		if fmt.Sprint(got) != "[a]" {
			t.Errorf("frames = %q", got)
		}
	})
}

func TestClient(t *testing.T) {
	t.Run("dispatches in order and skips malformed frames", func(t *testing.T) {
		server := th.NewSSEServer(t,
			th.Frame(models.EventLog, "hello"),
			"not json",
			th.Frame(models.EventProgress, "1/2"),
			th.Frame(models.EventStatus, "finished"),
		)

		h := &th.RecordingHandler{}
		client := NewClient(server.URL, server.Client(), nil)
		err := client.Run(context.Background(), h)

		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected transport error at end of stream, got %v", err)
		}
		if h.Connects != 1 {
			t.Errorf("Connects = %d", h.Connects)
		}
		if len(h.Events) != 3 {
			t.Fatalf("Events = %+v", h.Events)
		}
		if h.Events[0].Message != "hello" || h.Events[1].Message != "1/2" || !h.Events[2].IsFinished() {
			t.Errorf("unexpected order %+v", h.Events)
		}
		if len(h.Raw) != 1 || string(h.Raw[0]) != "not json" {
			t.Errorf("Raw = %q", h.Raw)
		}
		if len(h.Disconnects) != 0 {
			t.Error("Run must not report disconnects")
		}
	})

	t.Run("sends event-stream accept header", func(t *testing.T) {
		var accept string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accept = r.Header.Get("Accept")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		_ = NewClient(server.URL+"/", server.Client(), nil).Run(context.Background(), &th.RecordingHandler{})
		if accept != "text/event-stream" {
			t.Errorf("Accept = %q", accept)
		}
	})

	t.Run("non-2xx is a transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		h := &th.RecordingHandler{}
		err := NewClient(server.URL, server.Client(), nil).Run(context.Background(), h)
		var terr *shared.TransportError
		if !errors.As(err, &terr) {
			t.Fatalf("expected TransportError, got %v", err)
		}
		if !strings.Contains(terr.Error(), "503") {
			t.Errorf("error should mention status: %v", terr)
		}
		if h.Connects != 0 {
			t.Error("Connected must not be called on a failed connect")
		}
	})

	t.Run("round trip failure", func(t *testing.T) {
		httpClient := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("dial failed"))}
		err := NewClient("http://example.invalid", httpClient, nil).Run(context.Background(), &th.RecordingHandler{})
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}, Header: make(http.Header)}
		httpClient := &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}
		err := NewClient("http://example.invalid", httpClient, nil).Run(context.Background(), &th.RecordingHandler{})
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("cancellation returns the context error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		h := &th.RecordingHandler{}
		done := make(chan error, 1)
		go func() { done <- NewClient(server.URL, server.Client(), nil).Run(ctx, h) }()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}

func TestReconnectPolicy(t *testing.T) {
	p := ReconnectPolicy{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := p.Backoff(i + 1); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}

	t.Run("from config", func(t *testing.T) {
		cfg := shared.StreamConfig{MaxRetries: -2, InitialBackoff: "250ms", MaxBackoff: "bogus", ReconnectsPerMinute: 6}
		p := PolicyFromConfig(cfg)
		if p.MaxRetries != 0 || p.InitialBackoff != 250*time.Millisecond || p.MaxBackoff != 30*time.Second || p.PerMinute != 6 {
			t.Errorf("unexpected policy %+v", p)
		}
	})
}

func TestSupervisor(t *testing.T) {
	fast := ReconnectPolicy{InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	t.Run("zero retries is terminal on first loss", func(t *testing.T) {
		server := th.NewSSEServer(t, th.Frame(models.EventLog, "only"))
		h := &th.RecordingHandler{}

		err := NewSupervisor(NewClient(server.URL, server.Client(), nil), fast, nil).Run(context.Background(), h)
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
		if h.Connects != 1 || len(h.Disconnects) != 1 || !h.Final {
			t.Errorf("connects=%d disconnects=%d final=%v", h.Connects, len(h.Disconnects), h.Final)
		}
	})

	t.Run("retries are bounded and reset after frames", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				th.SSEHandler(th.Frame(models.EventLog, "first"))(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		policy := fast
		policy.MaxRetries = 2
		h := &th.RecordingHandler{}

		err := NewSupervisor(NewClient(server.URL, server.Client(), nil), policy, nil).Run(context.Background(), h)
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
		if got := hits.Load(); got != 3 {
			t.Errorf("connections = %d, want 3", got)
		}
		if len(h.Disconnects) != 3 || !h.Final {
			t.Errorf("disconnects=%d final=%v", len(h.Disconnects), h.Final)
		}
		if h.EventCount() != 1 {
			t.Errorf("events = %d", h.EventCount())
		}
	})

	t.Run("unreachable server counts every attempt", func(t *testing.T) {
		httpClient := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("refused"))}
		policy := fast
		policy.MaxRetries = 3
		h := &th.RecordingHandler{}

		err := NewSupervisor(NewClient("http://example.invalid", httpClient, nil), policy, nil).Run(context.Background(), h)
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
		if len(h.Disconnects) != 4 || h.Connects != 0 {
			t.Errorf("disconnects=%d connects=%d", len(h.Disconnects), h.Connects)
		}
	})

	t.Run("cancellation stops without a diagnostic", func(t *testing.T) {
		httpClient := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("refused"))}
		policy := ReconnectPolicy{MaxRetries: 100, InitialBackoff: time.Hour}
		h := &th.RecordingHandler{}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- NewSupervisor(NewClient("http://example.invalid", httpClient, nil), policy, nil).Run(ctx, h)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("supervisor did not stop")
		}
		if len(h.Disconnects) != 1 || h.Final {
			t.Errorf("disconnects=%d final=%v", len(h.Disconnects), h.Final)
		}
	})

	t.Run("drives a session end to end", func(t *testing.T) {
		server := th.NewSSEServer(t,
			th.Frame(models.EventProgress, "3/10"),
			"{broken",
			th.Frame(models.EventLog, "Downloaded 3 subtitles"),
			th.Frame(models.EventStatus, "finished"),
		)

		s := tasks.NewSession(tasks.SessionOpts{})
		if err := s.BeginDownload(); err != nil {
			t.Fatal(err)
		}
		_ = NewSupervisor(NewClient(server.URL, server.Client(), nil), fast, nil).Run(context.Background(), s)

		v := s.Snapshot()
		if v.Progress.Label != "3/10" || v.Phase != tasks.Finished || !v.ActionsEnabled || v.Progress.Visible {
			t.Errorf("unexpected view phase=%v progress=%+v enabled=%v", v.Phase, v.Progress, v.ActionsEnabled)
		}
		if !v.Terminal {
			t.Error("expected terminal session after final loss")
		}

		var lines []string
		for _, e := range v.Entries {
			lines = append(lines, e.Text)
		}
		joined := strings.Join(lines, "\n")
		for _, want := range []string{"Ignored:", "Downloaded 3 subtitles", "Task finished.", "Server connection lost."} {
			if !strings.Contains(joined, want) {
				t.Errorf("log missing %q:\n%s", want, joined)
			}
		}
	})
}
