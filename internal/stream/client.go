// package stream consumes the server's push channel (GET /stream, Server-Sent Events)
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

const streamPath = "/stream"

// Handler receives stream callbacks. Calls are made from one goroutine, in arrival order.
type Handler interface {
	Dispatch(ev models.StreamEvent)
	Malformed(raw []byte, err error)
	Connected()
	Disconnected(err error, final bool)
}

// Client opens and reads the push channel.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a stream client. The http client must not set a Timeout, which would cut the stream.
func NewClient(baseURL string, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// URL is the stream endpoint.
func (c *Client) URL() string { return c.baseURL + streamPath }

// Connect opens the stream. The caller closes the returned body.
func (c *Client) Connect(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), nil)
	if err != nil {
		return nil, &shared.TransportError{URL: c.URL(), Err: err}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &shared.TransportError{URL: c.URL(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &shared.TransportError{URL: c.URL(), Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	return resp.Body, nil
}

// Run connects and dispatches frames to h until the stream ends.
//
// Malformed frames go to h.Malformed and reading continues. Run returns a
// [*shared.TransportError] when the connection fails or closes, or the context error
// when ctx is cancelled. It does not call h.Disconnected; see [Supervisor].
func (c *Client) Run(ctx context.Context, h Handler) error {
	_, err := c.run(ctx, h)
	return err
}

// run returns the number of frames read on this connection.
func (c *Client) run(ctx context.Context, h Handler) (int, error) {
	body, err := c.Connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, err
	}
	defer body.Close()

	h.Connected()
	c.logger.Debug("stream open", "url", c.URL())

	frames := 0
	reader := newFrameReader(body)
	for {
		payload, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return frames, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return frames, &shared.TransportError{URL: c.URL(), Err: err}
		}
		frames++

		ev, err := ParseFrame(payload)
		if err != nil {
			c.logger.Debug("malformed frame", "err", err)
			h.Malformed(payload, err)
			continue
		}
		h.Dispatch(ev)
	}
}
