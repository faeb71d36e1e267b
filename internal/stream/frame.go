package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

// maxFrameSize bounds a single SSE line.
const maxFrameSize = 1 << 20

type wireEvent struct {
	Type    *string `json:"type"`
	Message *string `json:"message"`
}

// ParseFrame decodes one frame payload into a [models.StreamEvent].
//
// The payload must be a JSON object with a recognized "type". A missing message decodes as empty.
func ParseFrame(data []byte) (models.StreamEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return models.StreamEvent{}, &shared.ParseError{Raw: string(data), Reason: "frame is not a JSON event", Err: err}
	}
	if w.Type == nil {
		return models.StreamEvent{}, &shared.ParseError{Raw: string(data), Reason: "frame has no type"}
	}

	ev := models.StreamEvent{Type: models.EventType(*w.Type)}
	if !ev.Type.Valid() {
		return models.StreamEvent{}, &shared.ParseError{Raw: string(data), Reason: "unknown event type " + *w.Type}
	}
	if w.Message != nil {
		ev.Message = *w.Message
	}
	return ev, nil
}

// frameReader splits a text/event-stream body into frame payloads.
//
// Consecutive data lines are joined with a newline and a blank line ends the frame.
// Comments and the event, id and retry fields are skipped.
type frameReader struct {
	scanner *bufio.Scanner
}

func newFrameReader(r io.Reader) *frameReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)
	return &frameReader{scanner: scanner}
}

// Next returns the payload of the next complete frame. A frame cut off by the end of the
// body is discarded and io.EOF returned.
func (r *frameReader) Next() ([]byte, error) {
	var (
		data    bytes.Buffer
		hasData bool
	)

	for r.scanner.Scan() {
		line := r.scanner.Bytes()

		if len(line) == 0 {
			if hasData {
				return data.Bytes(), nil
			}
			continue
		}
		if line[0] == ':' {
			continue
		}

		field, value, found := bytes.Cut(line, []byte(":"))
		if found {
			value = bytes.TrimPrefix(value, []byte(" "))
		}
		if string(field) != "data" {
			continue
		}

		if hasData {
			data.WriteByte('\n')
		}
		data.Write(value)
		hasData = true
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
