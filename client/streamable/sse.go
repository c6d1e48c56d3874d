package streamable

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/viant/jsonrpc"
)

// event is one dispatched server-sent event.
type event struct {
	name string
	id   string
	data []string
}

func (e *event) payload() string {
	return strings.Join(e.data, "\n")
}

// readEventStream reads frames until the response to requestID arrives. Notifications and
// server-initiated requests interleaved in the stream are skipped.
func (c *Client) readEventStream(ctx context.Context, body io.Reader, requestID interface{}) (*jsonrpc.Response, error) {
	var response *jsonrpc.Response
	err := readEvents(body, func(ev *event) (bool, error) {
		if ev.name != "" && ev.name != "message" {
			return true, nil
		}
		data := []byte(ev.payload())
		msg, err := probe(data)
		if err != nil {
			return false, err
		}
		if !msg.isResponse() {
			c.logger.Debug("skipping streamed message", "method", msg.Method)
			return true, nil
		}
		if response, err = asResponse(msg, data); err != nil {
			return false, err
		}
		return false, nil
	})
	if err != nil {
		var protocolErr *ProtocolError
		if errors.As(err, &protocolErr) {
			return nil, err
		}
		return nil, classify(ctx, err)
	}
	if response == nil {
		return nil, &ProtocolError{Message: "event stream ended without a response"}
	}
	return response, nil
}

// readEvents parses a text/event-stream body, calling fn per event until fn returns false.
func readEvents(body io.Reader, fn func(ev *event) (bool, error)) error {
	reader := bufio.NewReader(body)
	current := &event{}
	pending := false
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)
		if eof && line == "" {
			if pending {
				return &ProtocolError{Message: "event stream truncated mid-event"}
			}
			return nil
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if pending && len(current.data) > 0 {
				next, fnErr := fn(current)
				if fnErr != nil || !next {
					return fnErr
				}
			}
			current, pending = &event{}, false
		case strings.HasPrefix(line, ":"):
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			pending = true
			switch field {
			case "event":
				current.name = value
			case "data":
				current.data = append(current.data, value)
			case "id":
				current.id = value
			}
		}
		if eof {
			if pending {
				return &ProtocolError{Message: "event stream truncated mid-event"}
			}
			return nil
		}
	}
}
