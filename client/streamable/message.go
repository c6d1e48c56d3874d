package streamable

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
)

// envelope probes a JSON-RPC message before it is decoded into a typed one.
type envelope struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

func (e *envelope) isResponse() bool {
	return e.Method == ""
}

func probe(data []byte) (*envelope, error) {
	ret := &envelope{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, &ProtocolError{Message: "malformed JSON-RPC message", Cause: err}
	}
	return ret, nil
}

func decodeResponse(data []byte) (*jsonrpc.Response, error) {
	msg, err := probe(data)
	if err != nil {
		return nil, err
	}
	if !msg.isResponse() {
		return nil, &ProtocolError{Message: "expected a response, got " + msg.Method}
	}
	return asResponse(msg, data)
}

func asResponse(msg *envelope, data []byte) (*jsonrpc.Response, error) {
	if msg.Jsonrpc != jsonrpc.Version {
		return nil, &ProtocolError{Message: fmt.Sprintf("unsupported jsonrpc version %q", msg.Jsonrpc)}
	}
	if len(msg.ID) == 0 || bytes.Equal(msg.ID, []byte("null")) {
		return nil, &ProtocolError{Message: "response carries no id"}
	}
	hasResult := len(msg.Result) > 0
	hasError := len(msg.Error) > 0 && !bytes.Equal(msg.Error, []byte("null"))
	if hasResult == hasError {
		return nil, &ProtocolError{Message: "response must carry exactly one of result or error"}
	}
	ret := &jsonrpc.Response{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, &ProtocolError{Message: "malformed JSON-RPC response", Cause: err}
	}
	if hasError && ret.Error == nil {
		return nil, &ProtocolError{Message: "malformed JSON-RPC error object"}
	}
	return ret, nil
}

// SameID reports whether two JSON-RPC ids are equal by their JSON encoding, so that a
// numeric id decoded as float64 matches the integer it was issued as.
func SameID(a, b interface{}) bool {
	return idString(a) == idString(b) && idString(a) != "null"
}

func idString(id interface{}) string {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Sprintf("%v", id)
	}
	return string(data)
}
