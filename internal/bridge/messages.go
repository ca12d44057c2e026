package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"neron/internal/graph"
	"neron/internal/theme"
)

// Kind is the envelope "type" discriminator.
type Kind string

// Host to renderer.
const (
	KindUpdateTheme   Kind = "updateTheme"
	KindLoadGraphData Kind = "loadGraphData"
)

// Renderer to host.
const (
	KindLog                    Kind = "log"
	KindRequestGraphData       Kind = "request_graph_data"
	KindNodeClicked            Kind = "nodeClicked"
	KindWebGLError             Kind = "webgl_error"
	KindInitializationComplete Kind = "initialization_complete"
	KindInitializationFailed   Kind = "initialization_failed"
)

// ErrMissingType is returned for envelopes without a "type" field.
var ErrMissingType = errors.New("bridge: message has no type")

// Message is any bridge message.
type Message interface {
	Kind() Kind
}

// Outbound is a host to renderer message. The set is closed.
type Outbound interface {
	Message
	outbound()
}

// Inbound is a renderer to host message. The set is closed; Unknown covers
// tags this host does not understand.
type Inbound interface {
	Message
	inbound()
}

// UpdateTheme asks the renderer to switch its color theme.
type UpdateTheme struct {
	Theme theme.Name `json:"theme"`
}

// LoadGraphData hands the renderer a full transformed graph.
type LoadGraphData struct {
	Data  graph.GraphData `json:"data"`
	Theme theme.Name      `json:"theme"`
}

// Log is a diagnostic line from the renderer.
type Log struct {
	Message string `json:"message"`
	Level   string `json:"level"`
}

// RequestGraphData means the renderer is ready to receive the dataset.
type RequestGraphData struct{}

// NodeClicked reports a node selection inside the renderer.
type NodeClicked struct {
	Node    graph.VisualNode `json:"node"`
	AllData *graph.Dataset   `json:"allData,omitempty"`
}

// WebGLError means the renderer cannot draw; the host offers a retry.
type WebGLError struct {
	Error string `json:"error"`
}

// InitializationComplete is the renderer's ready handshake.
type InitializationComplete struct{}

// InitializationFailed is the renderer's failed handshake.
type InitializationFailed struct {
	Error string `json:"error"`
}

// Unknown is an inbound message with an unrecognized tag.
type Unknown struct {
	Type string
	Raw  json.RawMessage
}

func (UpdateTheme) Kind() Kind            { return KindUpdateTheme }
func (LoadGraphData) Kind() Kind          { return KindLoadGraphData }
func (Log) Kind() Kind                    { return KindLog }
func (RequestGraphData) Kind() Kind       { return KindRequestGraphData }
func (NodeClicked) Kind() Kind            { return KindNodeClicked }
func (WebGLError) Kind() Kind             { return KindWebGLError }
func (InitializationComplete) Kind() Kind { return KindInitializationComplete }
func (InitializationFailed) Kind() Kind   { return KindInitializationFailed }
func (u Unknown) Kind() Kind              { return Kind(u.Type) }

func (UpdateTheme) outbound()   {}
func (LoadGraphData) outbound() {}

func (Log) inbound()                    {}
func (RequestGraphData) inbound()       {}
func (NodeClicked) inbound()            {}
func (WebGLError) inbound()             {}
func (InitializationComplete) inbound() {}
func (InitializationFailed) inbound()   {}
func (Unknown) inbound()                {}

// Encode serializes m into a single-line JSON envelope.
func Encode(m Message) ([]byte, error) {
	if u, ok := m.(Unknown); ok {
		return nil, fmt.Errorf("bridge: cannot encode unknown message %q", u.Type)
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Kind(), err)
	}

	// splice the tag in front of the payload fields
	kind, _ := json.Marshal(string(m.Kind()))
	out := make([]byte, 0, len(body)+len(kind)+9)
	out = append(out, `{"type":`...)
	out = append(out, kind...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

func peekKind(data []byte) (string, error) {
	var env struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("bridge: malformed message: %w", err)
	}
	if env.Type == nil || *env.Type == "" {
		return "", ErrMissingType
	}
	return *env.Type, nil
}

// DecodeInbound parses a renderer to host message. Unknown tags decode to
// Unknown without error.
func DecodeInbound(data []byte) (Inbound, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}

	var msg Inbound
	switch Kind(kind) {
	case KindLog:
		var m Log
		err = json.Unmarshal(data, &m)
		msg = m
	case KindRequestGraphData:
		msg = RequestGraphData{}
	case KindNodeClicked:
		var m NodeClicked
		err = json.Unmarshal(data, &m)
		msg = m
	case KindWebGLError:
		var m WebGLError
		err = json.Unmarshal(data, &m)
		msg = m
	case KindInitializationComplete:
		msg = InitializationComplete{}
	case KindInitializationFailed:
		var m InitializationFailed
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return Unknown{Type: kind, Raw: append(json.RawMessage(nil), data...)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bridge: decode %s: %w", kind, err)
	}
	return msg, nil
}

// DecodeOutbound parses a host to renderer message.
func DecodeOutbound(data []byte) (Outbound, error) {
	kind, err := peekKind(data)
	if err != nil {
		return nil, err
	}

	switch Kind(kind) {
	case KindUpdateTheme:
		var m UpdateTheme
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("bridge: decode %s: %w", kind, err)
		}
		return m, nil
	case KindLoadGraphData:
		var m LoadGraphData
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("bridge: decode %s: %w", kind, err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("bridge: unknown outbound message %q", kind)
}
