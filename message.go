package wireline

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// NoID is the diagnostic identifier reported for messages that carry no
// usable "id" field.
const NoID = "(no id)"

// ErrEmptyMessage is returned when encoding a message with no payload.
var ErrEmptyMessage = errors.New("empty message payload")

// Message is a single message of the wire protocol: one complete JSON value
// occupying one line of the stream. The transport treats the payload as
// opaque; the only field it ever inspects is an optional "id", and only for
// logging.
type Message struct {
	raw json.RawMessage
}

// NewMessage builds a Message by marshaling the given value.
func NewMessage(v interface{}) (Message, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Message{}, errors.Wrap(err, "encoding message")
	}
	return Message{raw: raw}, nil
}

// DecodeMessage parses one line of input into a Message. The line must be a
// single well-formed JSON value.
func DecodeMessage(line []byte) (Message, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return Message{}, errors.Wrap(err, "decoding message")
	}
	return Message{raw: raw}, nil
}

// Raw returns the message payload as it appears on the wire.
func (m Message) Raw() json.RawMessage {
	return m.raw
}

// Encode returns the wire representation of the message.
func (m Message) Encode() ([]byte, error) {
	if len(m.raw) == 0 {
		return nil, ErrEmptyMessage
	}
	return m.raw, nil
}

// Unmarshal decodes the message payload into the given value.
func (m Message) Unmarshal(v interface{}) error {
	return json.Unmarshal(m.raw, v)
}

// ID extracts a best-effort diagnostic identifier from the message. It never
// fails: a message without an integer or string "id" field reports NoID.
func (m Message) ID() string {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(m.raw, &probe); err != nil || len(probe.ID) == 0 {
		return NoID
	}
	// Unmarshal treats a JSON null as a no-op, so it has to be rejected here.
	if string(probe.ID) == "null" {
		return NoID
	}

	var n int64
	if err := json.Unmarshal(probe.ID, &n); err == nil {
		return strconv.FormatInt(n, 10)
	}
	var s string
	if err := json.Unmarshal(probe.ID, &s); err == nil {
		return s
	}
	return NoID
}
