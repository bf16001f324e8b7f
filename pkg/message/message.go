package message

import (
	"maps"
	"strconv"
)

// Field names used by the chat adapter and the router.
const (
	FieldBody    = "body"
	FieldRoom    = "mucroom"
	FieldNick    = "mucnick"
	FieldFromBot = "from_bot"
	FieldText    = "text"
)

// Message is a flat field-to-value mapping as carried on the wire.
// Keys are case-sensitive.
type Message map[string]string

func (m Message) Body() string { return m[FieldBody] }
func (m Message) Room() string { return m[FieldRoom] }
func (m Message) Nick() string { return m[FieldNick] }
func (m Message) Text() string { return m[FieldText] }

// FromBot reports whether the message was produced by the bot itself.
// Missing or unparsable flags count as false.
func (m Message) FromBot() bool {
	v, ok := m[FieldFromBot]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// Clone returns a shallow copy of m.
func (m Message) Clone() Message {
	if m == nil {
		return Message{}
	}
	return maps.Clone(m)
}

// WithText returns a copy of m carrying text as the reply field.
func (m Message) WithText(text string) Message {
	out := m.Clone()
	out[FieldText] = text
	return out
}
