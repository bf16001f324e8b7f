package message

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrDecode wraps every failure to turn a wire payload back into a Message.
var ErrDecode = errors.New("message: decode")

// Encode serializes m as a JSON object whose values are the base64 form of
// each field's UTF-8 bytes.
func Encode(m Message) (string, error) {
	wire := make(map[string]string, len(m))
	for k, v := range m {
		wire[k] = base64.StdEncoding.EncodeToString([]byte(v))
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("message: encode: %w", err)
	}
	return string(data), nil
}

// EncodeValues stringifies arbitrary values before encoding them.
// Booleans are rendered as "True"/"False" so that adapters keyed on that
// spelling keep recognizing the from_bot flag.
func EncodeValues(values map[string]any) (string, error) {
	m := make(Message, len(values))
	for k, v := range values {
		m[k] = stringify(v)
	}
	return Encode(m)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return val
	case bool:
		if val {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(val)
	}
}

// Decode parses a payload produced by Encode.
func Decode(wire string) (Message, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(wire), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrDecode)
	}

	m := make(Message, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q is not a string", ErrDecode, k)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrDecode, k, err)
		}
		if !utf8.Valid(b) {
			return nil, fmt.Errorf("%w: field %q is not valid UTF-8", ErrDecode, k)
		}
		m[k] = string(b)
	}
	return m, nil
}
