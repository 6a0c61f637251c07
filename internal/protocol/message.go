package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// TypeClassification is the only discriminator with a dedicated
	// message shape; every other value falls through to Generic.
	TypeClassification = "classification"

	// TypeUnknown stands in when a message carries no usable "type".
	TypeUnknown = "Unknown"

	// DefaultConfidence stands in when a classification carries no
	// Confidence field.
	DefaultConfidence = "Unknown"
)

// Message is one decoded frame, either a Classification or a Generic.
type Message interface {
	MessageType() string
}

// Classification is a classifier result: per-species confidences plus
// the overall confidence the sender reported.
type Classification struct {
	Species    Species
	Confidence string
}

func (Classification) MessageType() string { return TypeClassification }

// Generic carries any message whose type has no dedicated shape,
// keeping the full decoded object for downstream inspection.
type Generic struct {
	Type string
	Raw  map[string]any
}

func (g Generic) MessageType() string { return g.Type }

// DecodeMessage parses one frame into the message union. The frame
// must be a JSON object; anything else (including valid JSON that is
// not an object) returns ErrMalformed. Missing fields fall back to
// their documented defaults, so decode never fails on a well-formed
// object.
func DecodeMessage(line []byte) (Message, error) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, ErrEmpty
	}

	var raw map[string]any
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	msgType := TypeUnknown
	if v, ok := raw["type"].(string); ok {
		msgType = v
	}

	if msgType != TypeClassification {
		return Generic{Type: msgType, Raw: raw}, nil
	}

	data, _ := raw["data"].(map[string]any)
	return Classification{
		Species:    decodeSpecies(data["Species"]),
		Confidence: decodeConfidence(data["Confidence"]),
	}, nil
}

func decodeSpecies(v any) Species {
	out := Species{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for animal, conf := range m {
		if f, ok := conf.(float64); ok {
			out[animal] = f
		}
	}
	return out
}

func decodeConfidence(v any) string {
	switch c := v.(type) {
	case nil:
		return DefaultConfidence
	case string:
		return c
	case float64:
		return formatConfidence(c)
	case bool:
		return strconv.FormatBool(c)
	default:
		return fmt.Sprintf("%v", c)
	}
}

// FormatValue renders a decoded JSON value with sorted object keys so
// repeated messages always print identically.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return formatConfidence(t)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, FormatValue(e))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, FormatValue(t[k])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", t)
	}
}
