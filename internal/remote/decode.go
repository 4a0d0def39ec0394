package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/quotesync/internal/model"
)

// ErrMalformed is wrapped by every structural decode failure.
var ErrMalformed = errors.New("malformed payload")

// Payload is a decoded remote or import document.
type Payload struct {
	Records    []model.Record
	Categories []string

	// Dropped counts elements that failed the record schema.
	Dropped int
}

// Decode reads a JSON payload. Elements that fail the record schema are
// dropped and counted; the error is reserved for payloads that are not an
// array or an object with a "quotes" array.
func Decode(data []byte) (Payload, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	return decodeDocument(doc)
}

// decodeDocument works on a generic document tree, which lets YAML payloads
// share the JSON path.
func decodeDocument(doc any) (Payload, error) {
	var (
		elems []any
		cats  []any
	)
	switch d := doc.(type) {
	case []any:
		elems = d
	case map[string]any:
		q, ok := d["quotes"]
		if !ok {
			return Payload{}, fmt.Errorf("%w: object has no \"quotes\" field", ErrMalformed)
		}
		if elems, ok = q.([]any); !ok {
			return Payload{}, fmt.Errorf("%w: \"quotes\" is %s, want array", ErrMalformed, kindOf(q))
		}
		if c, ok := d["categories"].([]any); ok {
			cats = c
		}
	default:
		return Payload{}, fmt.Errorf("%w: document is %s, want array or object", ErrMalformed, kindOf(doc))
	}

	p := Payload{Records: make([]model.Record, 0, len(elems))}
	for i, elem := range elems {
		r, err := defaultValidator.check(elem)
		if err != nil {
			p.Dropped++
			slog.Debug("dropping invalid remote record", "index", i, "error", err)
			continue
		}
		p.Records = append(p.Records, r)
	}
	for _, c := range cats {
		if s, ok := c.(string); ok && s != "" {
			p.Categories = append(p.Categories, s)
		}
	}
	return p, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, uint64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
