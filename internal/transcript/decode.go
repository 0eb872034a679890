package transcript

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/huygnguyen04/at-everyone/internal/model"
)

// ErrInvalidInput is returned when the transcript root is neither a message
// array nor an object holding one under "messages".
var ErrInvalidInput = errors.New("invalid transcript")

// messagesField is the array field read when the root is an object.
const messagesField = "messages"

// DecodeFile opens path and decodes it with Decode.
func DecodeFile(path string) ([]model.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a transcript from r without loading the whole document.
//
// The input is either:
// - a top-level JSON array of messages
// - a top-level object with a "messages" array (other fields are skipped)
//
// Array items that are not objects, or that fail to decode as a message,
// are skipped.
func Decode(r io.Reader) ([]model.Message, error) {
	// Exports are often one huge line; use a larger buffer than default.
	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: read first token: %v", ErrInvalidInput, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("%w: expected JSON array/object, got %T", ErrInvalidInput, tok)
	}

	switch delim {
	case '[':
		msgs, err := decodeArrayFromOpen(dec)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, err
		}
		return msgs, nil
	case '{':
		var msgs []model.Message
		found := false
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: read object key: %v", ErrInvalidInput, err)
			}
			key, _ := keyTok.(string)
			valTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: read value for key %q: %v", ErrInvalidInput, key, err)
			}
			if key != messagesField {
				if err := skipValue(dec, valTok); err != nil {
					return nil, fmt.Errorf("%w: skip key %q: %v", ErrInvalidInput, key, err)
				}
				continue
			}
			if d, ok := valTok.(json.Delim); !ok || d != '[' {
				return nil, fmt.Errorf("%w: %q is not an array", ErrInvalidInput, messagesField)
			}
			found = true
			got, err := decodeArrayFromOpen(dec)
			if err != nil {
				return nil, err
			}
			if err := expectDelim(dec, ']'); err != nil {
				return nil, err
			}
			msgs = append(msgs, got...)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: no %q array in top-level object", ErrInvalidInput, messagesField)
		}
		return msgs, nil
	default:
		return nil, fmt.Errorf("%w: unsupported top-level delimiter %q", ErrInvalidInput, delim)
	}
}

func decodeArrayFromOpen(dec *json.Decoder) ([]model.Message, error) {
	var out []model.Message
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: decode message element: %v", ErrInvalidInput, err)
		}
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var m model.Message
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: read closing %q: %v", ErrInvalidInput, want, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected closing %q, got %v", ErrInvalidInput, want, tok)
	}
	return nil
}

func skipValue(dec *json.Decoder, first json.Token) error {
	d, ok := first.(json.Delim)
	if !ok {
		// Primitive: already fully consumed.
		return nil
	}
	if d != '{' && d != '[' {
		return fmt.Errorf("unexpected delimiter %q", d)
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if dd, ok := tok.(json.Delim); ok {
			switch dd {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
