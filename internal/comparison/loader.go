package comparison

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"PredictLens/internal/model"
)

// LoadFile reads a JSON array of row objects from path. Content that is not a
// JSON array of objects is a *MalformedInputError.
func LoadFile(path string) (model.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.RawTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := Decode(bufio.NewReader(f))
	if err != nil {
		return model.RawTable{}, &MalformedInputError{Source: path, Row: -1, Reason: "invalid JSON", Err: err}
	}
	return raw, nil
}

// Decode reads a JSON array of row objects. Columns are ordered by first
// appearance across rows; numbers are kept as json.Number. Bare NaN and
// Infinity literals, as written by Python's json module, decode as null.
func Decode(r io.Reader) (model.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.RawTable{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(nullNonFinite(data)))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return model.RawTable{}, err
	}

	var raw model.RawTable
	seen := make(map[string]bool)
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return model.RawTable{}, fmt.Errorf("row %d: %w", len(raw.Rows), err)
		}
		row := make(map[string]any)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return model.RawTable{}, fmt.Errorf("row %d: %w", len(raw.Rows), err)
			}
			key, ok := tok.(string)
			if !ok {
				return model.RawTable{}, fmt.Errorf("row %d: unexpected token %v", len(raw.Rows), tok)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return model.RawTable{}, fmt.Errorf("row %d key %q: %w", len(raw.Rows), key, err)
			}
			row[key] = v
			if !seen[key] {
				seen[key] = true
				raw.Columns = append(raw.Columns, key)
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return model.RawTable{}, err
		}
		raw.Rows = append(raw.Rows, row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return model.RawTable{}, err
	}
	return raw, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

var nonFiniteLiterals = [][]byte{[]byte("-Infinity"), []byte("Infinity"), []byte("NaN")}

// nullNonFinite rewrites non-finite number literals outside strings to null.
func nullNonFinite(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString, escaped := false, false
	for i := 0; i < len(data); {
		c := data[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			out = append(out, c)
			i++
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			i++
			continue
		}
		n := 0
		for _, lit := range nonFiniteLiterals {
			if bytes.HasPrefix(data[i:], lit) {
				n = len(lit)
				break
			}
		}
		if n > 0 {
			out = append(out, "null"...)
			i += n
			continue
		}
		out = append(out, c)
		i++
	}
	return out
}
