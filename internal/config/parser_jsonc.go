package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// decodeJSONC decodes a JSON-with-comments config. Comments and trailing
// commas are blanked in place, so decoder offsets still point into content.
func decodeJSONC(content string) (fileConfig, error) {
	src, err := blankJSONC([]byte(content))
	if err != nil {
		return fileConfig{}, err
	}

	decoder := json.NewDecoder(bytes.NewReader(src))
	decoder.DisallowUnknownFields()

	var payload fileConfig
	if err := decoder.Decode(&payload); err != nil {
		return fileConfig{}, locateJSONError(src, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return fileConfig{}, locateJSONError(src, err)
	}
	return payload, nil
}

// blankJSONC returns a copy of src with comments and trailing commas replaced
// by spaces. Newlines are kept, and the result has the same length as src.
func blankJSONC(src []byte) ([]byte, error) {
	buf := bytes.Clone(src)
	if err := blankComments(buf); err != nil {
		return nil, err
	}
	blankTrailingCommas(buf)
	return buf, nil
}

func blankComments(buf []byte) error {
	for i := 0; i < len(buf); {
		switch {
		case buf[i] == '"':
			i = skipString(buf, i)
		case bytes.HasPrefix(buf[i:], []byte("//")):
			for i < len(buf) && buf[i] != '\n' && buf[i] != '\r' {
				buf[i] = ' '
				i++
			}
		case bytes.HasPrefix(buf[i:], []byte("/*")):
			end := bytes.Index(buf[i+2:], []byte("*/"))
			if end < 0 {
				line, col := lineCol(buf, int64(i+1))
				return fmt.Errorf("line %d column %d: unterminated block comment", line, col)
			}
			stop := i + 2 + end + 2
			for ; i < stop; i++ {
				if buf[i] != '\n' && buf[i] != '\r' {
					buf[i] = ' '
				}
			}
		default:
			i++
		}
	}
	return nil
}

func blankTrailingCommas(buf []byte) {
	comma := -1
	for i := 0; i < len(buf); {
		switch c := buf[i]; {
		case c == '"':
			comma = -1
			i = skipString(buf, i)
			continue
		case c == ',':
			comma = i
		case c == '}' || c == ']':
			if comma >= 0 {
				buf[comma] = ' '
			}
			comma = -1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			comma = -1
		}
		i++
	}
}

// skipString returns the index just past the string literal starting at
// buf[start]. An unterminated string runs to the end of buf.
func skipString(buf []byte, start int) int {
	for i := start + 1; i < len(buf); i++ {
		switch buf[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(buf)
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func locateJSONError(src []byte, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := lineCol(src, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

// lineCol maps a 1-based byte offset, as reported by encoding/json, to a
// line and column.
func lineCol(src []byte, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	prefix := src[:min(int(offset), len(src))]
	if len(prefix) > 0 {
		prefix = prefix[:len(prefix)-1]
	}
	line := bytes.Count(prefix, []byte("\n")) + 1
	col := len(prefix) - (bytes.LastIndexByte(prefix, '\n') + 1) + 1
	return line, col
}
