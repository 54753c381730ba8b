package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// normalizeJSONC blanks out comments and drops trailing commas so the result
// decodes as plain JSON. Byte offsets and line breaks are preserved for error
// positions.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)

	inString, escape := false, false
	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch {
		case inString:
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == '/' && i+1 < len(out) && out[i+1] == '/':
			for i < len(out) && out[i] != '\n' && out[i] != '\r' {
				out[i] = ' '
				i++
			}
		case ch == '/' && i+1 < len(out) && out[i+1] == '*':
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				return "", errors.New("unterminated block comment in JSONC")
			}
			stop := i + 2 + end + 2
			for ; i < stop; i++ {
				if !isLineBreak(out[i]) {
					out[i] = ' '
				}
			}
			i--
		}
	}

	blankTrailingCommas(out)
	return string(out), nil
}

// blankTrailingCommas replaces commas that directly precede } or ] with spaces.
func blankTrailingCommas(out []byte) {
	inString, escape := false, false
	for i, ch := range out {
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			continue
		}
		if ch != ',' {
			continue
		}
		j := i + 1
		for j < len(out) && isJSONWhitespace(out[j]) {
			j++
		}
		if j < len(out) && (out[j] == '}' || out[j] == ']') {
			out[i] = ' '
		}
	}
}

func isLineBreak(ch byte) bool {
	return ch == '\n' || ch == '\r'
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return errors.New("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	prefix := content[:min(int(offset)-1, len(content))]
	line := 1 + strings.Count(prefix, "\n")
	if nl := strings.LastIndexByte(prefix, '\n'); nl >= 0 {
		return line, len(prefix) - nl
	}
	return line, len(prefix) + 1
}
