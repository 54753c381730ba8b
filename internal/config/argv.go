package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
)

var (
	errUnterminatedQuote  = errors.New("unterminated quote")
	errUnterminatedEscape = errors.New("unterminated escape sequence")
)

func parseArgv(input string) ([]string, error) {
	return splitCommand(input, os.LookupEnv)
}

// splitCommand tokenizes a simple shell command line. Quotes group, a
// backslash escapes the next rune, $VAR and ${VAR} expand outside single
// quotes, and a leading ~ expands to $HOME. Lines starting with # are
// treated as commented out.
func splitCommand(input string, lookup func(string) (string, bool)) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	lx := &argvLexer{src: []rune(input), lookup: lookup}
	if err := lx.run(); err != nil {
		return nil, fmt.Errorf("%w in command: %q", err, input)
	}
	return lx.argv, nil
}

type argvLexer struct {
	src    []rune
	pos    int
	lookup func(string) (string, bool)

	argv []string
	word strings.Builder
	// open is set once the current word exists, even if empty ("").
	open bool
}

func (lx *argvLexer) run() error {
	for !lx.done() {
		r := lx.next()
		switch {
		case unicode.IsSpace(r):
			lx.flush()
		case r == '\\':
			if lx.done() {
				return errUnterminatedEscape
			}
			lx.emit(lx.next())
		case r == '\'':
			if err := lx.singleQuoted(); err != nil {
				return err
			}
		case r == '"':
			if err := lx.doubleQuoted(); err != nil {
				return err
			}
		case r == '$':
			lx.expand()
		case r == '~' && !lx.open && lx.atWordBoundary():
			if home, ok := lx.lookup("HOME"); ok && home != "" {
				lx.emitString(home)
			} else {
				lx.emit(r)
			}
		default:
			lx.emit(r)
		}
	}
	lx.flush()
	return nil
}

func (lx *argvLexer) singleQuoted() error {
	lx.open = true
	for !lx.done() {
		r := lx.next()
		if r == '\'' {
			return nil
		}
		lx.word.WriteRune(r)
	}
	return errUnterminatedQuote
}

func (lx *argvLexer) doubleQuoted() error {
	lx.open = true
	for !lx.done() {
		r := lx.next()
		switch r {
		case '"':
			return nil
		case '\\':
			if lx.done() {
				return errUnterminatedQuote
			}
			if next := lx.peek(); next == '"' || next == '\\' || next == '$' {
				lx.word.WriteRune(lx.next())
				continue
			}
			lx.word.WriteRune(r)
		case '$':
			lx.expand()
		default:
			lx.word.WriteRune(r)
		}
	}
	return errUnterminatedQuote
}

// expand consumes a variable reference after '$'. Malformed references are
// kept literally.
func (lx *argvLexer) expand() {
	if !lx.done() && lx.peek() == '{' {
		end := -1
		for i := lx.pos + 1; i < len(lx.src); i++ {
			if lx.src[i] == '}' {
				end = i
				break
			}
		}
		name := ""
		if end > 0 {
			name = string(lx.src[lx.pos+1 : end])
		}
		if !isEnvName(name) {
			lx.emit('$')
			return
		}
		lx.pos = end + 1
		lx.lookupAndEmit(name)
		return
	}

	start := lx.pos
	for !lx.done() && isEnvRune(lx.peek()) {
		lx.pos++
	}
	if lx.pos == start {
		lx.emit('$')
		return
	}
	lx.lookupAndEmit(string(lx.src[start:lx.pos]))
}

func (lx *argvLexer) lookupAndEmit(name string) {
	value, _ := lx.lookup(name)
	lx.emitString(value)
}

func (lx *argvLexer) atWordBoundary() bool {
	return lx.done() || lx.peek() == '/' || unicode.IsSpace(lx.peek())
}

func (lx *argvLexer) done() bool { return lx.pos >= len(lx.src) }
func (lx *argvLexer) peek() rune { return lx.src[lx.pos] }

func (lx *argvLexer) next() rune {
	r := lx.src[lx.pos]
	lx.pos++
	return r
}

func (lx *argvLexer) emit(r rune) {
	lx.word.WriteRune(r)
	lx.open = true
}

func (lx *argvLexer) emitString(s string) {
	if s == "" {
		return
	}
	lx.word.WriteString(s)
	lx.open = true
}

func (lx *argvLexer) flush() {
	if !lx.open {
		return
	}
	lx.argv = append(lx.argv, lx.word.String())
	lx.word.Reset()
	lx.open = false
}

func isEnvName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !isEnvRune(r) {
			return false
		}
	}
	return true
}

func isEnvRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
