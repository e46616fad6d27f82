// Package jsonrepair closes JSON documents that were cut off mid-stream by an
// upstream generator, so that a standard decoder can at least attempt them.
package jsonrepair

import (
	"strings"
)

type expect int

const (
	expectKey   expect = iota // object opened or comma seen; key or '}' next
	expectColon               // key read; ':' next
	expectValue               // ':' seen, or array opened or comma seen
	expectMore                // value complete; ',' or closer next
)

type frame struct {
	closer     byte
	state      expect
	afterComma bool
}

// Repair returns a best-effort structurally valid version of candidate.
//
// Well-formed input comes back unchanged apart from surrounding whitespace.
// For a truncated document the dangling string is closed, a half-written
// scalar is completed, a trailing comma is dropped, a key left without a
// value gets null, and every open array or object is closed innermost first.
// Repair never fails; whether the result decodes is up to the caller.
func Repair(candidate string) string {
	text := strings.TrimSpace(candidate)
	if text == "" {
		return text
	}

	var (
		stack    []frame
		inString bool
		isKey    bool
		escaped  bool
		escStart int
		hexLeft  int
		token    strings.Builder
	)

	top := func() *frame {
		if len(stack) == 0 {
			return nil
		}
		return &stack[len(stack)-1]
	}
	valueDone := func() {
		if f := top(); f != nil {
			f.state = expectMore
			f.afterComma = false
		}
	}
	endToken := func() {
		if token.Len() > 0 {
			token.Reset()
			valueDone()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case hexLeft > 0:
				hexLeft--
			case escaped:
				escaped = false
				if c == 'u' {
					hexLeft = 4
				}
			case c == '\\':
				escaped = true
				escStart = i
			case c == '"':
				inString = false
				if isKey {
					if f := top(); f != nil {
						f.state = expectColon
					}
				} else {
					valueDone()
				}
			}
			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r':
			endToken()
		case '"':
			endToken()
			f := top()
			isKey = f != nil && f.closer == '}' && f.state == expectKey
			inString = true
		case '{':
			endToken()
			stack = append(stack, frame{closer: '}', state: expectKey})
		case '[':
			endToken()
			stack = append(stack, frame{closer: ']', state: expectValue})
		case '}', ']':
			endToken()
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
				valueDone()
			}
		case ':':
			endToken()
			if f := top(); f != nil {
				f.state = expectValue
			}
		case ',':
			endToken()
			if f := top(); f != nil {
				if f.closer == '}' {
					f.state = expectKey
				} else {
					f.state = expectValue
				}
				f.afterComma = true
			}
		default:
			token.WriteByte(c)
		}
	}

	if !inString && token.Len() == 0 && len(stack) == 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text) + len(stack) + 8)
	out.WriteString(text)

	if inString {
		if escaped || hexLeft > 0 {
			// drop the half-written escape sequence
			out.Reset()
			out.WriteString(text[:escStart])
		}
		out.WriteByte('"')
		if isKey {
			if f := top(); f != nil {
				f.state = expectColon
			}
		} else {
			valueDone()
		}
	}

	if token.Len() > 0 {
		out.WriteString(completeScalar(token.String()))
		valueDone()
	}

	if f := top(); f != nil {
		switch f.state {
		case expectColon:
			out.WriteString(":null")
		case expectValue:
			if f.closer == '}' {
				out.WriteString("null")
			} else if f.afterComma {
				trimTrailingComma(&out)
			}
		case expectKey:
			if f.afterComma {
				trimTrailingComma(&out)
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		out.WriteByte(stack[i].closer)
	}
	return out.String()
}

// completeScalar returns the suffix that turns a cut-off literal or number
// into a valid one.
func completeScalar(tok string) string {
	for _, lit := range []string{"true", "false", "null"} {
		if strings.HasPrefix(lit, tok) {
			return lit[len(tok):]
		}
	}
	switch tok[len(tok)-1] {
	case '-', '+', '.', 'e', 'E':
		return "0"
	}
	return ""
}

func trimTrailingComma(b *strings.Builder) {
	s := strings.TrimRight(b.String(), " \t\n\r")
	s = strings.TrimSuffix(s, ",")
	b.Reset()
	b.WriteString(s)
}
