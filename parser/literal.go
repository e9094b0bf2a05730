package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseLiteral reads an object literal in the loose notation models tend to
// produce: single or double quoted strings, bare keys, trailing commas and
// the True/False/None spellings alongside true/false/null.
//
//	{'city': 'Paris', days: 3, "units": None,}
//
// Integers decode as int, other numbers as float64. Nothing is evaluated.
func ParseLiteral(s string) (map[string]any, error) {
	p := &literalParser{src: []rune(s)}
	p.skipSpace()
	if p.peek() != '{' {
		return nil, fmt.Errorf("%w: expected '{' at offset %d", ErrInvalidLiteral, p.pos)
	}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, fmt.Errorf("%w: trailing input at offset %d", ErrInvalidLiteral, p.pos)
	}
	return v.(map[string]any), nil
}

type literalParser struct {
	src []rune
	pos int
}

func (p *literalParser) eof() bool { return p.pos >= len(p.src) }

func (p *literalParser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *literalParser) fail(what string) error {
	return fmt.Errorf("%w: %s at offset %d", ErrInvalidLiteral, what, p.pos)
}

func (p *literalParser) value() (any, error) {
	p.skipSpace()
	c := p.peek()
	switch {
	case p.eof():
		return nil, p.fail("unexpected end of input")
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"' || c == '\'':
		return p.str()
	case c == '-' || c == '+' || c == '.' || unicode.IsDigit(c):
		return p.number()
	case c == '_' || unicode.IsLetter(c):
		word := p.ident()
		switch word {
		case "true", "True":
			return true, nil
		case "false", "False":
			return false, nil
		case "null", "None", "nil":
			return nil, nil
		}
		return word, nil
	}
	return nil, p.fail(fmt.Sprintf("unexpected character %q", c))
}

func (p *literalParser) object() (map[string]any, error) {
	p.pos++ // {
	out := map[string]any{}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return out, nil
		}

		var key string
		switch c := p.peek(); {
		case c == '"' || c == '\'':
			s, err := p.str()
			if err != nil {
				return nil, err
			}
			key = s
		case c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c):
			key = p.ident()
		default:
			return nil, p.fail("expected key")
		}

		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.fail("expected ':'")
		}
		p.pos++

		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = v

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.fail("expected ',' or '}'")
		}
	}
}

func (p *literalParser) array() ([]any, error) {
	p.pos++ // [
	out := []any{}
	for {
		p.skipSpace()
		if p.peek() == ']' {
			p.pos++
			return out, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, p.fail("expected ',' or ']'")
		}
	}
}

func (p *literalParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		p.pos++
		switch c {
		case quote:
			return sb.String(), nil
		case '\\':
			if p.eof() {
				return "", p.fail("unterminated escape")
			}
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case 'u':
				if p.pos+4 > len(p.src) {
					return "", p.fail("short unicode escape")
				}
				n, err := strconv.ParseUint(string(p.src[p.pos:p.pos+4]), 16, 32)
				if err != nil {
					return "", p.fail("bad unicode escape")
				}
				sb.WriteRune(rune(n))
				p.pos += 4
			default:
				sb.WriteRune(e)
			}
		default:
			sb.WriteRune(c)
		}
	}
	return "", p.fail("unterminated string")
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if unicode.IsDigit(c) || strings.ContainsRune("+-.eE_", c) {
			p.pos++
			continue
		}
		break
	}
	text := strings.ReplaceAll(string(p.src[start:p.pos]), "_", "")
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.Atoi(text); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return nil, p.fail(fmt.Sprintf("bad number %q", text))
	}
	return f, nil
}

func (p *literalParser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.src[p.pos]
		if c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c) {
			p.pos++
			continue
		}
		break
	}
	return string(p.src[start:p.pos])
}
