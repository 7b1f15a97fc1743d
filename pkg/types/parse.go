package types

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseType reads the canonical rendering of a type: `Int`, `Bool`,
// `(T1, ..., Tn) -> R` or a placeholder `?tN`. The arrow is right-associative.
func ParseType(src string) (Type, error) {
	p := &typeParser{src: src}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("types: unexpected %q at offset %d in %q", p.src[p.pos:], p.pos, src)
	}
	return typ, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) consume(token string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], token) {
		p.pos += len(token)
		return true
	}
	return false
}

func (p *typeParser) expect(token string) error {
	if !p.consume(token) {
		return fmt.Errorf("types: expected %q at offset %d in %q", token, p.pos, p.src)
	}
	return nil
}

func (p *typeParser) parseType() (Type, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("types: unexpected end of type %q", p.src)
	}
	if p.consume("(") {
		var params []Type
		if !p.consume(")") {
			for {
				param, err := p.parseType()
				if err != nil {
					return nil, err
				}
				params = append(params, param)
				if p.consume(",") {
					continue
				}
				if err := p.expect(")"); err != nil {
					return nil, err
				}
				break
			}
		}
		if err := p.expect("->"); err != nil {
			return nil, err
		}
		ret, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return FunctionType{Params: params, Return: ret}, nil
	}
	if p.consume("?t") {
		start := p.pos
		for p.pos < len(p.src) && unicode.IsDigit(rune(p.src[p.pos])) {
			p.pos++
		}
		id, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return nil, fmt.Errorf("types: malformed type variable at offset %d in %q", start, p.src)
		}
		return TypeVar{ID: id}, nil
	}
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(rune(p.src[p.pos])) || unicode.IsDigit(rune(p.src[p.pos]))) {
		p.pos++
	}
	switch name := p.src[start:p.pos]; name {
	case "Int":
		return IntType{}, nil
	case "Bool":
		return BoolType{}, nil
	case "":
		return nil, fmt.Errorf("types: unexpected %q at offset %d in %q", p.src[p.pos:p.pos+1], p.pos, p.src)
	default:
		return nil, fmt.Errorf("types: unknown type name %q", name)
	}
}
