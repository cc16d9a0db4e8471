package regexp

import "fmt"

// Parse parses pattern (the text between the / / delimiters, already
// unescaped of its delimiter) plus its flag letters into a Pattern, or
// returns a syntax error. Supported flags: g (Global), i (IgnoreCase), m
// (Multiline), s (DotAll); any other letter is rejected.
func Parse(pattern, flags string) (*Pattern, error) {
	p := &parser{text: []rune(pattern)}

	root, err := p.parseAlt()
	if err != nil {
		return nil, err
	}

	if p.pos != len(p.text) {
		return nil, p.errorf("unexpected %q", p.text[p.pos])
	}

	pat := &Pattern{Root: root, NumGroups: p.groupCount}

	for _, f := range flags {
		switch f {
		case 'g':
			pat.Global = true
		case 'i':
			pat.IgnoreCase = true
		case 'm':
			pat.Multiline = true
		case 's':
			pat.DotAll = true
		default:
			return nil, fmt.Errorf("regexp: unsupported flag %q", f)
		}
	}

	return pat, nil
}

type parser struct {
	text       []rune
	pos        int
	groupCount int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("regexp: at offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool { return p.pos >= len(p.text) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.text[p.pos]
}

func (p *parser) advance() rune {
	r := p.text[p.pos]
	p.pos++
	return r
}

// parseAlt parses a `|`-separated list of concatenations, left-associative.
func (p *parser) parseAlt() (Node, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}

	for !p.eof() && p.peek() == '|' {
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		left = &Alt{Left: left, Right: right}
	}

	return left, nil
}

// parseConcat parses a sequence of quantified atoms, stopping at `|` or a
// closing `)` (left for the caller to consume).
func (p *parser) parseConcat() (Node, error) {
	var items []Node

	for !p.eof() && p.peek() != '|' && p.peek() != ')' {
		atom, err := p.parseAtom()
		if err != nil {
			return nil, err
		}

		atom, err = p.parseQuantifier(atom)
		if err != nil {
			return nil, err
		}

		items = append(items, atom)
	}

	if len(items) == 1 {
		return items[0], nil
	}

	return &Concat{Items: items}, nil
}

// parseQuantifier wraps atom in Star/Plus/Opt/Repeat if a quantifier
// follows, honoring a trailing `?` as the lazy modifier.
func (p *parser) parseQuantifier(atom Node) (Node, error) {
	if p.eof() {
		return atom, nil
	}

	switch p.peek() {
	case '*':
		p.advance()
		return &Star{Body: atom, Lazy: p.consumeLazy()}, nil
	case '+':
		p.advance()
		return &Plus{Body: atom, Lazy: p.consumeLazy()}, nil
	case '?':
		p.advance()
		return &Opt{Body: atom, Lazy: p.consumeLazy()}, nil
	case '{':
		return p.parseRepeat(atom)
	}

	return atom, nil
}

func (p *parser) consumeLazy() bool {
	if !p.eof() && p.peek() == '?' {
		p.advance()
		return true
	}
	return false
}

// parseRepeat parses `{n}`, `{n,}`, `{n,m}`; a malformed brace body (not
// matching one of those three shapes) is treated as a literal `{`, matching
// common engines' tolerant handling of a stray brace.
func (p *parser) parseRepeat(atom Node) (Node, error) {
	start := p.pos
	p.advance() // '{'

	min, ok := p.parseDigits()
	if !ok {
		p.pos = start
		return atom, nil
	}

	max := min
	if !p.eof() && p.peek() == ',' {
		p.advance()
		if !p.eof() && p.peek() == '}' {
			max = -1
		} else {
			m, ok := p.parseDigits()
			if !ok {
				p.pos = start
				return atom, nil
			}
			max = m
		}
	}

	if p.eof() || p.peek() != '}' {
		p.pos = start
		return atom, nil
	}
	p.advance()

	return &Repeat{Body: atom, Min: min, Max: max, Lazy: p.consumeLazy()}, nil
}

func (p *parser) parseDigits() (int, bool) {
	start := p.pos
	n := 0
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		n = n*10 + int(p.advance()-'0')
	}
	return n, p.pos > start
}

// parseAtom parses one unquantified unit: a group, class, anchor, escape,
// or plain literal rune.
func (p *parser) parseAtom() (Node, error) {
	switch p.peek() {
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseClass()
	case '.':
		p.advance()
		return &AnyChar{}, nil
	case '^':
		p.advance()
		return &AnchorStart{}, nil
	case '$':
		p.advance()
		return &AnchorEnd{}, nil
	case '\\':
		return p.parseEscape()
	}

	return &Literal{Rune: p.advance()}, nil
}

// parseGroup parses `(...)`, `(?:...)`, `(?=...)`, `(?!...)`, `(?<=...)`,
// `(?<!...)`.
func (p *parser) parseGroup() (Node, error) {
	p.advance() // '('

	if !p.eof() && p.peek() == '?' {
		p.advance()
		switch {
		case !p.eof() && p.peek() == ':':
			p.advance()
			return p.parseGroupBody(0)
		case !p.eof() && p.peek() == '=':
			p.advance()
			body, err := p.parseGroupBody(0)
			if err != nil {
				return nil, err
			}
			return &Look{Body: body}, nil
		case !p.eof() && p.peek() == '!':
			p.advance()
			body, err := p.parseGroupBody(0)
			if err != nil {
				return nil, err
			}
			return &Look{Body: body, Negate: true}, nil
		case !p.eof() && p.peek() == '<':
			p.advance()
			switch p.peek() {
			case '=':
				p.advance()
				body, err := p.parseGroupBody(0)
				if err != nil {
					return nil, err
				}
				return &Look{Body: body, Behind: true}, nil
			case '!':
				p.advance()
				body, err := p.parseGroupBody(0)
				if err != nil {
					return nil, err
				}
				return &Look{Body: body, Behind: true, Negate: true}, nil
			}
			return nil, p.errorf("unsupported (?<... group")
		}
		return nil, p.errorf("unsupported (?... group")
	}

	p.groupCount++
	idx := p.groupCount
	return p.parseGroupBody(idx)
}

func (p *parser) parseGroupBody(idx int) (Node, error) {
	body, err := p.parseAlt()
	if err != nil {
		return nil, err
	}

	if p.eof() || p.peek() != ')' {
		return nil, p.errorf("unterminated group")
	}
	p.advance()

	if idx == 0 {
		return body, nil
	}

	return &Group{Body: body, Index: idx}, nil
}

// parseClass parses `[...]`/`[^...]`, expanding `a-z` ranges and folding
// \d/\w/\s shorthands into the item list (each contributes its own explicit
// ranges rather than nesting a ClassKind inside a ClassKind, keeping the
// emitter's class test uniform).
func (p *parser) parseClass() (Node, error) {
	p.advance() // '['

	cls := &CharClass{Kind: ClassExplicit}
	if !p.eof() && p.peek() == '^' {
		p.advance()
		cls.Negate = true
	}

	first := true
	for {
		if p.eof() {
			return nil, p.errorf("unterminated character class")
		}
		if p.peek() == ']' && !first {
			p.advance()
			break
		}
		first = false

		if p.peek() == ']' {
			p.advance()
			cls.Items = append(cls.Items, ClassItem{Lo: ']', Hi: ']'})
			continue
		}

		lo, shorthandItems, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if shorthandItems != nil {
			cls.Items = append(cls.Items, shorthandItems...)
			continue
		}

		if !p.eof() && p.peek() == '-' && p.pos+1 < len(p.text) && p.text[p.pos+1] != ']' {
			p.advance() // '-'
			hi, shorthandHi, err := p.parseClassAtom()
			if err != nil {
				return nil, err
			}
			if shorthandHi != nil {
				return nil, p.errorf("invalid range endpoint")
			}
			cls.Items = append(cls.Items, ClassItem{Lo: lo, Hi: hi})
			continue
		}

		cls.Items = append(cls.Items, ClassItem{Lo: lo, Hi: lo})
	}

	return cls, nil
}

// parseClassAtom returns either a single rune (lo) or, for a \d/\w/\s
// shorthand appearing inside a class, its expanded item list directly.
func (p *parser) parseClassAtom() (rune, []ClassItem, error) {
	if p.peek() != '\\' {
		return p.advance(), nil, nil
	}

	p.advance() // backslash
	if p.eof() {
		return 0, nil, p.errorf("trailing backslash")
	}

	e := p.advance()
	switch e {
	case 'd':
		return 0, digitRanges(), nil
	case 'w':
		return 0, wordRanges(), nil
	case 's':
		return 0, spaceRanges(), nil
	case 'D', 'W', 'S':
		return 0, nil, p.errorf("negated shorthand \\%c is not supported inside a character class", e)
	case 'n':
		return '\n', nil, nil
	case 't':
		return '\t', nil, nil
	case 'r':
		return '\r', nil, nil
	}
	return e, nil, nil
}

// parseEscape parses a `\`-prefixed atom outside a class: shorthand
// classes, anchors, backreferences, and escaped literals.
func (p *parser) parseEscape() (Node, error) {
	p.advance() // backslash
	if p.eof() {
		return nil, p.errorf("trailing backslash")
	}

	e := p.advance()
	switch e {
	case 'd':
		return &CharClass{Kind: ClassDigit}, nil
	case 'D':
		return &CharClass{Kind: ClassDigit, Negate: true}, nil
	case 'w':
		return &CharClass{Kind: ClassWord}, nil
	case 'W':
		return &CharClass{Kind: ClassWord, Negate: true}, nil
	case 's':
		return &CharClass{Kind: ClassSpace}, nil
	case 'S':
		return &CharClass{Kind: ClassSpace, Negate: true}, nil
	case 'b':
		return &WordBoundary{}, nil
	case 'B':
		return &WordBoundary{Negate: true}, nil
	case 'n':
		return &Literal{Rune: '\n'}, nil
	case 't':
		return &Literal{Rune: '\t'}, nil
	case 'r':
		return &Literal{Rune: '\r'}, nil
	}

	if e >= '1' && e <= '9' {
		n := int(e - '0')
		for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
			n = n*10 + int(p.advance()-'0')
		}
		return &Backref{Index: n}, nil
	}

	return &Literal{Rune: e}, nil
}

func digitRanges() []ClassItem {
	return []ClassItem{{Lo: '0', Hi: '9'}}
}

func wordRanges() []ClassItem {
	return []ClassItem{{Lo: 'a', Hi: 'z'}, {Lo: 'A', Hi: 'Z'}, {Lo: '0', Hi: '9'}, {Lo: '_', Hi: '_'}}
}

func spaceRanges() []ClassItem {
	return []ClassItem{{Lo: ' ', Hi: ' '}, {Lo: '\t', Hi: '\t'}, {Lo: '\n', Hi: '\n'}, {Lo: '\r', Hi: '\r'}, {Lo: '\v', Hi: '\v'}, {Lo: '\f', Hi: '\f'}}
}
