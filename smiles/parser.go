package smiles

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is returned (wrapped) for any malformed SMILES string.
var ErrSyntax = errors.New("smiles: syntax error")

type ringOpening struct {
	atom    int
	kind    BondKind
	hasKind bool
}

type parser struct {
	s   string
	pos int
	mol *Molecule

	prev     int
	branches []int
	kind     BondKind
	hasKind  bool
	rings    map[int]ringOpening
	justOpen bool
}

// Parse parses a SMILES string into a Molecule.
func Parse(s string) (*Molecule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrSyntax)
	}
	// Anything after whitespace is a title/comment.
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}

	p := &parser{
		s:     s,
		mol:   &Molecule{},
		prev:  -1,
		rings: make(map[int]ringOpening),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	p.mol.assignImplicitHydrogens()
	return p.mol, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) *Molecule {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d in %q: %s", ErrSyntax, p.pos, p.s, fmt.Sprintf(format, args...))
}

func (p *parser) run() error {
	for p.pos < len(p.s) {
		ch := p.s[p.pos]
		switch {
		case ch == '(':
			if p.prev < 0 {
				return p.errorf("branch without preceding atom")
			}
			if p.hasKind {
				return p.errorf("bond before branch")
			}
			p.branches = append(p.branches, p.prev)
			p.justOpen = true
			p.pos++
			continue
		case ch == ')':
			if len(p.branches) == 0 {
				return p.errorf("unbalanced ')'")
			}
			if p.justOpen {
				return p.errorf("empty branch")
			}
			if p.hasKind {
				return p.errorf("dangling bond")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case ch == '.':
			if p.hasKind {
				return p.errorf("bond before '.'")
			}
			if p.prev < 0 {
				return p.errorf("'.' without preceding atom")
			}
			p.prev = -1
			p.pos++
		case isBondSymbol(ch):
			if p.hasKind {
				return p.errorf("consecutive bond symbols")
			}
			p.kind, p.hasKind = bondKindOf(ch), true
			p.pos++
		case ch == '%' || isDigit(ch):
			if err := p.ringClosure(); err != nil {
				return err
			}
		case ch == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		default:
			a, err := p.organicAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a); err != nil {
				return err
			}
		}
		p.justOpen = false
	}

	switch {
	case len(p.mol.Atoms) == 0:
		return p.errorf("no atoms")
	case len(p.branches) > 0:
		return p.errorf("unclosed branch")
	case len(p.rings) > 0:
		return p.errorf("%d unclosed ring bond(s)", len(p.rings))
	case p.hasKind:
		return p.errorf("dangling bond")
	case p.prev < 0:
		return p.errorf("trailing '.'")
	}
	return nil
}

func (p *parser) attach(a Atom) error {
	idx := p.mol.addAtom(a)
	if p.prev >= 0 {
		kind := p.kind
		if !p.hasKind {
			kind = defaultBond(p.mol.Atoms[p.prev], a)
		}
		p.mol.addBond(p.prev, idx, kind)
	} else if p.hasKind {
		return p.errorf("bond without preceding atom")
	}
	p.prev = idx
	p.hasKind = false
	return nil
}

func (p *parser) ringClosure() error {
	if p.prev < 0 {
		return p.errorf("ring closure without preceding atom")
	}
	var num int
	if p.s[p.pos] == '%' {
		if p.pos+2 >= len(p.s) || !isDigit(p.s[p.pos+1]) || !isDigit(p.s[p.pos+2]) {
			return p.errorf("'%%' must be followed by two digits")
		}
		num = int(p.s[p.pos+1]-'0')*10 + int(p.s[p.pos+2]-'0')
		p.pos += 3
	} else {
		num = int(p.s[p.pos] - '0')
		p.pos++
	}

	open, ok := p.rings[num]
	if !ok {
		p.rings[num] = ringOpening{atom: p.prev, kind: p.kind, hasKind: p.hasKind}
		p.hasKind = false
		return nil
	}
	delete(p.rings, num)

	if open.atom == p.prev {
		return p.errorf("ring bond %d closes on itself", num)
	}
	if _, dup := p.mol.BondBetween(open.atom, p.prev); dup {
		return p.errorf("ring bond %d duplicates an existing bond", num)
	}

	var kind BondKind
	switch {
	case open.hasKind && p.hasKind:
		if open.kind != p.kind {
			return p.errorf("conflicting bond symbols on ring bond %d", num)
		}
		kind = p.kind
	case open.hasKind:
		kind = open.kind
	case p.hasKind:
		kind = p.kind
	default:
		kind = defaultBond(p.mol.Atoms[open.atom], p.mol.Atoms[p.prev])
	}
	p.mol.addBond(open.atom, p.prev, kind)
	p.hasKind = false
	return nil
}

func (p *parser) organicAtom() (Atom, error) {
	rest := p.s[p.pos:]
	for _, sym := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, sym) {
			p.pos += 2
			return Atom{Element: sym, Number: AtomicNumber(sym)}, nil
		}
	}
	ch := rest[:1]
	switch ch {
	case "B", "C", "N", "O", "P", "S", "F", "I":
		p.pos++
		return Atom{Element: ch, Number: AtomicNumber(ch)}, nil
	case "b", "c", "n", "o", "p", "s":
		p.pos++
		el := aromaticSymbols[ch]
		return Atom{Element: el, Number: AtomicNumber(el), Aromatic: true}, nil
	case "*":
		p.pos++
		return Atom{Element: "*"}, nil
	}
	return Atom{}, p.errorf("unexpected character %q", ch)
}

func (p *parser) bracketAtom() (Atom, error) {
	start := p.pos
	end := strings.IndexByte(p.s[start:], ']')
	if end < 0 {
		return Atom{}, p.errorf("unterminated bracket atom")
	}
	body := p.s[start+1 : start+end]
	p.pos = start + end + 1

	a := Atom{Bracket: true}
	i := 0

	for i < len(body) && isDigit(body[i]) {
		a.Isotope = a.Isotope*10 + int(body[i]-'0')
		i++
	}

	sym, n := bracketSymbol(body[i:])
	if n == 0 {
		return Atom{}, p.errorf("bad element in bracket atom [%s]", body)
	}
	i += n
	if el, ok := aromaticSymbols[sym]; ok {
		a.Element, a.Aromatic = el, true
	} else {
		a.Element = sym
	}
	a.Number = AtomicNumber(a.Element)

	if i < len(body) && body[i] == '@' {
		j := i + 1
		if j < len(body) && body[j] == '@' {
			j++
		} else if j+1 < len(body) {
			switch body[j : j+2] {
			case "TH", "AL", "SP", "TB", "OH":
				j += 2
				for j < len(body) && isDigit(body[j]) {
					j++
				}
			}
		}
		a.Chirality = body[i:j]
		i = j
	}

	if i < len(body) && body[i] == 'H' {
		i++
		a.HCount = 1
		if i < len(body) && isDigit(body[i]) {
			a.HCount = int(body[i] - '0')
			i++
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		c := body[i]
		i++
		mag := 1
		switch {
		case i < len(body) && isDigit(body[i]):
			mag = 0
			for i < len(body) && isDigit(body[i]) {
				mag = mag*10 + int(body[i]-'0')
				i++
			}
		default:
			for i < len(body) && body[i] == c {
				mag++
				i++
			}
		}
		a.Charge = sign * mag
	}

	if i < len(body) && body[i] == ':' {
		i++
		if i >= len(body) || !isDigit(body[i]) {
			return Atom{}, p.errorf("bad atom class in [%s]", body)
		}
		for i < len(body) && isDigit(body[i]) {
			a.Class = a.Class*10 + int(body[i]-'0')
			i++
		}
	}

	if i != len(body) {
		return Atom{}, p.errorf("unexpected %q in bracket atom [%s]", body[i:], body)
	}
	return a, nil
}

// bracketSymbol reads an element symbol at the start of s and returns it with
// the number of bytes consumed.
func bracketSymbol(s string) (string, int) {
	if s == "" {
		return "", 0
	}
	if s[0] == '*' {
		return "*", 1
	}
	if len(s) >= 2 {
		if _, ok := aromaticSymbols[s[:2]]; ok {
			return s[:2], 2
		}
		if _, ok := atomicNumbers[s[:2]]; ok {
			return s[:2], 2
		}
	}
	if _, ok := aromaticSymbols[s[:1]]; ok {
		return s[:1], 1
	}
	if _, ok := atomicNumbers[s[:1]]; ok {
		return s[:1], 1
	}
	return "", 0
}

func defaultBond(a, b Atom) BondKind {
	if a.Aromatic && b.Aromatic {
		return Aromatic
	}
	return Single
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isBondSymbol(c byte) bool {
	switch c {
	case '-', '=', '#', '$', ':', '/', '\\':
		return true
	}
	return false
}

func bondKindOf(c byte) BondKind {
	switch c {
	case '=':
		return Double
	case '#':
		return Triple
	case '$':
		return Quadruple
	case ':':
		return Aromatic
	default:
		return Single
	}
}
