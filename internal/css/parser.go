package css

import (
	"regexp"
	"strconv"
	"strings"
)

// maxSelectorRecursionDepth bounds recursion through nested sub-queries
// (":has(:has(:has(...)))", spec.md §5) so a pathological selector fails
// with a parse error instead of exhausting the goroutine stack.
const maxSelectorRecursionDepth = 256

const combinatorChars = ",>+~"

// Parse converts a CSS-style selector string into an evaluator tree
// (spec.md §4.2, §6.1). It is the single entry point; sub-queries recurse
// back through it.
func Parse(query string) (*Evaluator, error) {
	return parseDepth(query, 0)
}

func parseDepth(query string, depth int) (*Evaluator, error) {
	if depth > maxSelectorRecursionDepth {
		return nil, &ParseError{Query: query, Msg: "selector nesting too deep"}
	}
	p := &parser{q: newTokenQueue(query), query: query, depth: depth}
	return p.parse()
}

type parser struct {
	q     *tokenQueue
	query string
	evals []*Evaluator
	depth int
}

func (p *parser) errf(format string, args ...any) *ParseError {
	return p.q.errorf(p.query, format, args...)
}

func (p *parser) parse() (*Evaluator, error) {
	p.q.consumeWhitespace()

	if p.q.matchesAny(combinatorSeqs()...) {
		p.evals = append(p.evals, RootPlaceholder())
		c, _ := p.q.consume()
		if err := p.combinator(c); err != nil {
			return nil, err
		}
	} else {
		e, err := p.findElements()
		if err != nil {
			return nil, err
		}
		p.evals = append(p.evals, e)
	}

	for !p.q.isEmpty() {
		sawWhite := p.q.consumeWhitespace()
		if p.q.isEmpty() {
			break
		}
		if p.q.matchesAny(combinatorSeqs()...) {
			c, _ := p.q.consume()
			if err := p.combinator(c); err != nil {
				return nil, err
			}
		} else if sawWhite {
			if err := p.combinator(' '); err != nil {
				return nil, err
			}
		} else {
			e, err := p.findElements()
			if err != nil {
				return nil, err
			}
			p.evals = append(p.evals, e)
		}
	}

	if len(p.evals) == 1 {
		return p.evals[0], nil
	}
	return And(p.evals...), nil
}

func combinatorSeqs() []string {
	return []string{",", ">", "+", "~"}
}

// combinator implements spec.md §4.2.4: fold the accumulated evaluator list
// together with a newly-parsed right-hand sub-query under combinator c,
// including the Or-rightmost-disjunct splice that makes "a, b > c" parse as
// "a, (b > c)" instead of "(a, b) > c".
func (p *parser) combinator(c byte) error {
	p.q.consumeWhitespace()
	subQuery := p.consumeSubQuery()
	newEval, err := parseDepth(subQuery, p.depth+1)
	if err != nil {
		return err
	}

	var rootEval, currentEval *Evaluator
	replaceRightMost := false

	if len(p.evals) == 1 {
		rootEval = p.evals[0]
		currentEval = rootEval
		if currentEval.IsOr() && c != ',' {
			children := currentEval.OrChildren()
			currentEval = children[len(children)-1]
			replaceRightMost = true
		}
	} else {
		rootEval = And(p.evals...)
		currentEval = rootEval
	}
	p.evals = nil // rootEval may share the old slice; never write into it

	switch c {
	case '>':
		newEval = And(newEval, ImmediateParent(currentEval))
	case ' ':
		newEval = And(newEval, Parent(currentEval))
	case '+':
		newEval = And(newEval, ImmediatePreviousSibling(currentEval))
	case '~':
		newEval = And(newEval, PreviousSibling(currentEval))
	case ',':
		if currentEval.IsOr() {
			newEval = currentEval.appendOr(newEval)
		} else {
			newEval = Or(currentEval, newEval)
		}
	default:
		return p.errf("unknown combinator %q", string(c))
	}

	if replaceRightMost {
		rootEval = rootEval.withLastReplaced(newEval)
	} else {
		rootEval = newEval
	}
	p.evals = append(p.evals, rootEval)
	return nil
}

// consumeSubQuery reads until a top-level combinator character or EOF,
// preserving balanced "(...)" and "[...]" as opaque runs (spec.md §4.2.3).
// A backslash outside those runs does not escape a combinator character.
// It deliberately does not treat quoted strings as opaque — a combinator
// character inside a string splits the sub-query. That is a latent bug
// inherited unchanged (spec.md §9).
func (p *parser) consumeSubQuery() string {
	var sb strings.Builder
	for !p.q.isEmpty() {
		if p.q.matches("(") {
			p.q.consume()
			inner, _ := p.q.chompBalanced('(', ')')
			sb.WriteByte('(')
			sb.WriteString(inner)
			sb.WriteByte(')')
		} else if p.q.matches("[") {
			p.q.consume()
			inner, _ := p.q.chompBalanced('[', ']')
			sb.WriteByte('[')
			sb.WriteString(inner)
			sb.WriteByte(']')
		} else if p.q.matchesAny(combinatorSeqs()...) {
			break
		} else {
			b, _ := p.q.consume()
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// findElements dispatches one atomic selector by prefix (spec.md §4.2 table).
func (p *parser) findElements() (*Evaluator, error) {
	switch {
	case p.q.matchChomp("#"):
		return p.byID()
	case p.q.matchChomp("."):
		return p.byClass()
	case p.q.matchesWord() || p.q.matches("*|"):
		return p.byTag()
	case p.q.matches("["):
		return p.byAttribute()
	case p.q.matchChomp("*"):
		return AllElements(), nil
	case p.q.matchChomp(":lt("):
		return p.indexPseudo(IndexLt)
	case p.q.matchChomp(":gt("):
		return p.indexPseudo(IndexGt)
	case p.q.matchChomp(":eq("):
		return p.indexPseudo(IndexEq)
	case p.q.matches(":has("):
		return p.has()
	case p.q.matches(":containsOwn("):
		return p.contains(true)
	case p.q.matches(":contains("):
		return p.contains(false)
	case p.q.matches(":matchesOwn("):
		return p.matchesPseudo(true)
	case p.q.matches(":matches("):
		return p.matchesPseudo(false)
	case p.q.matches(":not("):
		return p.not()
	case p.q.matchChomp(":nth-last-child("):
		return p.cssNthChild(true, false)
	case p.q.matchChomp(":nth-last-of-type("):
		return p.cssNthChild(true, true)
	case p.q.matchChomp(":nth-of-type("):
		return p.cssNthChild(false, true)
	case p.q.matchChomp(":nth-child("):
		return p.cssNthChild(false, false)
	case p.q.matchChomp(":first-of-type"):
		return IsFirstOfType(), nil
	case p.q.matchChomp(":last-of-type"):
		return IsLastOfType(), nil
	case p.q.matchChomp(":only-of-type"):
		return IsOnlyOfType(), nil
	case p.q.matchChomp(":first-child"):
		return IsFirstChild(), nil
	case p.q.matchChomp(":last-child"):
		return IsLastChild(), nil
	case p.q.matchChomp(":only-child"):
		return IsOnlyChild(), nil
	case p.q.matchChomp(":empty"):
		return IsEmpty(), nil
	case p.q.matchChomp(":root"):
		return IsRootPseudo(), nil
	default:
		rem := p.q.remainder()
		tok := rem
		if len(tok) > 20 {
			tok = tok[:20]
		}
		return nil, p.errf("could not parse query %q: unexpected token %q", p.query, tok)
	}
}

func (p *parser) byID() (*Evaluator, error) {
	id := p.q.consumeCSSIdentifier()
	if id == "" {
		return nil, p.errf("expected identifier after '#'")
	}
	return ID(id), nil
}

func (p *parser) byClass() (*Evaluator, error) {
	name := p.q.consumeCSSIdentifier()
	if name == "" {
		return nil, p.errf("expected identifier after '.'")
	}
	return Class(name), nil
}

func (p *parser) byTag() (*Evaluator, error) {
	name := p.q.consumeElementSelector()
	if name == "" {
		return nil, p.errf("expected a tag name")
	}
	if strings.Contains(name, "|") {
		name = strings.ReplaceAll(name, "|", ":")
	}
	return Tag(name), nil
}

const attrComparators = "= != ^= $= *= ~="

func (p *parser) byAttribute() (*Evaluator, error) {
	p.q.consume() // '['
	inner, ok := p.q.chompBalanced('[', ']')
	if !ok {
		return nil, p.errf("unterminated attribute selector")
	}
	cq := newTokenQueue(inner)
	cq.consumeWhitespace()

	key := consumeAttrKey(cq)
	if key == "" {
		return nil, p.errf("expected attribute name in %q", inner)
	}
	cq.consumeWhitespace()

	if cq.isEmpty() {
		if strings.HasPrefix(key, "^") {
			return AttrStarting(key[1:]), nil
		}
		return HasAttr(key), nil
	}

	var op string
	for _, c := range []string{"!=", "^=", "$=", "*=", "~=", "="} {
		if cq.matchChomp(c) {
			op = c
			break
		}
	}
	if op == "" {
		return nil, p.errf("unknown attribute comparator in %q", inner)
	}
	cq.consumeWhitespace()
	value := attrValue(cq.remainder())

	switch op {
	case "=":
		return AttrEq(key, value), nil
	case "!=":
		return AttrNe(key, value), nil
	case "^=":
		return AttrStartsWith(key, value), nil
	case "$=":
		return AttrEndsWith(key, value), nil
	case "*=":
		return AttrContains(key, value), nil
	case "~=":
		re, err := regexp.Compile(value)
		if err != nil {
			return nil, p.errf("invalid regex %q: %v", value, err)
		}
		return AttrMatches(key, re), nil
	}
	panic("unreachable")
}

// consumeAttrKey reads the attribute key up to the first comparator.
func consumeAttrKey(q *tokenQueue) string {
	start := q.i
	for !q.isEmpty() {
		if q.matchesAny("=", "!=", "^=", "$=", "*=", "~=") {
			break
		}
		q.consume()
	}
	return strings.TrimSpace(q.s[start:q.i])
}

// attrValue strips a single layer of matching quotes and unescapes the rest,
// matching how real-world attribute selectors like [href="foo\"bar"] are
// written even though spec.md §4.2.1 doesn't spell out quote handling.
func attrValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 {
		if (raw[0] == '"' && raw[len(raw)-1] == '"') || (raw[0] == '\'' && raw[len(raw)-1] == '\'') {
			raw = raw[1 : len(raw)-1]
		}
	}
	return unescape(raw)
}

func (p *parser) indexPseudo(ctor func(int) *Evaluator) (*Evaluator, error) {
	arg, ok := p.q.chompTo(")")
	if !ok {
		return nil, p.errf("unterminated index pseudo-class")
	}
	arg = strings.TrimSpace(arg)
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "+"))
	if err != nil {
		return nil, p.errf("index argument %q must be an integer", arg)
	}
	return ctor(n), nil
}

func (p *parser) has() (*Evaluator, error) {
	p.q.matchChomp(":has(")
	sub, ok := p.q.chompBalanced('(', ')')
	if !ok {
		return nil, p.errf("unterminated :has(...)")
	}
	if strings.TrimSpace(sub) == "" {
		return nil, p.errf(":has() requires an argument")
	}
	inner, err := parseDepth(sub, p.depth+1)
	if err != nil {
		return nil, err
	}
	return Has(inner), nil
}

func (p *parser) not() (*Evaluator, error) {
	p.q.matchChomp(":not(")
	sub, ok := p.q.chompBalanced('(', ')')
	if !ok {
		return nil, p.errf("unterminated :not(...)")
	}
	if strings.TrimSpace(sub) == "" {
		return nil, p.errf(":not() requires an argument")
	}
	inner, err := parseDepth(sub, p.depth+1)
	if err != nil {
		return nil, err
	}
	return Not(inner), nil
}

func (p *parser) contains(own bool) (*Evaluator, error) {
	if own {
		p.q.matchChomp(":containsOwn(")
	} else {
		p.q.matchChomp(":contains(")
	}
	sub, ok := p.q.chompBalanced('(', ')')
	if !ok {
		return nil, p.errf("unterminated :contains(...)")
	}
	text := unescape(sub)
	if strings.TrimSpace(text) == "" {
		return nil, p.errf(":contains() requires a non-empty argument")
	}
	if own {
		return ContainsOwnText(text), nil
	}
	return ContainsText(text), nil
}

func (p *parser) matchesPseudo(own bool) (*Evaluator, error) {
	if own {
		p.q.matchChomp(":matchesOwn(")
	} else {
		p.q.matchChomp(":matches(")
	}
	sub, ok := p.q.chompBalanced('(', ')')
	if !ok {
		return nil, p.errf("unterminated :matches(...)")
	}
	if strings.TrimSpace(sub) == "" {
		return nil, p.errf(":matches() requires a non-empty argument")
	}
	re, err := regexp.Compile(sub)
	if err != nil {
		return nil, p.errf("invalid regex %q: %v", sub, err)
	}
	if own {
		return MatchesOwnText(re), nil
	}
	return MatchesText(re), nil
}

var (
	nthABPattern = regexp.MustCompile(`^([+-]?\d*)n(\s*[+-]\s*\d+)?$`)
	nthBPattern  = regexp.MustCompile(`^[+-]?\d+$`)
)

// parseNthArgument implements spec.md §4.2.2.
func parseNthArgument(raw string) (a, b int, err error) {
	arg := strings.ToLower(strings.TrimSpace(raw))
	switch arg {
	case "odd":
		return 2, 1, nil
	case "even":
		return 2, 0, nil
	}
	if m := nthABPattern.FindStringSubmatch(arg); m != nil {
		aStr := strings.TrimPrefix(m[1], "+")
		switch aStr {
		case "", "+":
			a = 1
		case "-":
			a = -1
		default:
			a, err = strconv.Atoi(aStr)
			if err != nil {
				return 0, 0, err
			}
		}
		if m[2] != "" {
			bStr := strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(m[2]), " ", ""), "+")
			b, err = strconv.Atoi(bStr)
			if err != nil {
				return 0, 0, err
			}
		}
		return a, b, nil
	}
	if nthBPattern.MatchString(arg) {
		n, err := strconv.Atoi(strings.TrimPrefix(arg, "+"))
		if err != nil {
			return 0, 0, err
		}
		return 0, n, nil
	}
	return 0, 0, &ParseError{Msg: "could not parse nth-index argument " + strconv.Quote(raw)}
}

func (p *parser) cssNthChild(backwards, ofType bool) (*Evaluator, error) {
	raw, ok := p.q.chompTo(")")
	if !ok {
		return nil, p.errf("unterminated nth-* pseudo-class")
	}
	a, b, err := parseNthArgument(raw)
	if err != nil {
		return nil, p.errf("%v", err)
	}
	switch {
	case ofType && backwards:
		return NthLastOfType(a, b), nil
	case ofType:
		return NthOfType(a, b), nil
	case backwards:
		return NthLastChild(a, b), nil
	default:
		return NthChild(a, b), nil
	}
}
