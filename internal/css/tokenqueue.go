package css

import "strings"

// tokenQueue is a cursor over a selector string, used by the query parser for
// look-ahead tokenization. It owns no state beyond the input and an offset,
// and is created once per parse and discarded when parsing finishes.
type tokenQueue struct {
	s string
	i int
}

func newTokenQueue(s string) *tokenQueue {
	return &tokenQueue{s: s}
}

// isEmpty reports whether the cursor has reached the end of input.
func (q *tokenQueue) isEmpty() bool {
	return q.i >= len(q.s)
}

// remainder is a non-consuming view of the unread input.
func (q *tokenQueue) remainder() string {
	return q.s[q.i:]
}

// peek returns the next unread byte without consuming it. ok is false at EOF.
func (q *tokenQueue) peek() (b byte, ok bool) {
	if q.isEmpty() {
		return 0, false
	}
	return q.s[q.i], true
}

// consume returns and advances past the next byte. ok is false at EOF.
func (q *tokenQueue) consume() (b byte, ok bool) {
	b, ok = q.peek()
	if ok {
		q.i++
	}
	return b, ok
}

// matches is a non-consuming, case-sensitive prefix test.
func (q *tokenQueue) matches(seq string) bool {
	return strings.HasPrefix(q.remainder(), seq)
}

// matchesAny reports whether any of seqs is a prefix of the remainder.
func (q *tokenQueue) matchesAny(seqs ...string) bool {
	for _, s := range seqs {
		if q.matches(s) {
			return true
		}
	}
	return false
}

// matchChomp consumes seq if it is a prefix of the remainder.
func (q *tokenQueue) matchChomp(seq string) bool {
	if !q.matches(seq) {
		return false
	}
	q.i += len(seq)
	return true
}

// matchesWord reports whether the next character can begin or continue a CSS
// identifier: letter, digit, '-', '_', or the namespace separator '|'.
func (q *tokenQueue) matchesWord() bool {
	b, ok := q.peek()
	if !ok {
		return false
	}
	return isIdentChar(b) || b == '|'
}

func isIdentChar(b byte) bool {
	return b == '_' || b == '-' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// consumeWhitespace consumes a run of ASCII whitespace, reporting whether any
// was consumed.
func (q *tokenQueue) consumeWhitespace() bool {
	start := q.i
	for q.i < len(q.s) && isASCIISpace(q.s[q.i]) {
		q.i++
	}
	return q.i > start
}

// consumeCSSIdentifier consumes a run of [A-Za-z0-9_-]. It returns an empty
// string (without advancing) if the first character isn't a valid identifier
// character; the caller is responsible for rejecting an empty result.
func (q *tokenQueue) consumeCSSIdentifier() string {
	start := q.i
	for q.i < len(q.s) && isIdentChar(q.s[q.i]) {
		q.i++
	}
	return q.s[start:q.i]
}

// consumeElementSelector is like consumeCSSIdentifier but also permits '|'
// (namespace separator) and '*' inside the run, for tag names like "svg|*".
func (q *tokenQueue) consumeElementSelector() string {
	start := q.i
	for q.i < len(q.s) && (isIdentChar(q.s[q.i]) || q.s[q.i] == '|' || q.s[q.i] == '*') {
		q.i++
	}
	return q.s[start:q.i]
}

// consumeTo consumes up to (not including) seq, returning the consumed text.
// If seq never occurs, it consumes to EOF.
func (q *tokenQueue) consumeTo(seq string) string {
	idx := strings.Index(q.remainder(), seq)
	if idx < 0 {
		rest := q.remainder()
		q.i = len(q.s)
		return rest
	}
	out := q.s[q.i : q.i+idx]
	q.i += idx
	return out
}

// chompTo consumes up to seq, then consumes seq itself, returning the text
// before seq. ok is false if seq was never found (queue is left at EOF).
func (q *tokenQueue) chompTo(seq string) (text string, ok bool) {
	idx := strings.Index(q.remainder(), seq)
	if idx < 0 {
		q.i = len(q.s)
		return "", false
	}
	text = q.s[q.i : q.i+idx]
	q.i += idx + len(seq)
	return text, true
}

// chompBalanced consumes characters tracking nesting depth of open/close,
// honoring single- and double-quoted string delimiters (no balancing inside
// strings), until depth returns to zero. The cursor is expected to be
// immediately after the opening delimiter. It returns the inner text
// (excluding the outer delimiters) and false if EOF is reached first.
func (q *tokenQueue) chompBalanced(open, close byte) (text string, ok bool) {
	start := q.i
	depth := 1
	var quote byte
	for q.i < len(q.s) {
		c := q.s[q.i]
		switch {
		case quote != 0:
			if c == '\\' && q.i+1 < len(q.s) {
				q.i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '\\' && q.i+1 < len(q.s):
			q.i++
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				text = q.s[start:q.i]
				q.i++ // consume the closing delimiter
				return text, true
			}
		}
		q.i++
	}
	q.i = start
	return "", false
}

// unescape replaces "\X" with "X" for any character X.
func unescape(text string) string {
	if !strings.Contains(text, "\\") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' && i+1 < len(text) {
			i++
			b.WriteByte(text[i])
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}
