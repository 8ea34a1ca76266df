package css

import "testing"

func TestTokenQueue_ConsumeCSSIdentifier(t *testing.T) {
	q := newTokenQueue("foo-bar_2 rest")
	id := q.consumeCSSIdentifier()
	if id != "foo-bar_2" {
		t.Fatalf("got %q, want foo-bar_2", id)
	}
	if q.remainder() != " rest" {
		t.Fatalf("remainder = %q, want %q", q.remainder(), " rest")
	}
}

func TestTokenQueue_ConsumeElementSelector(t *testing.T) {
	q := newTokenQueue("svg|* div")
	name := q.consumeElementSelector()
	if name != "svg|*" {
		t.Fatalf("got %q, want svg|*", name)
	}
}

func TestTokenQueue_MatchChomp(t *testing.T) {
	q := newTokenQueue(">abc")
	if !q.matchChomp(">") {
		t.Fatal("expected > to be chomped")
	}
	if q.remainder() != "abc" {
		t.Fatalf("remainder = %q, want abc", q.remainder())
	}
	if q.matchChomp(">") {
		t.Fatal("expected no second > to chomp")
	}
}

func TestTokenQueue_ChompBalanced(t *testing.T) {
	q := newTokenQueue(`2n+1)rest`)
	text, ok := q.chompBalanced('(', ')')
	if !ok {
		t.Fatal("expected balanced chomp to succeed")
	}
	if text != "2n+1" {
		t.Fatalf("got %q, want 2n+1", text)
	}
	if q.remainder() != "rest" {
		t.Fatalf("remainder = %q, want rest", q.remainder())
	}
}

func TestTokenQueue_ChompBalancedNested(t *testing.T) {
	q := newTokenQueue(`:has(a, b))rest`)
	text, ok := q.chompBalanced('(', ')')
	if !ok {
		t.Fatal("expected balanced chomp to succeed")
	}
	if text != ":has(a, b)" {
		t.Fatalf("got %q, want :has(a, b)", text)
	}
}

func TestTokenQueue_ChompBalancedUnterminated(t *testing.T) {
	q := newTokenQueue(`a(b`)
	if _, ok := q.chompBalanced('(', ')'); ok {
		t.Fatal("expected unterminated balanced chomp to fail")
	}
}

func TestTokenQueue_ChompBalancedHonorsQuotes(t *testing.T) {
	// A close-delimiter inside a quoted string doesn't end the run.
	q := newTokenQueue(`"a)b")rest`)
	text, ok := q.chompBalanced('(', ')')
	if !ok {
		t.Fatal("expected chomp to succeed")
	}
	if text != `"a)b"` {
		t.Fatalf("got %q, want the quoted close-paren preserved", text)
	}
	if q.remainder() != "rest" {
		t.Fatalf("remainder = %q, want rest", q.remainder())
	}
}

func TestTokenQueue_ChompBalancedEscapedDelimiter(t *testing.T) {
	q := newTokenQueue(`a\)b)rest`)
	text, ok := q.chompBalanced('(', ')')
	if !ok {
		t.Fatal("expected chomp to succeed")
	}
	if text != `a\)b` {
		t.Fatalf("got %q, want escaped paren preserved literally", text)
	}
}

func TestTokenQueue_ChompTo(t *testing.T) {
	q := newTokenQueue("abc)def")
	text, ok := q.chompTo(")")
	if !ok || text != "abc" {
		t.Fatalf("got (%q, %v), want (abc, true)", text, ok)
	}
	if q.remainder() != "def" {
		t.Fatalf("remainder = %q, want def", q.remainder())
	}
}

func TestTokenQueue_ChompToMissing(t *testing.T) {
	q := newTokenQueue("abcdef")
	if _, ok := q.chompTo(")"); ok {
		t.Fatal("expected chompTo to fail when delimiter is absent")
	}
}

func TestUnescape(t *testing.T) {
	got := unescape(`foo\.bar\\baz`)
	want := `foo.bar\baz`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestUnescape_NoBackslash(t *testing.T) {
	if got := unescape("plain"); got != "plain" {
		t.Fatalf("got %q, want plain", got)
	}
}

func TestTokenQueue_ConsumeWhitespace(t *testing.T) {
	q := newTokenQueue("   \t\nabc")
	if !q.consumeWhitespace() {
		t.Fatal("expected whitespace to be consumed")
	}
	if q.remainder() != "abc" {
		t.Fatalf("remainder = %q, want abc", q.remainder())
	}
	if q.consumeWhitespace() {
		t.Fatal("expected no further whitespace")
	}
}
