package css

import "testing"

// fakeElement is a minimal in-memory css.Element for evaluator unit tests,
// independent of the HTML-specific adapter in htmlnode.go.
type fakeElement struct {
	id       int
	tag      string
	attrs    map[string]string
	parent   *fakeElement
	children []*fakeElement
	text     string
}

func (e *fakeElement) TagName() string { return e.tag }
func (e *fakeElement) ID() string      { v := e.attrs["id"]; return v }
func (e *fakeElement) Classes() []string {
	return splitFields(e.attrs["class"])
}
func (e *fakeElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}
func (e *fakeElement) HasAttr(name string) bool {
	_, ok := e.attrs[name]
	return ok
}
func (e *fakeElement) AttrNames() []string {
	names := make([]string, 0, len(e.attrs))
	for k := range e.attrs {
		names = append(names, k)
	}
	return names
}
func (e *fakeElement) OwnText() string { return e.text }
func (e *fakeElement) AllText() string {
	s := e.text
	for _, c := range e.children {
		s += c.AllText()
	}
	return s
}
func (e *fakeElement) Parent() (Element, bool) {
	if e.parent == nil {
		return nil, false
	}
	return e.parent, true
}
func (e *fakeElement) Children() []Element {
	out := make([]Element, len(e.children))
	for i, c := range e.children {
		out[i] = c
	}
	return out
}
func (e *fakeElement) SiblingsBefore() []Element {
	if e.parent == nil {
		return nil
	}
	var out []Element
	for _, s := range e.parent.children {
		if s == e {
			break
		}
		out = append(out, s)
	}
	return out
}
func (e *fakeElement) PreviousSibling() (Element, bool) {
	before := e.SiblingsBefore()
	if len(before) == 0 {
		return nil, false
	}
	return before[len(before)-1], true
}
func (e *fakeElement) Descendants() []Element {
	var out []Element
	var walk func(n *fakeElement)
	walk = func(n *fakeElement) {
		for _, c := range n.children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(e)
	return out
}
func (e *fakeElement) SiblingIndex() int {
	if e.parent == nil {
		return 1
	}
	for i, s := range e.parent.children {
		if s == e {
			return i + 1
		}
	}
	return 1
}
func (e *fakeElement) SiblingIndexFromEnd() int {
	if e.parent == nil {
		return 1
	}
	for i, s := range e.parent.children {
		if s == e {
			return len(e.parent.children) - i
		}
	}
	return 1
}
func (e *fakeElement) SiblingIndexOfType() int {
	if e.parent == nil {
		return 1
	}
	idx := 0
	for _, s := range e.parent.children {
		if s.tag != e.tag {
			continue
		}
		idx++
		if s == e {
			return idx
		}
	}
	return 1
}
func (e *fakeElement) SiblingIndexOfTypeFromEnd() int {
	if e.parent == nil {
		return 1
	}
	var sameType []*fakeElement
	for _, s := range e.parent.children {
		if s.tag == e.tag {
			sameType = append(sameType, s)
		}
	}
	for i, s := range sameType {
		if s == e {
			return len(sameType) - i
		}
	}
	return 1
}
func (e *fakeElement) IsRoot() bool { return e.parent == nil }
func (e *fakeElement) SameNode(other Element) bool {
	o, ok := other.(*fakeElement)
	return ok && o.id == e.id
}

func splitFields(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}

func newTree() (root, child1, child2, grandchild *fakeElement) {
	root = &fakeElement{id: 1, tag: "div", attrs: map[string]string{"id": "root"}}
	child1 = &fakeElement{id: 2, tag: "p", attrs: map[string]string{"class": "note intro"}, parent: root, text: "hello world"}
	child2 = &fakeElement{id: 3, tag: "span", attrs: map[string]string{"data-x": "1"}, parent: root}
	grandchild = &fakeElement{id: 4, tag: "b", parent: child2, text: "bold"}
	root.children = []*fakeElement{child1, child2}
	child2.children = []*fakeElement{grandchild}
	return
}

func TestEvaluator_Tag(t *testing.T) {
	root, c1, _, _ := newTree()
	if !Tag("p").Matches(root, c1) {
		t.Fatal("expected tag match")
	}
	if Tag("div").Matches(root, c1) {
		t.Fatal("expected tag mismatch")
	}
}

func TestEvaluator_Class(t *testing.T) {
	root, c1, _, _ := newTree()
	if !Class("note").Matches(root, c1) || !Class("intro").Matches(root, c1) {
		t.Fatal("expected both classes to match")
	}
	if Class("missing").Matches(root, c1) {
		t.Fatal("expected no match for absent class")
	}
}

func TestEvaluator_AttrStarting(t *testing.T) {
	root, _, c2, _ := newTree()
	if !AttrStarting("data-").Matches(root, c2) {
		t.Fatal("expected AttrStarting to match data-x")
	}
}

func TestEvaluator_ImmediateParentAndParent(t *testing.T) {
	root, _, c2, gc := newTree()
	if !ImmediateParent(Tag("span")).Matches(root, gc) {
		t.Fatal("expected immediate parent span to match")
	}
	if ImmediateParent(Tag("div")).Matches(root, gc) {
		t.Fatal("grandparent should not satisfy ImmediateParent")
	}
	if !Parent(Tag("div")).Matches(root, gc) {
		t.Fatal("expected ancestor div to satisfy Parent")
	}
	_ = c2
}

func TestEvaluator_PreviousSibling(t *testing.T) {
	root, _, c2, _ := newTree()
	if !ImmediatePreviousSibling(Tag("p")).Matches(root, c2) {
		t.Fatal("expected immediate previous sibling p to match")
	}
}

func TestEvaluator_Has(t *testing.T) {
	root, _, c2, _ := newTree()
	if !Has(Tag("b")).Matches(root, c2) {
		t.Fatal("expected :has(b) to match span with a b descendant")
	}
	if Has(Tag("i")).Matches(root, c2) {
		t.Fatal("expected no match for a descendant that doesn't exist")
	}
}

func TestEvaluator_Not(t *testing.T) {
	root, c1, _, _ := newTree()
	if !Not(Tag("span")).Matches(root, c1) {
		t.Fatal("expected Not(span) to match a p element")
	}
	if Not(Tag("p")).Matches(root, c1) {
		t.Fatal("expected Not(p) to reject a p element")
	}
}

func TestEvaluator_AndOr(t *testing.T) {
	root, c1, _, _ := newTree()
	if !And(Tag("p"), Class("note")).Matches(root, c1) {
		t.Fatal("expected And(p, .note) to match")
	}
	if And(Tag("p"), Class("missing")).Matches(root, c1) {
		t.Fatal("expected And to fail when one predicate fails")
	}
	if !Or(Tag("span"), Class("note")).Matches(root, c1) {
		t.Fatal("expected Or to match when any predicate matches")
	}
}

func TestEvaluator_NthChild(t *testing.T) {
	root, c1, c2, _ := newTree()
	// root has two children: c1 (index 1), c2 (index 2).
	if !NthChild(2, 1).Matches(root, c1) {
		t.Fatal("expected c1 (index 1) to match 2n+1")
	}
	if NthChild(2, 1).Matches(root, c2) {
		t.Fatal("expected c2 (index 2) to not match 2n+1")
	}
}

func TestEvaluator_IsFirstLastOnlyChild(t *testing.T) {
	root, c1, c2, _ := newTree()
	if !IsFirstChild().Matches(root, c1) {
		t.Fatal("expected c1 to be first child")
	}
	if !IsLastChild().Matches(root, c2) {
		t.Fatal("expected c2 to be last child")
	}
	if IsOnlyChild().Matches(root, c1) {
		t.Fatal("root has two children, neither is an only child")
	}
}

func TestEvaluator_IndexPseudosAreZeroBased(t *testing.T) {
	root, c1, c2, _ := newTree()
	if !IndexEq(0).Matches(root, c1) {
		t.Fatal("expected IndexEq(0) to match the first child (0-based)")
	}
	if IndexEq(0).Matches(root, c2) {
		t.Fatal("expected IndexEq(0) to reject the second child")
	}
	if !IndexGt(0).Matches(root, c2) {
		t.Fatal("expected IndexGt(0) to match the second child")
	}
	if !IndexLt(1).Matches(root, c1) {
		t.Fatal("expected IndexLt(1) to match the first child")
	}
}

func TestEvaluator_ContainsText(t *testing.T) {
	root, c1, _, _ := newTree()
	if !ContainsText("HELLO").Matches(root, c1) {
		t.Fatal("expected ContainsText to be case-insensitive")
	}
	if ContainsText("missing").Matches(root, c1) {
		t.Fatal("expected no match for absent text")
	}
}

func TestEvaluator_AllTextVsOwnText(t *testing.T) {
	root, _, c2, _ := newTree()
	if ContainsOwnText("bold").Matches(root, c2) {
		t.Fatal("span's own text is empty; 'bold' belongs to its child b")
	}
	if !ContainsText("bold").Matches(root, c2) {
		t.Fatal("ContainsText should see descendant text")
	}
}

func TestEvaluator_IsRootAndRootPlaceholder(t *testing.T) {
	root, c1, _, _ := newTree()
	if !IsRootPseudo().Matches(root, root) {
		t.Fatal("expected :root to match the document root")
	}
	if IsRootPseudo().Matches(root, c1) {
		t.Fatal("expected :root to reject a non-root element")
	}
	if !RootPlaceholder().Matches(c1, c1) {
		t.Fatal("expected RootPlaceholder to match when candidate equals root argument")
	}
}

func TestMatchesNth(t *testing.T) {
	cases := []struct {
		a, b, index int
		want        bool
	}{
		{2, 1, 1, true},
		{2, 1, 2, false},
		{2, 0, 2, true},
		{2, 0, 1, false},
		{0, 3, 3, true},
		{0, 3, 4, false},
		{3, 0, 3, true},
		{3, 0, 4, false},
	}
	for _, c := range cases {
		if got := matchesNth(c.a, c.b, c.index); got != c.want {
			t.Errorf("matchesNth(%d,%d,%d) = %v, want %v", c.a, c.b, c.index, got, c.want)
		}
	}
}
