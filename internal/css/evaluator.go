package css

import (
	"fmt"
	"regexp"
	"strings"
)

// evalKind tags the closed set of evaluator variants (spec.md §3.2). A tagged
// union with one exhaustive Matches switch is used instead of subclass
// polymorphism (spec.md §9 "Variant dispatch") so the set stays closed and
// dispatch avoids indirection through an interface per node.
type evalKind int

const (
	kindTag evalKind = iota
	kindID
	kindClass
	kindAllElements
	kindIsEmpty
	kindIsRoot // :root pseudo-class — candidate is its document's root

	kindHasAttr
	kindAttrStarting
	kindAttrEq
	kindAttrNe
	kindAttrStartsWith
	kindAttrEndsWith
	kindAttrContains
	kindAttrMatches

	kindIndexLt
	kindIndexGt
	kindIndexEq
	kindIsFirstChild
	kindIsLastChild
	kindIsOnlyChild
	kindIsFirstOfType
	kindIsLastOfType
	kindIsOnlyOfType
	kindNthChild
	kindNthLastChild
	kindNthOfType
	kindNthLastOfType

	kindContainsText
	kindContainsOwnText
	kindMatchesText
	kindMatchesOwnText

	kindParent
	kindImmediateParent
	kindPreviousSibling
	kindImmediatePreviousSibling
	kindHas
	kindNot
	kindRoot // structural placeholder — candidate equals the outer root

	kindAnd
	kindOr
)

// Evaluator is a predicate node tested against a candidate element under a
// root element (spec.md §3.2). Every non-leaf variant owns its children
// exclusively; the tree is immutable once Parse returns.
type Evaluator struct {
	kind evalKind

	str   string // tag name / id / class name / attribute key
	str2  string // attribute value
	regex *regexp.Regexp
	n     int // operand for IndexLt/IndexGt/IndexEq
	a, b  int // nth-* linear form a*n+b

	child    *Evaluator   // Parent/ImmediateParent/.../Has/Not
	children []*Evaluator // And/Or
}

func leaf(k evalKind) *Evaluator { return &Evaluator{kind: k} }

func Tag(name string) *Evaluator         { return &Evaluator{kind: kindTag, str: name} }
func ID(id string) *Evaluator            { return &Evaluator{kind: kindID, str: id} }
func Class(name string) *Evaluator       { return &Evaluator{kind: kindClass, str: name} }
func AllElements() *Evaluator            { return leaf(kindAllElements) }
func IsEmpty() *Evaluator                { return leaf(kindIsEmpty) }
func IsRootPseudo() *Evaluator           { return leaf(kindIsRoot) }
func HasAttr(key string) *Evaluator      { return &Evaluator{kind: kindHasAttr, str: key} }
func AttrStarting(prefix string) *Evaluator {
	return &Evaluator{kind: kindAttrStarting, str: prefix}
}
func AttrEq(k, v string) *Evaluator         { return &Evaluator{kind: kindAttrEq, str: k, str2: v} }
func AttrNe(k, v string) *Evaluator         { return &Evaluator{kind: kindAttrNe, str: k, str2: v} }
func AttrStartsWith(k, v string) *Evaluator { return &Evaluator{kind: kindAttrStartsWith, str: k, str2: v} }
func AttrEndsWith(k, v string) *Evaluator   { return &Evaluator{kind: kindAttrEndsWith, str: k, str2: v} }
func AttrContains(k, v string) *Evaluator   { return &Evaluator{kind: kindAttrContains, str: k, str2: v} }
func AttrMatches(k string, re *regexp.Regexp) *Evaluator {
	return &Evaluator{kind: kindAttrMatches, str: k, regex: re}
}

func IndexLt(n int) *Evaluator { return &Evaluator{kind: kindIndexLt, n: n} }
func IndexGt(n int) *Evaluator { return &Evaluator{kind: kindIndexGt, n: n} }
func IndexEq(n int) *Evaluator { return &Evaluator{kind: kindIndexEq, n: n} }

func IsFirstChild() *Evaluator  { return leaf(kindIsFirstChild) }
func IsLastChild() *Evaluator   { return leaf(kindIsLastChild) }
func IsOnlyChild() *Evaluator   { return leaf(kindIsOnlyChild) }
func IsFirstOfType() *Evaluator { return leaf(kindIsFirstOfType) }
func IsLastOfType() *Evaluator  { return leaf(kindIsLastOfType) }
func IsOnlyOfType() *Evaluator  { return leaf(kindIsOnlyOfType) }

func NthChild(a, b int) *Evaluator     { return &Evaluator{kind: kindNthChild, a: a, b: b} }
func NthLastChild(a, b int) *Evaluator { return &Evaluator{kind: kindNthLastChild, a: a, b: b} }
func NthOfType(a, b int) *Evaluator    { return &Evaluator{kind: kindNthOfType, a: a, b: b} }
func NthLastOfType(a, b int) *Evaluator {
	return &Evaluator{kind: kindNthLastOfType, a: a, b: b}
}

func ContainsText(s string) *Evaluator    { return &Evaluator{kind: kindContainsText, str: s} }
func ContainsOwnText(s string) *Evaluator { return &Evaluator{kind: kindContainsOwnText, str: s} }
func MatchesText(re *regexp.Regexp) *Evaluator {
	return &Evaluator{kind: kindMatchesText, regex: re}
}
func MatchesOwnText(re *regexp.Regexp) *Evaluator {
	return &Evaluator{kind: kindMatchesOwnText, regex: re}
}

func Parent(inner *Evaluator) *Evaluator          { return &Evaluator{kind: kindParent, child: inner} }
func ImmediateParent(inner *Evaluator) *Evaluator { return &Evaluator{kind: kindImmediateParent, child: inner} }
func PreviousSibling(inner *Evaluator) *Evaluator {
	return &Evaluator{kind: kindPreviousSibling, child: inner}
}
func ImmediatePreviousSibling(inner *Evaluator) *Evaluator {
	return &Evaluator{kind: kindImmediatePreviousSibling, child: inner}
}
func Has(inner *Evaluator) *Evaluator { return &Evaluator{kind: kindHas, child: inner} }
func Not(inner *Evaluator) *Evaluator { return &Evaluator{kind: kindNot, child: inner} }
func RootPlaceholder() *Evaluator     { return leaf(kindRoot) }

// And requires every child to match. A single child collapses to itself.
func And(children ...*Evaluator) *Evaluator {
	if len(children) == 1 {
		return children[0]
	}
	return &Evaluator{kind: kindAnd, children: children}
}

// Or requires any child to match. A single child collapses to itself.
func Or(children ...*Evaluator) *Evaluator {
	if len(children) == 1 {
		return children[0]
	}
	return &Evaluator{kind: kindOr, children: children}
}

// IsOr reports whether e is an Or node (used by the parser's combinator
// associativity fix, spec.md §4.2.4 step 3).
func (e *Evaluator) IsOr() bool { return e.kind == kindOr }

// OrChildren returns the disjuncts of an Or node.
func (e *Evaluator) OrChildren() []*Evaluator { return e.children }

// withLastReplaced rebuilds an Or node with its right-most disjunct replaced.
// The tree is small, so rebuilding is the cleaner choice over giving Or
// interior mutability (spec.md §9 "Cyclic references").
func (e *Evaluator) withLastReplaced(replacement *Evaluator) *Evaluator {
	out := make([]*Evaluator, len(e.children))
	copy(out, e.children)
	out[len(out)-1] = replacement
	return &Evaluator{kind: kindOr, children: out}
}

// appendOr returns an Or node with child appended as a new disjunct.
func (e *Evaluator) appendOr(child *Evaluator) *Evaluator {
	out := make([]*Evaluator, len(e.children)+1)
	copy(out, e.children)
	out[len(out)-1] = child
	return &Evaluator{kind: kindOr, children: out}
}

// Matches decides whether candidate matches this evaluator relative to root
// (spec.md §4.4). It is implemented by exhaustive case analysis over the
// closed evalKind set.
func (e *Evaluator) Matches(root, candidate Element) bool {
	switch e.kind {
	case kindTag:
		// Exact comparison: case folding is a document-mode decision made by
		// the Element implementation (spec.md §9 "Case sensitivity"), e.g. by
		// normalizing TagName() at parse time for HTML documents.
		return candidate.TagName() == e.str
	case kindID:
		return candidate.ID() == e.str
	case kindClass:
		for _, c := range candidate.Classes() {
			if c == e.str {
				return true
			}
		}
		return false
	case kindAllElements:
		return true
	case kindIsEmpty:
		return len(candidate.Children()) == 0 && strings.TrimSpace(candidate.OwnText()) == ""
	case kindIsRoot:
		return candidate.IsRoot()

	case kindHasAttr:
		return candidate.HasAttr(e.str)
	case kindAttrStarting:
		for _, a := range candidate.AttrNames() {
			if strings.HasPrefix(a, e.str) {
				return true
			}
		}
		return false
	case kindAttrEq:
		v, ok := candidate.Attr(e.str)
		return ok && v == e.str2
	case kindAttrNe:
		v, ok := candidate.Attr(e.str)
		return !ok || v != e.str2
	case kindAttrStartsWith:
		v, ok := candidate.Attr(e.str)
		return ok && strings.HasPrefix(v, e.str2)
	case kindAttrEndsWith:
		v, ok := candidate.Attr(e.str)
		return ok && strings.HasSuffix(v, e.str2)
	case kindAttrContains:
		v, ok := candidate.Attr(e.str)
		return ok && strings.Contains(v, e.str2)
	case kindAttrMatches:
		v, ok := candidate.Attr(e.str)
		return ok && e.regex.MatchString(v)

	// IndexLt/IndexGt/IndexEq compare against a 0-based sibling index, unlike
	// the 1-based index the nth-* family and IsFirstChild use below — jsoup's
	// :lt()/:gt()/:eq() pseudo-classes are 0-based (spec.md §4.2 table),
	// while its nth-child arithmetic is the CSS-standard 1-based count.
	case kindIndexLt:
		return candidate.SiblingIndex()-1 < e.n
	case kindIndexGt:
		return candidate.SiblingIndex()-1 > e.n
	case kindIndexEq:
		return candidate.SiblingIndex()-1 == e.n
	case kindIsFirstChild:
		return candidate.SiblingIndex() == 1
	case kindIsLastChild:
		return candidate.SiblingIndexFromEnd() == 1
	case kindIsOnlyChild:
		return candidate.SiblingIndex() == 1 && candidate.SiblingIndexFromEnd() == 1
	case kindIsFirstOfType:
		return candidate.SiblingIndexOfType() == 1
	case kindIsLastOfType:
		return candidate.SiblingIndexOfTypeFromEnd() == 1
	case kindIsOnlyOfType:
		return candidate.SiblingIndexOfType() == 1 && candidate.SiblingIndexOfTypeFromEnd() == 1
	case kindNthChild:
		return matchesNth(e.a, e.b, candidate.SiblingIndex())
	case kindNthLastChild:
		return matchesNth(e.a, e.b, candidate.SiblingIndexFromEnd())
	case kindNthOfType:
		return matchesNth(e.a, e.b, candidate.SiblingIndexOfType())
	case kindNthLastOfType:
		return matchesNth(e.a, e.b, candidate.SiblingIndexOfTypeFromEnd())

	case kindContainsText:
		return strings.Contains(strings.ToLower(candidate.AllText()), strings.ToLower(e.str))
	case kindContainsOwnText:
		return strings.Contains(strings.ToLower(candidate.OwnText()), strings.ToLower(e.str))
	case kindMatchesText:
		return e.regex.MatchString(candidate.AllText())
	case kindMatchesOwnText:
		return e.regex.MatchString(candidate.OwnText())

	case kindParent:
		for a, ok := candidate.Parent(); ok; a, ok = a.Parent() {
			if e.child.Matches(root, a) {
				return true
			}
			if sameElement(a, root) {
				break
			}
		}
		return false
	case kindImmediateParent:
		p, ok := candidate.Parent()
		return ok && e.child.Matches(root, p)
	case kindPreviousSibling:
		for _, s := range candidate.SiblingsBefore() {
			if e.child.Matches(root, s) {
				return true
			}
		}
		return false
	case kindImmediatePreviousSibling:
		s, ok := candidate.PreviousSibling()
		return ok && e.child.Matches(root, s)
	case kindHas:
		for _, d := range candidate.Descendants() {
			if e.child.Matches(candidate, d) {
				return true
			}
		}
		return false
	case kindNot:
		return !e.child.Matches(root, candidate)
	case kindRoot:
		return sameElement(candidate, root)

	case kindAnd:
		for _, c := range e.children {
			if !c.Matches(root, candidate) {
				return false
			}
		}
		return true
	case kindOr:
		for _, c := range e.children {
			if c.Matches(root, candidate) {
				return true
			}
		}
		return false
	}
	panic(fmt.Sprintf("css: unhandled evaluator kind %d", e.kind))
}

// sameElement compares two Element values for document identity, deferring
// to the implementation since wrapper values for the same underlying node
// need not be == comparable (e.g. a fresh pointer allocated per accessor
// call).
func sameElement(a, b Element) bool {
	return a.SameNode(b)
}

// matchesNth implements the NthX(a,b) contract: candidate's index i matches
// iff there exists an integer n >= 0 with i = a*n + b (spec.md §3.2, §8.8).
// a == 0 selects index == b only. Indexes are 1-based, so an index below 1
// (an unknown position) never matches.
func matchesNth(a, b, index int) bool {
	if index < 1 {
		return false
	}
	if a == 0 {
		return index == b
	}
	n := index - b
	if n%a != 0 {
		return false
	}
	return n/a >= 0
}
