// Package css implements the CSS selector query parser: a tokenizer, an
// evaluator AST, and the grammar that builds a semantically correct
// evaluator tree from a selector string. Evaluation against a live document
// is specified only as the Element capability contract (dom.go); this file
// is the one concrete, external-collaborator implementation of that
// contract, built on golang.org/x/net/html — the HTML tokenizer/tree-builder
// spec.md §1 treats as outside the parser's scope.
package css

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLElement adapts an *html.Node (an html.ElementNode) to the Element
// capability contract. Tag and attribute names are compared as x/net/html
// already normalizes them (lowercased) when parsing HTML, so Evaluator.Matches
// can compare them verbatim (spec.md §9 "Case sensitivity").
type HTMLElement struct {
	node *html.Node
}

// WrapHTMLNode returns an Element view of n. n must be an html.ElementNode.
func WrapHTMLNode(n *html.Node) *HTMLElement {
	return &HTMLElement{node: n}
}

// Node returns the underlying *html.Node.
func (e *HTMLElement) Node() *html.Node { return e.node }

func (e *HTMLElement) TagName() string { return e.node.Data }

func (e *HTMLElement) ID() string {
	v, _ := e.Attr("id")
	return v
}

func (e *HTMLElement) Classes() []string {
	v, ok := e.Attr("class")
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return strings.Fields(v)
}

func (e *HTMLElement) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func (e *HTMLElement) HasAttr(name string) bool {
	_, ok := e.Attr(name)
	return ok
}

func (e *HTMLElement) AttrNames() []string {
	names := make([]string, 0, len(e.node.Attr))
	for _, a := range e.node.Attr {
		names = append(names, a.Key)
	}
	return names
}

func (e *HTMLElement) OwnText() string {
	var b strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func (e *HTMLElement) AllText() string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(e.node)
	return b.String()
}

func (e *HTMLElement) Parent() (Element, bool) {
	p := elementAncestor(e.node)
	if p == nil {
		return nil, false
	}
	return WrapHTMLNode(p), true
}

// elementAncestor returns n's nearest ElementNode parent, skipping document
// and fragment wrapper nodes.
func elementAncestor(n *html.Node) *html.Node {
	p := n.Parent
	for p != nil && p.Type != html.ElementNode {
		p = p.Parent
	}
	return p
}

func (e *HTMLElement) Children() []Element {
	var out []Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, WrapHTMLNode(c))
		}
	}
	return out
}

func elementSiblings(n *html.Node) []*html.Node {
	p := n.Parent
	if p == nil {
		return nil
	}
	var out []*html.Node
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

func (e *HTMLElement) SiblingsBefore() []Element {
	sibs := elementSiblings(e.node)
	var out []Element
	for _, s := range sibs {
		if s == e.node {
			break
		}
		out = append(out, WrapHTMLNode(s))
	}
	return out
}

func (e *HTMLElement) PreviousSibling() (Element, bool) {
	before := e.SiblingsBefore()
	if len(before) == 0 {
		return nil, false
	}
	return before[len(before)-1], true
}

func (e *HTMLElement) Descendants() []Element {
	var out []Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				out = append(out, WrapHTMLNode(c))
				walk(c)
			}
		}
	}
	walk(e.node)
	return out
}

func (e *HTMLElement) SiblingIndex() int {
	sibs := elementSiblings(e.node)
	for i, s := range sibs {
		if s == e.node {
			return i + 1
		}
	}
	return 1
}

func (e *HTMLElement) SiblingIndexFromEnd() int {
	sibs := elementSiblings(e.node)
	for i, s := range sibs {
		if s == e.node {
			return len(sibs) - i
		}
	}
	return 1
}

func (e *HTMLElement) SiblingIndexOfType() int {
	sibs := elementSiblings(e.node)
	idx := 0
	for _, s := range sibs {
		if s.Data != e.node.Data {
			continue
		}
		idx++
		if s == e.node {
			return idx
		}
	}
	return 1
}

func (e *HTMLElement) SiblingIndexOfTypeFromEnd() int {
	sibs := elementSiblings(e.node)
	var sameType []*html.Node
	for _, s := range sibs {
		if s.Data == e.node.Data {
			sameType = append(sameType, s)
		}
	}
	for i, s := range sameType {
		if s == e.node {
			return len(sameType) - i
		}
	}
	return 1
}

func (e *HTMLElement) IsRoot() bool {
	return elementAncestor(e.node) == nil
}

func (e *HTMLElement) SameNode(other Element) bool {
	o, ok := other.(*HTMLElement)
	return ok && o.node == e.node
}
