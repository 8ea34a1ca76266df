package htmlselect

import (
	"golang.org/x/net/html"

	"github.com/cryguy/htmlselect/internal/css"
)

// Selector is a parsed CSS selector, ready to be matched against an
// *html.Node document tree. It wraps the internal/css evaluator tree, the
// one place the selector grammar (spec.md §4.2) and evaluator taxonomy
// (spec.md §3.2) live.
type Selector struct {
	eval *css.Evaluator
}

// ParseSelector parses a CSS-style selector string, supporting element, id,
// class, attribute, structural (:has, :not, combinators) and positional
// (:nth-child and friends) selectors. It returns *css.ParseError on a
// malformed selector.
func ParseSelector(query string) (*Selector, error) {
	eval, err := css.Parse(query)
	if err != nil {
		return nil, err
	}
	return &Selector{eval: eval}, nil
}

// MustParseSelector is like ParseSelector but panics on error; useful for
// selectors known at compile time.
func MustParseSelector(query string) *Selector {
	sel, err := ParseSelector(query)
	if err != nil {
		panic(err)
	}
	return sel
}

// Matches reports whether candidate matches the selector relative to root.
func (s *Selector) Matches(root, candidate *html.Node) bool {
	return s.eval.Matches(css.WrapHTMLNode(root), css.WrapHTMLNode(candidate))
}

// matchesElement evaluates the selector against any css.Element, not just an
// *html.Node. HTMLRewriter uses this to match against a streaming element
// view that never materializes a full tree (htmlrewriter.go).
func (s *Selector) matchesElement(root, candidate css.Element) bool {
	return s.eval.Matches(root, candidate)
}

// documentRoot finds the document's <html> element, walking past the
// html.DocumentNode html.Parse wraps it in.
func documentRoot(doc *html.Node) *html.Node {
	if doc.Type == html.ElementNode {
		return doc
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if r := documentRoot(c); r != nil {
			return r
		}
	}
	return nil
}

// QueryAll parses query and returns every element in doc (in document order)
// that matches it. doc is typically the result of html.Parse.
func QueryAll(doc *html.Node, query string) ([]*html.Node, error) {
	sel, err := ParseSelector(query)
	if err != nil {
		return nil, err
	}
	root := documentRoot(doc)
	if root == nil {
		return nil, nil
	}

	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && sel.Matches(root, n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

// Query is QueryAll, returning only the first match (nil if none).
func Query(doc *html.Node, query string) (*html.Node, error) {
	all, err := QueryAll(doc, query)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}
