package htmlselect

import (
	"strings"

	"github.com/cryguy/htmlselect/internal/css"
)

// streamingElement implements css.Element over the forward-only ancestor and
// sibling context HTMLRewriter can reconstruct while tokenizing. It never
// sees content that has not streamed in yet, so anything that needs the full
// subtree or the final sibling count — Descendants, own/all text, and the
// *FromEnd counters — reports an empty or zero value. Callers depending on
// those must use Query/QueryAll against a parsed tree instead.
type streamingElement struct {
	id     int64
	tag    string
	attrs  map[string]string
	parent *streamingElement
	before []*streamingElement // earlier siblings at this depth, in document order
}

var _ css.Element = (*streamingElement)(nil)

func (s *streamingElement) TagName() string { return s.tag }

func (s *streamingElement) ID() string { return s.attrs["id"] }

func (s *streamingElement) Classes() []string {
	v, ok := s.attrs["class"]
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	return strings.Fields(v)
}

func (s *streamingElement) Attr(name string) (string, bool) {
	v, ok := s.attrs[name]
	return v, ok
}

func (s *streamingElement) HasAttr(name string) bool {
	_, ok := s.attrs[name]
	return ok
}

func (s *streamingElement) AttrNames() []string {
	names := make([]string, 0, len(s.attrs))
	for k := range s.attrs {
		names = append(names, k)
	}
	return names
}

// OwnText and AllText are unavailable while streaming: a start tag is
// matched before any of its text content has been seen.
func (s *streamingElement) OwnText() string { return "" }
func (s *streamingElement) AllText() string { return "" }

func (s *streamingElement) Parent() (css.Element, bool) {
	if s.parent == nil {
		return nil, false
	}
	return s.parent, true
}

// Children is unavailable while streaming: only the start tag has been
// tokenized when a selector is evaluated, so no children exist yet.
func (s *streamingElement) Children() []css.Element { return nil }

func (s *streamingElement) SiblingsBefore() []css.Element {
	out := make([]css.Element, len(s.before))
	for i, b := range s.before {
		out[i] = b
	}
	return out
}

func (s *streamingElement) PreviousSibling() (css.Element, bool) {
	if len(s.before) == 0 {
		return nil, false
	}
	return s.before[len(s.before)-1], true
}

// Descendants is unavailable while streaming, so :has() never matches here
// (the HTMLRewriter doc comment in htmlrewriter.go explains why).
func (s *streamingElement) Descendants() []css.Element { return nil }

func (s *streamingElement) SiblingIndex() int { return len(s.before) + 1 }

func (s *streamingElement) SiblingIndexOfType() int {
	n := 1
	for _, b := range s.before {
		if b.tag == s.tag {
			n++
		}
	}
	return n
}

// SiblingIndexFromEnd and SiblingIndexOfTypeFromEnd need the total sibling
// count, which isn't known until the parent element closes. Returning 0
// means :last-child, :only-child, :nth-last-child and their of-type
// variants never match in a streaming pass.
func (s *streamingElement) SiblingIndexFromEnd() int       { return 0 }
func (s *streamingElement) SiblingIndexOfTypeFromEnd() int { return 0 }

func (s *streamingElement) IsRoot() bool { return s.parent == nil }

func (s *streamingElement) SameNode(other css.Element) bool {
	o, ok := other.(*streamingElement)
	return ok && o.id == s.id
}
