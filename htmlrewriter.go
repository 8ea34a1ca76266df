package htmlselect

import (
	"fmt"
	"html"
	"log"
	"strings"

	gohtml "golang.org/x/net/html"

	"github.com/cryguy/htmlselect/internal/css"
)

// maxHTMLRewriterHandlers caps the number of selector handlers registered on
// a single rewriter, so a caller cannot make a rewrite pass run arbitrarily
// many selector evaluations per token.
const maxHTMLRewriterHandlers = 64

// HTMLRewriter is a streaming, SAX-style HTML transformer in the spirit of
// the Cloudflare Workers HTMLRewriter API. Handlers are registered against a
// selector with On/OnDocument and fire as matching tokens stream past; the
// whole document is never materialized as a tree.
//
// Because input is consumed forward-only, matching only sees what has
// already streamed in: Has and the descendant/own-text pseudo-classes
// (spec.md §3.2) can never fire here, since they depend on content not yet
// seen; the text is read as empty, so a :matches()/:matchesOwn() pattern
// that matches the empty string matches every element. nth-last-child, last-child, only-child and their of-type variants
// are in the same position — the total sibling count isn't known until the
// parent closes — so they never match in a rewriter pass. Use Query/QueryAll
// against a parsed tree when a selector needs those.
type HTMLRewriter struct {
	handlers    []rewriterHandler
	docHandlers DocumentHandlers
}

type rewriterHandler struct {
	selector *Selector
	handlers ElementHandlers
}

// ElementHandlers groups the callbacks On can attach to a selector. Any
// subset may be nil.
type ElementHandlers struct {
	Element  func(*Element)
	Text     func(*TextChunk)
	Comments func(*Comment)
}

// DocumentHandlers groups the callbacks OnDocument can attach.
type DocumentHandlers struct {
	Text func(*TextChunk)
	End  func(*EndTag)
}

// NewHTMLRewriter returns an empty rewriter with no registered handlers.
func NewHTMLRewriter() *HTMLRewriter {
	return &HTMLRewriter{}
}

// On registers handlers to run against every element matching selector, plus
// the text and comment nodes inside it. It returns an error if selector
// fails to parse or the handler limit is already reached.
func (r *HTMLRewriter) On(selector string, h ElementHandlers) (*HTMLRewriter, error) {
	if len(r.handlers) >= maxHTMLRewriterHandlers {
		return nil, fmt.Errorf("htmlrewriter: handler limit of %d reached", maxHTMLRewriterHandlers)
	}
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, fmt.Errorf("htmlrewriter: %w", err)
	}
	r.handlers = append(r.handlers, rewriterHandler{selector: sel, handlers: h})
	return r, nil
}

// OnDocument registers document-level text and end handlers.
func (r *HTMLRewriter) OnDocument(h DocumentHandlers) *HTMLRewriter {
	r.docHandlers = h
	return r
}

// Element is the mutable view of a matched start tag passed to an
// ElementHandlers.Element callback.
type Element struct {
	tagName string
	attrs   map[string]string
	order   []string // attribute insertion order, for stable output

	removed      bool
	selfClosed   bool
	before       strings.Builder
	after        strings.Builder
	prepend      strings.Builder
	append       strings.Builder
	innerContent string
	innerSet     bool
}

func newElement(tagName string, attrs []gohtml.Attribute, selfClosed bool) *Element {
	e := &Element{
		tagName:    tagName,
		attrs:      make(map[string]string, len(attrs)),
		order:      make([]string, 0, len(attrs)),
		selfClosed: selfClosed,
	}
	for _, a := range attrs {
		if _, ok := e.attrs[a.Key]; !ok {
			e.order = append(e.order, a.Key)
		}
		e.attrs[a.Key] = a.Val
	}
	return e
}

func (e *Element) TagName() string { return e.tagName }

// SetTagName renames the element's start and end tags.
func (e *Element) SetTagName(name string) { e.tagName = name }

func (e *Element) GetAttribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) SetAttribute(name, value string) {
	if _, ok := e.attrs[name]; !ok {
		e.order = append(e.order, name)
	}
	e.attrs[name] = value
}

func (e *Element) RemoveAttribute(name string) {
	delete(e.attrs, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// Before inserts content immediately before the start tag.
func (e *Element) Before(content string) { e.before.WriteString(content) }

// After inserts content immediately after the end tag (or the tag itself,
// for a void/self-closing element).
func (e *Element) After(content string) { e.after.WriteString(content) }

// Prepend inserts content as the first thing inside the element.
func (e *Element) Prepend(content string) { e.prepend.WriteString(content) }

// Append inserts content as the last thing inside the element, before its
// end tag.
func (e *Element) Append(content string) { e.append.WriteString(content) }

// SetInnerContent replaces everything between the start and end tags.
func (e *Element) SetInnerContent(content string) {
	e.innerContent = content
	e.innerSet = true
}

// Remove drops the element and everything inside it from the output.
func (e *Element) Remove() { e.removed = true }

func (e *Element) writeStartTag(out *strings.Builder) {
	out.WriteByte('<')
	out.WriteString(e.tagName)
	for _, k := range e.order {
		out.WriteByte(' ')
		out.WriteString(k)
		out.WriteString(`="`)
		out.WriteString(html.EscapeString(e.attrs[k]))
		out.WriteByte('"')
	}
	if e.selfClosed {
		out.WriteString(" />")
	} else {
		out.WriteByte('>')
	}
}

// TextChunk is the mutable view of a text node passed to a Text callback.
type TextChunk struct {
	Text    string
	removed bool
	before  strings.Builder
	after   strings.Builder
	replace string
	replaced bool
}

func (t *TextChunk) Before(content string)  { t.before.WriteString(content) }
func (t *TextChunk) After(content string)   { t.after.WriteString(content) }
func (t *TextChunk) Replace(content string) { t.replace = content; t.replaced = true }
func (t *TextChunk) Remove()                { t.removed = true }

func (t *TextChunk) render(out *strings.Builder) {
	out.WriteString(t.before.String())
	switch {
	case t.removed:
	case t.replaced:
		out.WriteString(t.replace)
	default:
		out.WriteString(t.Text)
	}
	out.WriteString(t.after.String())
}

// Comment is the mutable view of a comment node passed to a Comments callback.
type Comment struct {
	Text     string
	removed  bool
	before   strings.Builder
	after    strings.Builder
	replace  string
	replaced bool
}

func (c *Comment) Before(content string)  { c.before.WriteString(content) }
func (c *Comment) After(content string)   { c.after.WriteString(content) }
func (c *Comment) Replace(content string) { c.replace = content; c.replaced = true }
func (c *Comment) Remove()                { c.removed = true }

func (c *Comment) render(out *strings.Builder) {
	out.WriteString(c.before.String())
	switch {
	case c.removed:
	case c.replaced:
		out.WriteString(c.replace)
	default:
		out.WriteString("<!--")
		out.WriteString(c.Text)
		out.WriteString("-->")
	}
	out.WriteString(c.after.String())
}

// EndTag is passed to a document End handler, to append trailing content
// after the document's last byte.
type EndTag struct {
	appended strings.Builder
}

func (e *EndTag) Append(content string) { e.appended.WriteString(content) }

// openElement tracks one entry on the ancestor stack while a rewrite pass
// streams through the document.
type openElement struct {
	view *streamingElement

	matchedIdx []int // indices into the active handler list whose selector matched this element
	skipContent bool
	skipAll     bool // Remove() was called: swallow children and the end tag too
	el          *Element
}

// rewrite runs the registered handlers against src and returns the
// transformed document. A handler that panics is logged and skipped rather
// than aborting the whole pass.
func (r *HTMLRewriter) rewrite(src string) string {
	tokenizer := gohtml.NewTokenizer(strings.NewReader(src))
	var out strings.Builder

	var stack []*openElement
	var siblingsByDepth [][]*streamingElement
	var nextID int64

	currentSiblings := func(depth int) []*streamingElement {
		for len(siblingsByDepth) <= depth {
			siblingsByDepth = append(siblingsByDepth, nil)
		}
		return siblingsByDepth[depth]
	}

	rootOf := func() css.Element {
		if len(stack) > 0 {
			return stack[0].view
		}
		return nil
	}

	anyContentSkipped := func() bool {
		for _, o := range stack {
			if o.skipContent || o.skipAll {
				return true
			}
		}
		return false
	}

	for {
		tt := tokenizer.Next()
		if tt == gohtml.ErrorToken {
			break
		}
		token := tokenizer.Token()

		switch tt {
		case gohtml.StartTagToken, gohtml.SelfClosingTagToken:
			selfClosed := tt == gohtml.SelfClosingTagToken || voidElement(token.Data)
			depth := len(stack)

			var parent *streamingElement
			if depth > 0 {
				parent = stack[depth-1].view
			}
			sibs := currentSiblings(depth)

			view := &streamingElement{
				id:        nextID,
				tag:       token.Data,
				attrs:     htmlAttrsToMap(token.Attr),
				parent:    parent,
				before:    sibs,
			}
			nextID++

			if anyContentSkipped() {
				siblingsByDepth[depth] = append(sibs, view)
				if !selfClosed {
					stack = append(stack, &openElement{view: view, skipAll: true})
					siblingsByDepth = append(siblingsByDepth[:depth+1], nil)
				}
				continue
			}

			var root css.Element = rootOf()
			if root == nil {
				root = view
			}

			oe := &openElement{view: view}
			for i, h := range r.handlers {
				if !h.selector.matchesElement(root, view) {
					continue
				}
				oe.matchedIdx = append(oe.matchedIdx, i)
			}

			if len(oe.matchedIdx) == 0 {
				out.WriteString(token.String())
			} else {
				el := newElement(token.Data, token.Attr, selfClosed)
				oe.el = el
				for _, i := range oe.matchedIdx {
					runElementHandler(r.handlers[i].handlers.Element, el)
				}
				out.WriteString(el.before.String())
				if el.removed {
					oe.skipAll = true
					if selfClosed {
						out.WriteString(el.after.String())
					}
				} else {
					el.writeStartTag(&out)
					out.WriteString(el.prepend.String())
					if el.innerSet {
						oe.skipContent = true
					}
					if selfClosed {
						if el.innerSet {
							out.WriteString(el.innerContent)
						}
						out.WriteString(el.append.String())
						out.WriteString(el.after.String())
					}
				}
			}

			siblingsByDepth[depth] = append(sibs, view)
			if selfClosed {
				continue
			}
			stack = append(stack, oe)
			siblingsByDepth = append(siblingsByDepth[:depth+1], nil)

		case gohtml.EndTagToken:
			if len(stack) == 0 {
				out.WriteString(token.String())
				continue
			}
			depth := len(stack) - 1
			oe := stack[depth]
			stack = stack[:depth]
			siblingsByDepth = siblingsByDepth[:depth+1]

			if oe.skipAll {
				if oe.el != nil {
					out.WriteString(oe.el.after.String())
				}
				continue
			}
			if oe.el != nil {
				if oe.el.innerSet {
					out.WriteString(oe.el.innerContent)
				}
				out.WriteString(oe.el.append.String())
			}
			if !anyContentSkipped() {
				if oe.el != nil && oe.el.tagName != token.Data {
					out.WriteString("</" + oe.el.tagName + ">")
				} else {
					out.WriteString(token.String())
				}
			}
			if oe.el != nil {
				out.WriteString(oe.el.after.String())
			}

		case gohtml.TextToken:
			if anyContentSkipped() {
				continue
			}
			handled := false
		ancestors:
			for _, oe := range stack {
				for _, i := range oe.matchedIdx {
					if fn := r.handlers[i].handlers.Text; fn != nil {
						tc := &TextChunk{Text: token.Data}
						runTextHandler(fn, tc)
						tc.render(&out)
						handled = true
						break ancestors
					}
				}
			}
			if !handled && r.docHandlers.Text != nil {
				tc := &TextChunk{Text: token.Data}
				runTextHandler(r.docHandlers.Text, tc)
				tc.render(&out)
				handled = true
			}
			if !handled {
				out.WriteString(token.Data)
			}

		case gohtml.CommentToken:
			if anyContentSkipped() {
				continue
			}
			handled := false
		commentAncestors:
			for _, oe := range stack {
				for _, i := range oe.matchedIdx {
					if fn := r.handlers[i].handlers.Comments; fn != nil {
						c := &Comment{Text: token.Data}
						runCommentHandler(fn, c)
						c.render(&out)
						handled = true
						break commentAncestors
					}
				}
			}
			if !handled {
				c := &Comment{Text: token.Data}
				c.render(&out)
			}

		case gohtml.DoctypeToken:
			out.WriteString(token.String())

		default:
			out.WriteString(token.String())
		}
	}

	if r.docHandlers.End != nil {
		end := &EndTag{}
		runEndHandler(r.docHandlers.End, end)
		out.WriteString(end.appended.String())
	}

	return out.String()
}

// Transform runs the registered handlers against src and returns the
// rewritten document.
func (r *HTMLRewriter) Transform(src string) (string, error) {
	return r.rewrite(src), nil
}

func runElementHandler(fn func(*Element), e *Element) {
	if fn == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("htmlrewriter: element handler for <%s> panicked: %v", e.tagName, rec)
		}
	}()
	fn(e)
}

func runTextHandler(fn func(*TextChunk), t *TextChunk) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("htmlrewriter: text handler panicked: %v", rec)
		}
	}()
	fn(t)
}

func runCommentHandler(fn func(*Comment), c *Comment) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("htmlrewriter: comment handler panicked: %v", rec)
		}
	}()
	fn(c)
}

func runEndHandler(fn func(*EndTag), e *EndTag) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("htmlrewriter: document end handler panicked: %v", rec)
		}
	}()
	fn(e)
}

// htmlAttrsToMap converts an html.Attribute slice to a string map, last
// value winning on a duplicate key (matches how browsers resolve duplicate
// attributes).
func htmlAttrsToMap(attrs []gohtml.Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Val
	}
	return m
}

// voidElement returns true for HTML void elements that have no end tag.
func voidElement(tag string) bool {
	switch strings.ToLower(tag) {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}
