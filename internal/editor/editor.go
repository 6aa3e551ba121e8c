// Package editor produces and consumes the HTML fragments used as
// annotation text. Saved content is sanitized and every hyperlink is
// forced to open in a new browsing context.
package editor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Editor holds the sanitization policy and markdown renderer shared by
// sessions. Stateless between opens.
type Editor struct {
	policy *bluemonday.Policy
	strip  *bluemonday.Policy
	md     goldmark.Markdown
}

// New configures the editor. The policy allows UGC-grade rich text and
// the target/rel attributes the link rewrite sets.
func New() *Editor {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("target", "rel").OnElements("a")
	return &Editor{
		policy: policy,
		strip:  bluemonday.StrictPolicy(),
		md:     goldmark.New(),
	}
}

// RenderMarkdown converts markdown note input into an HTML fragment.
func (e *Editor) RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Sanitize cleans a fragment and rewrites every anchor to open in a new
// browsing context.
func (e *Editor) Sanitize(fragment string) string {
	clean := e.policy.Sanitize(fragment)
	rewritten, err := forceNewContext(clean)
	if err != nil {
		// The sanitized fragment is already safe; keep it as-is.
		return clean
	}
	return rewritten
}

// IsEmpty reports whether a fragment carries no visible text content.
func (e *Editor) IsEmpty(fragment string) bool {
	return strings.TrimSpace(e.strip.Sanitize(fragment)) == ""
}

// Session is one open editing interaction over a note's text.
type Session struct {
	ed      *Editor
	initial string
	onSave  func(html string)
	open    bool
}

// Open starts a session seeded with the note's current HTML. onSave
// receives the cleaned fragment when the user saves.
func (e *Editor) Open(initialHTML string, onSave func(html string)) *Session {
	return &Session{ed: e, initial: initialHTML, onSave: onSave, open: true}
}

// Initial returns the seed content.
func (s *Session) Initial() string { return s.initial }

// Save validates and cleans the content, invokes the save callback and
// closes the session. Empty or effectively blank content is rejected
// silently: no callback, no record, and the second return is false.
// When markdown is set the content is rendered to HTML first.
func (s *Session) Save(content string, markdown bool) (string, bool) {
	if !s.open {
		return "", false
	}
	if markdown {
		rendered, err := s.ed.RenderMarkdown(content)
		if err != nil {
			return "", false
		}
		content = rendered
	}
	clean := s.ed.Sanitize(content)
	if s.ed.IsEmpty(clean) {
		return "", false
	}
	s.open = false
	if s.onSave != nil {
		s.onSave(clean)
	}
	return clean, true
}

// Close abandons the session without saving.
func (s *Session) Close() {
	s.open = false
}

// forceNewContext parses the fragment and stamps target and rel on
// every anchor, relative links included.
func forceNewContext(fragment string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		rewriteAnchors(n)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteAnchors(n *html.Node) {
	if n.Type == html.ElementNode && n.Data == "a" {
		setAttr(n, "target", "_blank")
		setAttr(n, "rel", "noopener noreferrer")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteAnchors(c)
	}
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
