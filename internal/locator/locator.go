// Package locator converts between live SVG elements and serializable
// descriptors, and resolves descriptors back to elements after the
// document has been torn down and rebuilt.
package locator

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pmorrow/svgdeck/internal/svgdoc"
)

// AllowedAttributes is the fixed set of id-independent shape attributes
// captured on a described element and compared during fallback lookup.
var AllowedAttributes = []string{
	"class", "width", "height", "x", "y", "d", "points",
	"cx", "cy", "r", "rx", "ry",
}

// Step is one level of a structural path: a tag name and the 0-based
// index among siblings sharing that tag.
type Step struct {
	Tag   string
	Index int
}

// Descriptor is a serializable reference to an SVG element. At least one
// of ID or Path+Tag must be set for the descriptor to be resolvable;
// Attributes only break ties during fallback lookup.
type Descriptor struct {
	ID         string
	Path       []Step
	Tag        string
	Attributes map[string]string
}

// Describe builds a descriptor for el relative to root (the svg element,
// excluded from the path). Attribute values are captured from el only,
// never from ancestors.
func Describe(root, el *html.Node) Descriptor {
	d := Descriptor{
		ID:  svgdoc.ID(el),
		Tag: el.Data,
	}
	for _, name := range AllowedAttributes {
		if v, ok := svgdoc.Attr(el, name); ok {
			if d.Attributes == nil {
				d.Attributes = make(map[string]string)
			}
			d.Attributes[name] = v
		}
	}
	for n := el; n != nil && n != root; n = n.Parent {
		idx := 0
		for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == n.Data {
				idx++
			}
		}
		d.Path = append([]Step{{Tag: n.Data, Index: idx}}, d.Path...)
	}
	return d
}

// Resolve locates the element the descriptor refers to under root.
// Lookup order: id (authoritative when it matches), then a strict walk
// of the structural path, then a first-match scan by tag and recorded
// attributes. Returns nil when nothing matches; never panics on
// malformed descriptors.
func Resolve(root *html.Node, d Descriptor) *html.Node {
	if root == nil {
		return nil
	}
	if d.ID != "" {
		if n := svgdoc.FindByID(root, d.ID); n != nil {
			return n
		}
	}
	if n := walkPath(root, d.Path); n != nil {
		return n
	}
	return matchByAttributes(root, d)
}

// walkPath follows the path strictly: each step must find enough
// same-tag children or the walk fails rather than guessing.
func walkPath(root *html.Node, path []Step) *html.Node {
	if len(path) == 0 {
		return nil
	}
	cur := root
	for _, step := range path {
		var next *html.Node
		seen := 0
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.Data != step.Tag {
				continue
			}
			if seen == step.Index {
				next = c
				break
			}
			seen++
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// matchByAttributes returns the first descendant in document order whose
// tag matches and whose attributes equal every recorded value. Recorded
// values must match exactly; attributes the descriptor did not record
// are ignored.
func matchByAttributes(root *html.Node, d Descriptor) *html.Node {
	if d.Tag == "" {
		return nil
	}
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n != root && n.Type == html.ElementNode && n.Data == d.Tag {
			ok := true
			for k, want := range d.Attributes {
				got, has := svgdoc.Attr(n, k)
				if !has || got != want {
					ok = false
					break
				}
			}
			if ok {
				found = n
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

// EncodePath renders a structural path in its wire form, "/g[0]/rect[2]".
func EncodePath(path []Step) string {
	if len(path) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range path {
		fmt.Fprintf(&b, "/%s[%d]", s.Tag, s.Index)
	}
	return b.String()
}

// DecodePath parses the wire form back into steps. Malformed input
// yields an error; callers treat that as an unresolvable path.
func DecodePath(s string) ([]Step, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("path must start with /: %q", s)
	}
	var path []Step
	for _, seg := range strings.Split(s[1:], "/") {
		open := strings.IndexByte(seg, '[')
		if open <= 0 || !strings.HasSuffix(seg, "]") {
			return nil, fmt.Errorf("malformed path segment %q", seg)
		}
		idx, err := strconv.Atoi(seg[open+1 : len(seg)-1])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("malformed path index in %q", seg)
		}
		path = append(path, Step{Tag: seg[:open], Index: idx})
	}
	return path, nil
}
