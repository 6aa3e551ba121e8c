// Package svgdoc parses SVG slide documents and provides the node helpers
// shared by the locator and overlay packages.
package svgdoc

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Document is a parsed SVG slide. Root is the <svg> element itself; the
// full parse tree is kept so the document can be re-rendered.
type Document struct {
	Tree *html.Node
	Root *html.Node
}

// Parse reads an SVG document. The html package handles SVG as foreign
// content, preserving case-sensitive tag and attribute names.
func Parse(r io.Reader) (*Document, error) {
	tree, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	root := findSVG(tree)
	if root == nil {
		return nil, fmt.Errorf("no <svg> element in document")
	}
	return &Document{Tree: tree, Root: root}, nil
}

func findSVG(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "svg" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := findSVG(c); s != nil {
			return s
		}
	}
	return nil
}

// Attr returns the value of the named attribute on n, if present.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute on n.
func SetAttr(n *html.Node, name, val string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}

// ID returns the element's id attribute, or "".
func ID(n *html.Node) string {
	v, _ := Attr(n, "id")
	return v
}

// GetElementByID searches the subtree under the svg root for an element
// with the given id.
func (d *Document) GetElementByID(id string) *html.Node {
	return FindByID(d.Root, id)
}

// FindByID searches a subtree for an element with the given id.
func FindByID(n *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	if n.Type == html.ElementNode && ID(n) == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m := FindByID(c, id); m != nil {
			return m
		}
	}
	return nil
}

// ViewBox returns the svg element's viewBox, falling back to width/height
// attributes when absent. ok is false when neither yields a usable size.
func (d *Document) ViewBox() (minX, minY, w, h float64, ok bool) {
	if v, found := Attr(d.Root, "viewBox"); found {
		parts := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
		var nums []float64
		for _, p := range parts {
			if p == "" {
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				nums = nil
				break
			}
			nums = append(nums, f)
		}
		if len(nums) == 4 && nums[2] > 0 && nums[3] > 0 {
			return nums[0], nums[1], nums[2], nums[3], true
		}
	}
	wv := Length(d.Root, "width")
	hv := Length(d.Root, "height")
	if wv > 0 && hv > 0 {
		return 0, 0, wv, hv, true
	}
	return 0, 0, 0, 0, false
}

// Length parses a numeric attribute, tolerating a px suffix. Returns 0
// when absent or unparsable.
func Length(n *html.Node, name string) float64 {
	v, found := Attr(n, name)
	if !found {
		return 0
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// Render writes the svg subtree back out as markup.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.Root)
}
