package locator

import (
	"strings"
	"testing"

	"github.com/pmorrow/svgdeck/internal/svgdoc"
)

const testSlide = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800 600">
  <g>
    <rect x="10" y="20" width="100" height="50"/>
    <rect x="200" y="20" width="100" height="50" id="shape-1"/>
    <circle cx="400" cy="300" r="40" class="dot"/>
  </g>
  <g>
    <text x="50" y="580">caption</text>
  </g>
</svg>`

func parseSlide(t *testing.T, src string) *svgdoc.Document {
	t.Helper()
	doc, err := svgdoc.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse slide: %v", err)
	}
	return doc
}

func TestDescribeResolveRoundTrip(t *testing.T) {
	doc := parseSlide(t, testSlide)
	el := doc.GetElementByID("shape-1")
	if el == nil {
		t.Fatal("fixture missing shape-1")
	}

	d := Describe(doc.Root, el)
	if d.ID != "shape-1" {
		t.Errorf("expected id %q, got %q", "shape-1", d.ID)
	}
	if d.Tag != "rect" {
		t.Errorf("expected tag rect, got %q", d.Tag)
	}
	if got := EncodePath(d.Path); got != "/g[0]/rect[1]" {
		t.Errorf("expected path /g[0]/rect[1], got %q", got)
	}
	if d.Attributes["x"] != "200" || d.Attributes["width"] != "100" {
		t.Errorf("unexpected attributes: %v", d.Attributes)
	}

	// Resolve against a freshly parsed copy of the same document.
	doc2 := parseSlide(t, testSlide)
	got := Resolve(doc2.Root, d)
	if got == nil {
		t.Fatal("resolve returned nil")
	}
	if svgdoc.ID(got) != "shape-1" {
		t.Errorf("resolved wrong element: id=%q", svgdoc.ID(got))
	}
}

func TestResolveIDAuthoritative(t *testing.T) {
	doc := parseSlide(t, testSlide)

	// Path points at the first rect, but the id names the second.
	// The id match must win.
	path, err := DecodePath("/g[0]/rect[0]")
	if err != nil {
		t.Fatalf("decode path: %v", err)
	}
	d := Descriptor{ID: "shape-1", Path: path, Tag: "rect"}
	got := Resolve(doc.Root, d)
	if got == nil {
		t.Fatal("resolve returned nil")
	}
	if svgdoc.ID(got) != "shape-1" {
		t.Errorf("id lookup did not win: resolved id=%q", svgdoc.ID(got))
	}
}

func TestResolvePathOutOfRangeReturnsNil(t *testing.T) {
	doc := parseSlide(t, testSlide)
	path, err := DecodePath("/g[0]/rect[5]")
	if err != nil {
		t.Fatalf("decode path: %v", err)
	}
	d := Descriptor{Path: path, Tag: "polygon"}
	if got := Resolve(doc.Root, d); got != nil {
		t.Errorf("expected nil for out-of-range path, got %v", got.Data)
	}
}

func TestResolveAttributeFallback(t *testing.T) {
	doc := parseSlide(t, testSlide)

	// No id, dead-end path; a rect with x=10 y=20 exists elsewhere.
	path, err := DecodePath("/g[3]/rect[0]")
	if err != nil {
		t.Fatalf("decode path: %v", err)
	}
	d := Descriptor{
		Path:       path,
		Tag:        "rect",
		Attributes: map[string]string{"x": "10", "y": "20"},
	}
	got := Resolve(doc.Root, d)
	if got == nil {
		t.Fatal("attribute fallback found nothing")
	}
	if x, _ := svgdoc.Attr(got, "x"); x != "10" {
		t.Errorf("fallback matched wrong element: x=%q", x)
	}
}

func TestResolveAttributeMismatchReturnsNil(t *testing.T) {
	doc := parseSlide(t, testSlide)
	d := Descriptor{
		Tag:        "rect",
		Attributes: map[string]string{"x": "999"},
	}
	if got := Resolve(doc.Root, d); got != nil {
		t.Errorf("expected nil for unmatched attributes, got element %q", got.Data)
	}
}

func TestResolveEmptyDescriptor(t *testing.T) {
	doc := parseSlide(t, testSlide)
	if got := Resolve(doc.Root, Descriptor{}); got != nil {
		t.Errorf("expected nil for empty descriptor, got %q", got.Data)
	}
	if got := Resolve(nil, Descriptor{ID: "shape-1"}); got != nil {
		t.Error("expected nil for nil root")
	}
}

func TestDecodePathMalformed(t *testing.T) {
	cases := []string{"g[0]", "/g[]", "/g[x]", "/[0]", "/g[-1]", "/g"}
	for _, c := range cases {
		if _, err := DecodePath(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
	if steps, err := DecodePath(""); err != nil || steps != nil {
		t.Errorf("empty path should decode to nil, nil; got %v, %v", steps, err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := []Step{{Tag: "g", Index: 0}, {Tag: "path", Index: 12}}
	enc := EncodePath(in)
	out, err := DecodePath(enc)
	if err != nil {
		t.Fatalf("decode %q: %v", enc, err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d steps, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("step %d: expected %+v, got %+v", i, in[i], out[i])
		}
	}
}
