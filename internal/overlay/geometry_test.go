package overlay

import (
	"math"
	"strings"
	"testing"

	"github.com/pmorrow/svgdeck/internal/svgdoc"
)

func bboxOf(t *testing.T, svg, id string) (Rect, bool) {
	t.Helper()
	doc, err := svgdoc.Parse(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	el := doc.GetElementByID(id)
	if el == nil {
		t.Fatalf("no element %q in fixture", id)
	}
	return BBox(el)
}

func rectsClose(a, b Rect) bool {
	const eps = 1e-6
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.W-b.W) < eps && math.Abs(a.H-b.H) < eps
}

func TestBBoxShapes(t *testing.T) {
	cases := []struct {
		name string
		svg  string
		want Rect
	}{
		{
			"rect",
			`<svg><rect id="el" x="10" y="20" width="30" height="40"/></svg>`,
			Rect{10, 20, 30, 40},
		},
		{
			"circle",
			`<svg><circle id="el" cx="50" cy="60" r="10"/></svg>`,
			Rect{40, 50, 20, 20},
		},
		{
			"ellipse",
			`<svg><ellipse id="el" cx="50" cy="50" rx="20" ry="10"/></svg>`,
			Rect{30, 40, 40, 20},
		},
		{
			"line",
			`<svg><line id="el" x1="5" y1="10" x2="25" y2="50"/></svg>`,
			Rect{5, 10, 20, 40},
		},
		{
			"polygon",
			`<svg><polygon id="el" points="0,0 100,0 50,80"/></svg>`,
			Rect{0, 0, 100, 80},
		},
		{
			"path absolute",
			`<svg><path id="el" d="M10 10 L110 10 L110 60 Z"/></svg>`,
			Rect{10, 10, 100, 50},
		},
		{
			"path relative",
			`<svg><path id="el" d="m10 10 l100 0 l0 50 z"/></svg>`,
			Rect{10, 10, 100, 50},
		},
		{
			"path h and v",
			`<svg><path id="el" d="M20 30 H120 V90"/></svg>`,
			Rect{20, 30, 100, 60},
		},
		{
			"group union",
			`<svg><g id="el"><rect x="0" y="0" width="10" height="10"/><circle cx="50" cy="50" r="10"/></g></svg>`,
			Rect{0, 0, 60, 60},
		},
	}

	for _, tc := range cases {
		got, ok := bboxOf(t, tc.svg, "el")
		if !ok {
			t.Errorf("%s: no bbox derived", tc.name)
			continue
		}
		if !rectsClose(got, tc.want) {
			t.Errorf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestBBoxUnknownElement(t *testing.T) {
	if _, ok := bboxOf(t, `<svg><defs id="el"></defs></svg>`, "el"); ok {
		t.Error("expected no bbox for defs")
	}
}

func TestFitTransformLetterboxes(t *testing.T) {
	// 400x300 box into an 800x800 viewport: scale 2, vertical centering.
	tf := FitTransform(0, 0, 400, 300, Viewport{Width: 800, Height: 800})
	if tf.Scale != 2 {
		t.Errorf("expected scale 2, got %v", tf.Scale)
	}
	if tf.OffsetX != 0 || tf.OffsetY != 100 {
		t.Errorf("expected offsets 0/100, got %v/%v", tf.OffsetX, tf.OffsetY)
	}

	x, y := tf.Point(200, 150)
	if x != 400 || y != 400 {
		t.Errorf("expected center to map to 400/400, got %v/%v", x, y)
	}
}

func TestFitTransformHonorsViewBoxOrigin(t *testing.T) {
	tf := FitTransform(100, 50, 400, 300, Viewport{Width: 400, Height: 300})
	x, y := tf.Point(100, 50)
	if x != 0 || y != 0 {
		t.Errorf("viewBox origin should map to 0/0, got %v/%v", x, y)
	}
}

func TestScanNumbersCompactForms(t *testing.T) {
	nums := scanNumbers("10-20 1.5.5,3e2-4")
	want := []float64{10, -20, 1.5, 0.5, 300, -4}
	if len(nums) != len(want) {
		t.Fatalf("expected %v, got %v", want, nums)
	}
	for i := range want {
		if math.Abs(nums[i]-want[i]) > 1e-9 {
			t.Errorf("num %d: expected %v, got %v", i, want[i], nums[i])
		}
	}
}
