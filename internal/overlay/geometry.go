package overlay

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pmorrow/svgdeck/internal/svgdoc"
)

// Rect is an axis-aligned box in SVG user units.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Viewport is the on-screen size of the slide-display container in
// pixels.
type Viewport struct {
	Width, Height float64
}

// Transform maps SVG user units to container pixels using the uniform
// scale-to-fit the viewer applies (xMidYMid meet).
type Transform struct {
	Scale            float64
	OffsetX, OffsetY float64
	MinX, MinY       float64
}

// FitTransform computes the transform for a viewBox rendered into a
// viewport. Degenerate inputs yield the identity transform.
func FitTransform(minX, minY, vbW, vbH float64, vp Viewport) Transform {
	if vbW <= 0 || vbH <= 0 || vp.Width <= 0 || vp.Height <= 0 {
		return Transform{Scale: 1}
	}
	scale := math.Min(vp.Width/vbW, vp.Height/vbH)
	return Transform{
		Scale:   scale,
		OffsetX: (vp.Width - vbW*scale) / 2,
		OffsetY: (vp.Height - vbH*scale) / 2,
		MinX:    minX,
		MinY:    minY,
	}
}

// Apply projects a user-unit rect into container pixels.
func (t Transform) Apply(r Rect) Rect {
	return Rect{
		X: (r.X-t.MinX)*t.Scale + t.OffsetX,
		Y: (r.Y-t.MinY)*t.Scale + t.OffsetY,
		W: r.W * t.Scale,
		H: r.H * t.Scale,
	}
}

// Point projects a single user-unit point into container pixels.
func (t Transform) Point(x, y float64) (float64, float64) {
	return (x-t.MinX)*t.Scale + t.OffsetX, (y-t.MinY)*t.Scale + t.OffsetY
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// BBox computes the bounding box of an SVG element from its geometry
// attributes. Groups take the union of their children. The second
// return is false when no geometry can be derived.
func BBox(n *html.Node) (Rect, bool) {
	switch n.Data {
	case "rect", "image", "use", "foreignObject":
		return Rect{
			X: svgdoc.Length(n, "x"),
			Y: svgdoc.Length(n, "y"),
			W: svgdoc.Length(n, "width"),
			H: svgdoc.Length(n, "height"),
		}, true
	case "circle":
		cx, cy, r := svgdoc.Length(n, "cx"), svgdoc.Length(n, "cy"), svgdoc.Length(n, "r")
		return Rect{X: cx - r, Y: cy - r, W: 2 * r, H: 2 * r}, true
	case "ellipse":
		cx, cy := svgdoc.Length(n, "cx"), svgdoc.Length(n, "cy")
		rx, ry := svgdoc.Length(n, "rx"), svgdoc.Length(n, "ry")
		return Rect{X: cx - rx, Y: cy - ry, W: 2 * rx, H: 2 * ry}, true
	case "line":
		x1, y1 := svgdoc.Length(n, "x1"), svgdoc.Length(n, "y1")
		x2, y2 := svgdoc.Length(n, "x2"), svgdoc.Length(n, "y2")
		return boxFromPoints([][2]float64{{x1, y1}, {x2, y2}})
	case "polygon", "polyline":
		v, _ := svgdoc.Attr(n, "points")
		return boxFromPoints(parsePoints(v))
	case "path":
		v, _ := svgdoc.Attr(n, "d")
		return boxFromPoints(tracePath(v))
	case "text", "tspan":
		// No font metrics server-side; anchor at the text origin.
		return Rect{X: svgdoc.Length(n, "x"), Y: svgdoc.Length(n, "y")}, true
	case "g", "svg", "a":
		var out Rect
		found := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			b, ok := BBox(c)
			if !ok {
				continue
			}
			if !found {
				out, found = b, true
				continue
			}
			out = union(out, b)
		}
		return out, found
	}
	return Rect{}, false
}

func union(a, b Rect) Rect {
	x1 := math.Min(a.X, b.X)
	y1 := math.Min(a.Y, b.Y)
	x2 := math.Max(a.X+a.W, b.X+b.W)
	y2 := math.Max(a.Y+a.H, b.Y+b.H)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func boxFromPoints(pts [][2]float64) (Rect, bool) {
	if len(pts) == 0 {
		return Rect{}, false
	}
	minX, minY := pts[0][0], pts[0][1]
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p[0])
		minY = math.Min(minY, p[1])
		maxX = math.Max(maxX, p[0])
		maxY = math.Max(maxY, p[1])
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// parsePoints reads a polygon/polyline points attribute.
func parsePoints(v string) [][2]float64 {
	nums := scanNumbers(v)
	var pts [][2]float64
	for i := 0; i+1 < len(nums); i += 2 {
		pts = append(pts, [2]float64{nums[i], nums[i+1]})
	}
	return pts
}

// tracePath walks a path's d attribute and collects every point the
// path reaches, control points included. The resulting box is a
// conservative approximation, which is enough for anchoring markers.
func tracePath(d string) [][2]float64 {
	var pts [][2]float64
	var cx, cy float64
	var startX, startY float64

	i := 0
	for i < len(d) {
		c := d[i]
		if !isPathCommand(c) {
			i++
			continue
		}
		i++
		rel := c >= 'a'
		cmd := c
		if rel {
			cmd = c - ('a' - 'A')
		}

		args, next := scanArgs(d, i)
		i = next

		switch cmd {
		case 'M', 'L', 'T':
			for j := 0; j+1 < len(args); j += 2 {
				x, y := args[j], args[j+1]
				if rel {
					x, y = cx+x, cy+y
				}
				cx, cy = x, y
				pts = append(pts, [2]float64{cx, cy})
				if cmd == 'M' && j == 0 {
					startX, startY = cx, cy
				}
			}
		case 'H':
			for _, a := range args {
				if rel {
					cx += a
				} else {
					cx = a
				}
				pts = append(pts, [2]float64{cx, cy})
			}
		case 'V':
			for _, a := range args {
				if rel {
					cy += a
				} else {
					cy = a
				}
				pts = append(pts, [2]float64{cx, cy})
			}
		case 'C':
			for j := 0; j+5 < len(args); j += 6 {
				pts = appendCurvePoints(pts, rel, cx, cy, args[j:j+6])
				cx, cy = abs(rel, cx, args[j+4]), abs(rel, cy, args[j+5])
			}
		case 'S', 'Q':
			for j := 0; j+3 < len(args); j += 4 {
				pts = appendCurvePoints(pts, rel, cx, cy, args[j:j+4])
				cx, cy = abs(rel, cx, args[j+2]), abs(rel, cy, args[j+3])
			}
		case 'A':
			for j := 0; j+6 < len(args); j += 7 {
				x, y := args[j+5], args[j+6]
				if rel {
					x, y = cx+x, cy+y
				}
				cx, cy = x, y
				pts = append(pts, [2]float64{cx, cy})
			}
		case 'Z':
			cx, cy = startX, startY
		}
	}
	return pts
}

// appendCurvePoints records a curve's control and end points in pairs.
func appendCurvePoints(pts [][2]float64, rel bool, cx, cy float64, args []float64) [][2]float64 {
	for j := 0; j+1 < len(args); j += 2 {
		x, y := args[j], args[j+1]
		if rel {
			x, y = cx+x, cy+y
		}
		pts = append(pts, [2]float64{x, y})
	}
	return pts
}

func abs(rel bool, cur, v float64) float64 {
	if rel {
		return cur + v
	}
	return v
}

func isPathCommand(c byte) bool {
	switch c {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's',
		'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

// scanArgs reads the numeric arguments following a path command,
// stopping at the next command letter.
func scanArgs(d string, start int) ([]float64, int) {
	i := start
	for i < len(d) && !isPathCommand(d[i]) {
		i++
	}
	return scanNumbers(d[start:i]), i
}

// scanNumbers extracts all floats from a separator-delimited string.
func scanNumbers(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	var nums []float64
	for _, f := range fields {
		// Split forms like "10-20" that SVG allows.
		for _, part := range splitSigned(f) {
			if v, err := strconv.ParseFloat(part, 64); err == nil {
				nums = append(nums, v)
			}
		}
	}
	return nums
}

// splitSigned breaks compact "10-20" or "1.5.5" style runs into
// individual numbers.
func splitSigned(s string) []string {
	var parts []string
	start := 0
	seenDot := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c == '-' || c == '+') && i > start && s[i-1] != 'e' && s[i-1] != 'E' {
			parts = append(parts, s[start:i])
			start = i
			seenDot = false
			continue
		}
		if c == '.' {
			if seenDot {
				parts = append(parts, s[start:i])
				start = i
			}
			seenDot = true
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}
