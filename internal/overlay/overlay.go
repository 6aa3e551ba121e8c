// Package overlay projects annotation records onto a live slide
// document: it re-resolves targets after every document rebuild,
// places indicator markers, and runs the tooltip and drag state
// machines for the thin client.
package overlay

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/pmorrow/svgdeck/internal/annotation"
	"github.com/pmorrow/svgdeck/internal/locator"
	"github.com/pmorrow/svgdeck/internal/svgdoc"
)

// BindState of a record within one slide-load cycle.
type BindState string

const (
	// StateBound means the record's target resolved in the current
	// document and the record renders.
	StateBound BindState = "bound"
	// StateUnbound means resolution failed; the record is retained in
	// the store but renders nothing until a later rebuild succeeds.
	StateUnbound BindState = "unbound"
)

// edgeMargin is the minimum distance in pixels kept between placed
// overlay artifacts and the container edges.
const edgeMargin = 10

// Binding is the projection of one record onto the current document.
type Binding struct {
	Record    annotation.Record    `json:"record"`
	State     BindState            `json:"state"`
	Indicator *annotation.Position `json:"indicator,omitempty"`
	NotePos   *annotation.Position `json:"notePosition,omitempty"`
}

// Renderer recomputes the overlay projection for a slide. It holds no
// per-document state: every rebuild starts from scratch, which is what
// makes an abandoned rebuild harmless.
type Renderer struct {
	log *slog.Logger
}

// NewRenderer creates the overlay renderer.
func NewRenderer(log *slog.Logger) *Renderer {
	return &Renderer{log: log}
}

// Rebind clears the previous projection implicitly (the returned slice
// is the entire new one) and resolves every record of the slide against
// the freshly built document. Records that fail to resolve are kept,
// unrendered. Freestanding notes are always bound.
func (r *Renderer) Rebind(doc *svgdoc.Document, recs []annotation.Record, vp Viewport) []Binding {
	tf := docTransform(doc, vp)
	out := make([]Binding, 0, len(recs))

	for _, rec := range recs {
		b := Binding{Record: rec, State: StateUnbound}

		desc, hasTarget := rec.Descriptor()
		if !hasTarget {
			// Freestanding note: no element to resolve, always renders.
			b.State = StateBound
			b.NotePos = notePosition(rec, vp)
			out = append(out, b)
			continue
		}

		el := locator.Resolve(doc.Root, desc)
		if el == nil {
			r.log.Debug("annotation target unresolved",
				"id", rec.ElementID, "path", rec.ElementPath, "tag", rec.ElementTag)
			out = append(out, b)
			continue
		}

		b.State = StateBound
		if box, ok := BBox(el); ok {
			px := tf.Apply(box)
			b.Indicator = &annotation.Position{
				Left: annotation.Px(clamp(px.X, edgeMargin, vp.Width-edgeMargin)),
				Top:  annotation.Px(clamp(px.Y+px.H/2, edgeMargin, vp.Height-edgeMargin)),
			}
		}
		if rec.IsNote() {
			b.NotePos = notePosition(rec, vp)
		}
		out = append(out, b)
	}
	return out
}

// DefaultNotePosition computes the initial position for a note created
// on an element: the element's on-screen centroid in container pixels,
// clamped away from the edges. The second return is false when the
// element has no derivable geometry.
func (r *Renderer) DefaultNotePosition(doc *svgdoc.Document, el *html.Node, vp Viewport) (annotation.Position, bool) {
	box, ok := BBox(el)
	if !ok {
		return annotation.Position{}, false
	}
	px := docTransform(doc, vp).Apply(box)
	return annotation.Position{
		Left: annotation.Px(clamp(px.CenterX(), edgeMargin, vp.Width-edgeMargin)),
		Top:  annotation.Px(clamp(px.CenterY(), edgeMargin, vp.Height-edgeMargin)),
	}, true
}

// notePosition returns the stored position, or the rendering-time
// centered fallback for notes never explicitly placed.
func notePosition(rec annotation.Record, vp Viewport) *annotation.Position {
	if rec.Position != nil {
		p := *rec.Position
		return &p
	}
	return &annotation.Position{
		Left: annotation.Px(vp.Width / 2),
		Top:  annotation.Px(vp.Height / 2),
	}
}

func docTransform(doc *svgdoc.Document, vp Viewport) Transform {
	minX, minY, w, h, ok := doc.ViewBox()
	if !ok {
		return Transform{Scale: 1}
	}
	return FitTransform(minX, minY, w, h, vp)
}
