// Package annotation holds the slide annotation data model and the
// in-memory store that owns it.
package annotation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pmorrow/svgdeck/internal/locator"
)

// Record types on the wire.
const (
	TypeNote    = "annotation"
	TypeRemoved = "removed"
)

// Position is an absolute pixel offset relative to the slide-display
// container's top-left, in "<int>px" form.
type Position struct {
	Left string `json:"left"`
	Top  string `json:"top"`
}

// Px renders a pixel offset in its stored string form.
func Px(v float64) string {
	return fmt.Sprintf("%dpx", int(math.Round(v)))
}

// ParsePx reads a pixel offset. The px suffix is optional on input;
// anything else (percentages, units, garbage) reports false.
func ParsePx(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Normalize re-renders the position in its canonical "<integer>px"
// form. The second return is false when either offset is not a pixel
// value; such positions must never reach the store.
func (p Position) Normalize() (Position, bool) {
	left, ok := ParsePx(p.Left)
	if !ok {
		return Position{}, false
	}
	top, ok := ParsePx(p.Top)
	if !ok {
		return Position{}, false
	}
	return Position{Left: Px(left), Top: Px(top)}, true
}

// Record is one annotation entry: either a note bound to (or floating
// free of) an element, or a marker that an element was removed.
//
// For notes, Created is the record's identity across sessions and must
// never be regenerated. Removal records carry no Created: they are
// idempotent and deduplicated by descriptor equality.
type Record struct {
	Type              string            `json:"type"`
	Text              string            `json:"text,omitempty"`
	ElementPath       string            `json:"elementPath,omitempty"`
	ElementTag        string            `json:"elementTag,omitempty"`
	ElementID         string            `json:"elementId,omitempty"`
	ElementAttributes map[string]string `json:"elementAttributes,omitempty"`
	Position          *Position         `json:"position,omitempty"`
	Created           string            `json:"created,omitempty"`
}

// IsNote reports whether the record is a note.
func (r Record) IsNote() bool { return r.Type == TypeNote }

// IsRemoval reports whether the record marks a removed element.
func (r Record) IsRemoval() bool { return r.Type == TypeRemoved }

// HasTarget reports whether the record is bound to an element. Notes
// without a target are freestanding.
func (r Record) HasTarget() bool {
	return r.ElementID != "" || r.ElementPath != "" || r.ElementTag != ""
}

// Descriptor rebuilds the locator descriptor for the record's target.
// A malformed stored path degrades to an empty path rather than an
// error; resolution then relies on id or attribute fallback.
func (r Record) Descriptor() (locator.Descriptor, bool) {
	if !r.HasTarget() {
		return locator.Descriptor{}, false
	}
	d := locator.Descriptor{
		ID:         r.ElementID,
		Tag:        r.ElementTag,
		Attributes: r.ElementAttributes,
	}
	if path, err := locator.DecodePath(r.ElementPath); err == nil {
		d.Path = path
	}
	return d, true
}

// SetTarget fills the record's element fields from a descriptor.
func (r *Record) SetTarget(d locator.Descriptor) {
	r.ElementID = d.ID
	r.ElementTag = d.Tag
	r.ElementPath = locator.EncodePath(d.Path)
	if len(d.Attributes) > 0 {
		r.ElementAttributes = make(map[string]string, len(d.Attributes))
		for k, v := range d.Attributes {
			r.ElementAttributes[k] = v
		}
	}
}

// sameTarget reports whether two records refer to the same element:
// matching non-empty ids, or failing that, the same structural path.
func sameTarget(a, b Record) bool {
	if a.ElementID != "" && a.ElementID == b.ElementID {
		return true
	}
	return a.ElementPath != "" && a.ElementPath == b.ElementPath
}

// Collection is the root persisted object: slide key ("slide-<N>") to
// the slide's ordered record sequence.
type Collection map[string][]Record

// SlideKey returns the collection key for a 1-based slide index.
func SlideKey(n int) string {
	return fmt.Sprintf("slide-%d", n)
}

// Clone deep-copies the collection, preserving per-slide order.
func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	for key, recs := range c {
		cp := make([]Record, len(recs))
		for i, r := range recs {
			cp[i] = r
			if r.Position != nil {
				p := *r.Position
				cp[i].Position = &p
			}
			if r.ElementAttributes != nil {
				attrs := make(map[string]string, len(r.ElementAttributes))
				for k, v := range r.ElementAttributes {
					attrs[k] = v
				}
				cp[i].ElementAttributes = attrs
			}
		}
		out[key] = cp
	}
	return out
}

// ParseCollection decodes the wire form. Any shape mismatch is an
// error; callers treat that as "this source has no usable content".
func ParseCollection(data []byte) (Collection, error) {
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse annotation collection: %w", err)
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}

// Marshal encodes the collection in its wire form.
func (c Collection) Marshal() ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal annotation collection: %w", err)
	}
	return data, nil
}
