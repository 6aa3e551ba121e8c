package annotation

import (
	"io"
	"log/slog"
	"testing"

	"github.com/pmorrow/svgdeck/internal/locator"
)

func testStore() *Store {
	return NewStore(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateNoteAndReload(t *testing.T) {
	s := testStore()
	s.SetSlide(1)

	target := &locator.Descriptor{
		ID:  "shape-1",
		Tag: "rect",
	}
	rec, err := s.CreateNote("Hello", target, &Position{Left: "100px", Top: "200px"})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if rec.Created == "" {
		t.Fatal("note has no created timestamp")
	}

	data, err := s.Serialize().Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// Fresh store, deserialized collection.
	coll, err := ParseCollection(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	s2 := testStore()
	s2.Replace(coll)

	recs := s2.ForSlide(1)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	got := recs[0]
	if got.Text != "Hello" {
		t.Errorf("expected text %q, got %q", "Hello", got.Text)
	}
	if got.Position == nil || got.Position.Left != "100px" {
		t.Errorf("expected position left 100px, got %+v", got.Position)
	}
	if got.ElementID != "shape-1" {
		t.Errorf("expected elementId shape-1, got %q", got.ElementID)
	}
	if got.Created != rec.Created {
		t.Errorf("created changed across reload: %q vs %q", got.Created, rec.Created)
	}
}

func TestSerializeRoundTripPreservesOrder(t *testing.T) {
	s := testStore()
	s.SetSlide(3)
	for _, text := range []string{"first", "second", "third"} {
		if _, err := s.CreateNote(text, nil, nil); err != nil {
			t.Fatalf("create %q: %v", text, err)
		}
	}
	s.MarkRemoved(locator.Descriptor{ID: "gone", Tag: "circle"})

	data, err := s.Serialize().Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	coll, err := ParseCollection(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	recs := coll[SlideKey(3)]
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if recs[i].Text != want {
			t.Errorf("record %d: expected %q, got %q", i, want, recs[i].Text)
		}
	}
	if !recs[3].IsRemoval() {
		t.Errorf("expected removal record last, got type %q", recs[3].Type)
	}
	if recs[3].Created != "" {
		t.Errorf("removal record must not carry created, got %q", recs[3].Created)
	}
}

func TestCreatedUniqueness(t *testing.T) {
	s := testStore()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		rec, err := s.CreateNote("n", nil, nil)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[rec.Created] {
			t.Fatalf("duplicate created timestamp %q", rec.Created)
		}
		seen[rec.Created] = true
	}
}

func TestCreateNoteRejectsEmptyText(t *testing.T) {
	s := testStore()
	if _, err := s.CreateNote("", nil, nil); err == nil {
		t.Error("expected error for empty text")
	}
	if len(s.ForSlide(1)) != 0 {
		t.Error("empty note must not be stored")
	}
}

func TestMarkRemovedDeduplicates(t *testing.T) {
	s := testStore()
	desc := locator.Descriptor{
		ID:   "shape-1",
		Tag:  "rect",
		Path: []locator.Step{{Tag: "g", Index: 0}, {Tag: "rect", Index: 1}},
	}

	_, novel := s.MarkRemoved(desc)
	if !novel {
		t.Fatal("first removal should be novel")
	}
	_, novel = s.MarkRemoved(desc)
	if novel {
		t.Error("second removal of same element should be suppressed")
	}
	if got := len(s.ForSlide(1)); got != 1 {
		t.Errorf("expected exactly 1 removal record, got %d", got)
	}

	// Same path, no id: still the same element.
	_, novel = s.MarkRemoved(locator.Descriptor{
		Tag:  "rect",
		Path: []locator.Step{{Tag: "g", Index: 0}, {Tag: "rect", Index: 1}},
	})
	if novel {
		t.Error("removal with matching path should be suppressed")
	}
}

func TestUpdatePositionMissIsNoOp(t *testing.T) {
	s := testStore()
	if s.UpdatePosition("2020-01-01T00:00:00Z", "10px", "10px") {
		t.Error("expected miss for unknown created")
	}
}

func TestUpdatePositionAndText(t *testing.T) {
	s := testStore()
	rec, err := s.CreateNote("draft", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if !s.UpdatePosition(rec.Created, "40px", "60px") {
		t.Fatal("position update missed")
	}
	if !s.UpdateText(rec.Created, "final") {
		t.Fatal("text update missed")
	}

	recs := s.ForSlide(1)
	if recs[0].Position == nil || recs[0].Position.Left != "40px" || recs[0].Position.Top != "60px" {
		t.Errorf("unexpected position %+v", recs[0].Position)
	}
	if recs[0].Text != "final" {
		t.Errorf("expected text %q, got %q", "final", recs[0].Text)
	}
}

func TestUpdateTextRejectsEmpty(t *testing.T) {
	s := testStore()
	rec, _ := s.CreateNote("keep", nil, nil)
	if s.UpdateText(rec.Created, "") {
		t.Error("empty text update must be rejected")
	}
	if got := s.ForSlide(1)[0].Text; got != "keep" {
		t.Errorf("text was clobbered: %q", got)
	}
}

func TestDeleteNote(t *testing.T) {
	s := testStore()
	a, _ := s.CreateNote("a", nil, nil)
	b, _ := s.CreateNote("b", nil, nil)

	if !s.DeleteNote(a.Created) {
		t.Fatal("delete missed")
	}
	recs := s.ForSlide(1)
	if len(recs) != 1 || recs[0].Created != b.Created {
		t.Errorf("unexpected records after delete: %+v", recs)
	}
	if s.DeleteNote(a.Created) {
		t.Error("second delete should miss")
	}
}

func TestReplaceIsWholesale(t *testing.T) {
	s := testStore()
	s.CreateNote("local edit", nil, nil)

	incoming := Collection{
		SlideKey(2): {{Type: TypeNote, Text: "bundle note", Created: "2024-05-01T10:00:00Z"}},
	}
	s.Replace(incoming)

	if got := len(s.ForSlide(1)); got != 0 {
		t.Errorf("slide 1 should be empty after replace, got %d records", got)
	}
	if got := len(s.ForSlide(2)); got != 1 {
		t.Errorf("slide 2 should hold the incoming record, got %d", got)
	}

	// The store must not alias the caller's slices.
	incoming[SlideKey(2)][0].Text = "mutated"
	if got := s.ForSlide(2)[0].Text; got != "bundle note" {
		t.Errorf("replace did not deep-copy: %q", got)
	}
}

func TestOnChangeFiresOnDurableMutations(t *testing.T) {
	s := testStore()
	var fires int
	s.SetOnChange(func() { fires++ })

	rec, _ := s.CreateNote("n", nil, nil)
	s.UpdatePosition(rec.Created, "1px", "2px")
	s.UpdateText(rec.Created, "m")
	s.MarkRemoved(locator.Descriptor{ID: "x", Tag: "rect"})
	s.DeleteNote(rec.Created)

	if fires != 5 {
		t.Errorf("expected 5 change notifications, got %d", fires)
	}

	// Reads and misses must not fire.
	s.ForSlide(1)
	s.UpdatePosition("nope", "0px", "0px")
	if fires != 5 {
		t.Errorf("reads or misses triggered persistence: %d", fires)
	}
}

func TestPositionNormalize(t *testing.T) {
	cases := []struct {
		in   Position
		want Position
		ok   bool
	}{
		{Position{Left: "100px", Top: "200px"}, Position{Left: "100px", Top: "200px"}, true},
		{Position{Left: "12.5px", Top: "45"}, Position{Left: "13px", Top: "45px"}, true},
		{Position{Left: "-40px", Top: "0px"}, Position{Left: "-40px", Top: "0px"}, true},
		{Position{Left: "12.5%", Top: "40px"}, Position{}, false},
		{Position{Left: "10px", Top: "2em"}, Position{}, false},
		{Position{Left: "", Top: "10px"}, Position{}, false},
		{Position{Left: "px", Top: "10px"}, Position{}, false},
	}
	for _, tc := range cases {
		got, ok := tc.in.Normalize()
		if ok != tc.ok {
			t.Errorf("%+v: expected ok=%v, got %v", tc.in, tc.ok, ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("%+v: expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseCollectionMalformed(t *testing.T) {
	if _, err := ParseCollection([]byte(`{"slide-1": "not a list"}`)); err == nil {
		t.Error("expected error for malformed collection")
	}
	coll, err := ParseCollection([]byte(`{}`))
	if err != nil {
		t.Fatalf("empty object should parse: %v", err)
	}
	if len(coll) != 0 {
		t.Errorf("expected empty collection, got %v", coll)
	}
}
