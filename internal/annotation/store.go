package annotation

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pmorrow/svgdeck/internal/locator"
)

// Store is the single source of truth for annotation and removal
// records during a session. All mutation goes through it; readers get
// copies. Lookups fail soft: a miss logs and returns a zero result,
// never an error that could block slide viewing.
type Store struct {
	mu       sync.Mutex
	log      *slog.Logger
	coll     Collection
	slide    int
	onChange func()
}

// NewStore creates an empty store positioned on slide 1.
func NewStore(log *slog.Logger) *Store {
	return &Store{
		log:   log,
		coll:  Collection{},
		slide: 1,
	}
}

// SetOnChange registers the hook fired after every durable mutation.
// The persistence layer uses this to write through to the cache.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetSlide records the slide index mutations apply to.
func (s *Store) SetSlide(n int) {
	s.mu.Lock()
	if n >= 1 {
		s.slide = n
	}
	s.mu.Unlock()
}

// CurrentSlide returns the active slide index.
func (s *Store) CurrentSlide() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slide
}

// Replace swaps in a whole collection. Used only at load time: whichever
// persistence source wins becomes the entire collection, with no
// field-level merging.
func (s *Store) Replace(c Collection) {
	s.mu.Lock()
	s.coll = c.Clone()
	s.mu.Unlock()
}

// Serialize returns a deep, order-preserving snapshot.
func (s *Store) Serialize() Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coll.Clone()
}

// ForSlide returns a copy of the slide's record sequence in insertion
// order. Never mutates.
func (s *Store) ForSlide(n int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.coll[SlideKey(n)]
	out := make([]Record, len(recs))
	copy(out, recs)
	return out
}

// CreateNote appends a note to the current slide. target may be nil for
// a freestanding note; pos may be nil, in which case placement is a
// rendering-time fallback until the note is first dragged. Empty text
// is rejected: the caller is expected to run the editor flow instead.
func (s *Store) CreateNote(text string, target *locator.Descriptor, pos *Position) (Record, error) {
	if text == "" {
		return Record{}, fmt.Errorf("note text is empty")
	}
	s.mu.Lock()
	rec := Record{
		Type:     TypeNote,
		Text:     text,
		Position: pos,
		Created:  s.uniqueCreated(),
	}
	if target != nil {
		rec.SetTarget(*target)
	}
	key := SlideKey(s.slide)
	s.coll[key] = append(s.coll[key], rec)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return rec, nil
}

// uniqueCreated produces the note's identity timestamp, bumping by a
// nanosecond if two notes land in the same instant. Caller holds mu.
func (s *Store) uniqueCreated() string {
	now := time.Now().UTC()
	for {
		created := now.Format(time.RFC3339Nano)
		if !s.createdExists(created) {
			return created
		}
		now = now.Add(time.Nanosecond)
	}
}

func (s *Store) createdExists(created string) bool {
	for _, recs := range s.coll {
		for _, r := range recs {
			if r.Created == created {
				return true
			}
		}
	}
	return false
}

// MarkRemoved appends a removal record for the described element on the
// current slide. Duplicate removals of the same element (same id, or
// same structural path) are suppressed; the second return reports
// whether the record was novel.
func (s *Store) MarkRemoved(desc locator.Descriptor) (Record, bool) {
	rec := Record{Type: TypeRemoved}
	rec.SetTarget(desc)

	s.mu.Lock()
	key := SlideKey(s.slide)
	for _, existing := range s.coll[key] {
		if existing.IsRemoval() && sameTarget(existing, rec) {
			s.mu.Unlock()
			return existing, false
		}
	}
	s.coll[key] = append(s.coll[key], rec)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return rec, true
}

// UpdatePosition moves the note identified by created on the current
// slide. A miss is a no-op: the visual element may have survived a
// slide-content swap that its backing record did not.
func (s *Store) UpdatePosition(created, leftPx, topPx string) bool {
	s.mu.Lock()
	rec := s.findNote(created)
	if rec == nil {
		s.mu.Unlock()
		s.log.Warn("position update for unknown note", "created", created)
		return false
	}
	rec.Position = &Position{Left: leftPx, Top: topPx}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return true
}

// UpdateText replaces the note's text. Same lookup contract as
// UpdatePosition.
func (s *Store) UpdateText(created, text string) bool {
	if text == "" {
		s.log.Warn("ignoring empty text update", "created", created)
		return false
	}
	s.mu.Lock()
	rec := s.findNote(created)
	if rec == nil {
		s.mu.Unlock()
		s.log.Warn("text update for unknown note", "created", created)
		return false
	}
	rec.Text = text
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return true
}

// DeleteNote removes the note identified by created from the current
// slide.
func (s *Store) DeleteNote(created string) bool {
	s.mu.Lock()
	key := SlideKey(s.slide)
	recs := s.coll[key]
	idx := -1
	for i, r := range recs {
		if r.IsNote() && r.Created == created {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		s.log.Warn("delete for unknown note", "created", created)
		return false
	}
	s.coll[key] = append(recs[:idx], recs[idx+1:]...)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return true
}

// findNote locates a note by identity on the current slide. Caller
// holds mu.
func (s *Store) findNote(created string) *Record {
	recs := s.coll[SlideKey(s.slide)]
	for i := range recs {
		if recs[i].IsNote() && recs[i].Created == created {
			return &recs[i]
		}
	}
	return nil
}
