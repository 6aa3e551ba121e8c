package slides

import (
	"context"
	"fmt"
	"sync"
)

// Event names on the navigator.
type Event string

const (
	// BeforeSlideChange fires before the document is swapped; handlers
	// save any state tied to the outgoing slide.
	BeforeSlideChange Event = "beforeSlideChange"
	// AfterSlideChange fires once the new document is available;
	// handlers re-resolve annotation targets against it.
	AfterSlideChange Event = "afterSlideChange"
)

// Handler receives the outgoing and incoming slide indexes. For
// AfterSlideChange both values are the new index.
type Handler func(oldIndex, newIndex int)

type subscription struct {
	id int
	fn Handler
}

// Navigator tracks the current slide and dispatches change events to
// subscribers. A navigation arriving while handlers for a previous one
// are still conceptually "in flight" simply supersedes it: rebinding is
// stateless per rebuild, so no cancellation token is needed.
type Navigator struct {
	src Source

	mu       sync.Mutex
	current  int
	nextID   int
	handlers map[Event][]subscription
}

// NewNavigator starts on slide 1.
func NewNavigator(src Source) *Navigator {
	return &Navigator{
		src:      src,
		current:  1,
		handlers: make(map[Event][]subscription),
	}
}

// Current returns the active slide index.
func (n *Navigator) Current() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Count returns the slide count of the underlying source.
func (n *Navigator) Count() int {
	return n.src.SlideCount()
}

// On subscribes a handler and returns a token for Off.
func (n *Navigator) On(e Event, h Handler) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	n.handlers[e] = append(n.handlers[e], subscription{id: n.nextID, fn: h})
	return n.nextID
}

// Off removes a subscription by token.
func (n *Navigator) Off(e Event, id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	subs := n.handlers[e]
	for i, s := range subs {
		if s.id == id {
			n.handlers[e] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// GoTo navigates to slide "to", firing BeforeSlideChange, fetching the
// document, then firing AfterSlideChange. The fetched document is
// returned so callers pass the fresh root around explicitly rather than
// stashing it in ambient state.
func (n *Navigator) GoTo(ctx context.Context, to int) ([]byte, error) {
	if to < 1 || to > n.src.SlideCount() {
		return nil, fmt.Errorf("slide %d out of range (1-%d)", to, n.src.SlideCount())
	}

	n.mu.Lock()
	old := n.current
	before := append([]subscription(nil), n.handlers[BeforeSlideChange]...)
	n.mu.Unlock()

	for _, s := range before {
		s.fn(old, to)
	}

	data, err := n.src.Slide(ctx, to)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.current = to
	after := append([]subscription(nil), n.handlers[AfterSlideChange]...)
	n.mu.Unlock()

	for _, s := range after {
		s.fn(to, to)
	}
	return data, nil
}
