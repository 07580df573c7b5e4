package convert

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/rcarmo/pixconv/internal/cpu"
	"github.com/rcarmo/pixconv/internal/logging"
)

// memoLimit bounds the routines a selector keeps. Callers that stream one
// geometry hit the same entry; a caller sweeping sizes evicts the oldest.
const memoLimit = 64

// Selector resolves requests to routines and memoizes the most recently
// used ones.
type Selector struct {
	catalog *Catalog
	caps    func() cpu.Mask

	mu    sync.Mutex
	memo  map[Request]*list.Element
	order *list.List // front is most recently used
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithCapabilities pins the capability mask instead of probing the CPU.
func WithCapabilities(m cpu.Mask) SelectorOption {
	return func(s *Selector) { s.caps = func() cpu.Mask { return m } }
}

// NewSelector returns a selector over c, or over a fresh built-in catalog
// when c is nil.
func NewSelector(c *Catalog, opts ...SelectorOption) *Selector {
	if c == nil {
		c = NewCatalog()
	}
	s := &Selector{
		catalog: c,
		caps:    cpu.Capabilities,
		memo:    make(map[Request]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var logger = logging.Default().With("convert")

var defaultSelector = sync.OnceValue(func() *Selector { return NewSelector(nil) })

// Default returns the process-wide selector.
func Default() *Selector { return defaultSelector() }

// Catalog returns the catalog the selector resolves against.
func (s *Selector) Catalog() *Catalog { return s.catalog }

// Capabilities returns the mask candidates are filtered with.
func (s *Selector) Capabilities() cpu.Mask { return s.caps() }

// Resolve validates req and returns the best eligible routine. Resolving
// the same request again returns the same *Routine while it stays among
// the memoLimit most recently resolved requests.
func (s *Selector) Resolve(req Request) (*Routine, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.memo[req]; ok {
		s.order.MoveToFront(e)
		return e.Value.(memoEntry).routine, nil
	}

	cands := s.catalog.Candidates(req.Src, req.Dst)
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupportedPair, req.Src, req.Dst)
	}

	caps := s.caps()
	for i := range cands {
		c := &cands[i]
		if !s.eligible(c, req, caps) {
			continue
		}
		r := newRoutine(c, newPlan(req))
		s.remember(req, r)
		logger.Debug("%s resolved to %s (requires %s, cpu %s)", req, r.Name, c.Requires, caps)
		return r, nil
	}
	return nil, fmt.Errorf("%w: no candidate for %s", ErrUnsupportedPair, req)
}

type memoEntry struct {
	req     Request
	routine *Routine
}

func (s *Selector) remember(req Request, r *Routine) {
	s.memo[req] = s.order.PushFront(memoEntry{req, r})
	for s.order.Len() > memoLimit {
		oldest := s.order.Back()
		s.order.Remove(oldest)
		delete(s.memo, oldest.Value.(memoEntry).req)
	}
}

// memoized returns the number of routines currently held.
func (s *Selector) memoized() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memo)
}

func (s *Selector) eligible(c *Candidate, req Request, caps cpu.Mask) bool {
	switch {
	case req.Flags&NoSIMD != 0 && c.Vectorized():
		return false
	case req.Flags&BaselineOnly != 0 && c.Vectorized() && c.Requires&^cpu.SSE2 != 0:
		return false
	case !cpu.Supports(caps, c.Requires):
		return false
	}
	return req.Width%c.PixelMultiple == 0 && req.Height%c.HeightMultiple == 0
}

// Tune changes candidate priorities by name or family and drops memoized
// routines so later resolutions see the new order.
func (s *Selector) Tune(match string, priority int) int {
	n := s.catalog.SetPriority(match, priority)
	s.mu.Lock()
	clear(s.memo)
	s.order.Init()
	s.mu.Unlock()
	return n
}

// Candidates lists the candidates for req's pair with their eligibility
// under the current capabilities.
func (s *Selector) Candidates(req Request) []CandidateStatus {
	caps := s.caps()
	cands := s.catalog.Candidates(req.Src, req.Dst)
	out := make([]CandidateStatus, len(cands))
	for i := range cands {
		out[i] = CandidateStatus{Candidate: cands[i], Eligible: s.eligible(&cands[i], req, caps)}
	}
	return out
}

// CandidateStatus pairs a candidate with whether it could serve a request.
type CandidateStatus struct {
	Candidate
	Eligible bool
}
