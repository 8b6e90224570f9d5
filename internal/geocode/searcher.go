package geocode

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Lookup is the resolver behind a Searcher. *Client implements it.
type Lookup interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// Results is one lookup's outcome for one stop.
type Results struct {
	StopID     string
	Query      string
	Candidates []Candidate
}

// Searcher debounces per-stop geocode lookups. Each keystroke re-arms
// the stop's timer; only the edit that survives the debounce window
// fires a lookup.
//
// Lookups that overlap (a slow response racing a newer edit) are settled
// by issue order: every edit bumps the stop's sequence, and a completion
// is applied only while its sequence is still the latest for that stop.
// Lookup errors are swallowed so the stop keeps its previous candidates.
type Searcher struct {
	lookup Lookup
	delay  time.Duration
	apply  func(Results)

	mu     sync.Mutex
	stops  map[string]*stopLookup
	closed bool
}

type stopLookup struct {
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
}

// NewSearcher builds a searcher delivering results through apply. The
// apply callback runs on lookup goroutines; callers serialize their own
// state.
func NewSearcher(lookup Lookup, delay time.Duration, apply func(Results)) *Searcher {
	return &Searcher{
		lookup: lookup,
		delay:  delay,
		apply:  apply,
		stops:  make(map[string]*stopLookup),
	}
}

// Update registers a keystroke for a stop, superseding any pending or
// in-flight lookup for it. Queries under three trimmed characters clear
// the stop's candidates immediately.
func (s *Searcher) Update(stopID, text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	stop, ok := s.stops[stopID]
	if !ok {
		stop = &stopLookup{}
		s.stops[stopID] = stop
	}
	stop.seq++
	seq := stop.seq
	if stop.timer != nil {
		stop.timer.Stop()
		stop.timer = nil
	}
	if stop.cancel != nil {
		stop.cancel()
		stop.cancel = nil
	}

	if len([]rune(strings.TrimSpace(text))) < minQueryLen {
		s.mu.Unlock()
		s.apply(Results{StopID: stopID, Query: text})
		return
	}

	stop.timer = time.AfterFunc(s.delay, func() {
		s.fire(stopID, seq, text)
	})
	s.mu.Unlock()
}

// Forget drops a stop's pending work, for when the stop is removed from
// the draft.
func (s *Searcher) Forget(stopID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.stops[stopID]; ok {
		if stop.timer != nil {
			stop.timer.Stop()
		}
		if stop.cancel != nil {
			stop.cancel()
		}
		delete(s.stops, stopID)
	}
}

// Close cancels every pending and in-flight lookup. Used when the route
// screen unmounts so late completions cannot touch dead state.
func (s *Searcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, stop := range s.stops {
		if stop.timer != nil {
			stop.timer.Stop()
		}
		if stop.cancel != nil {
			stop.cancel()
		}
	}
	s.stops = make(map[string]*stopLookup)
}

func (s *Searcher) fire(stopID string, seq uint64, text string) {
	s.mu.Lock()
	stop, ok := s.stops[stopID]
	if s.closed || !ok || stop.seq != seq {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	stop.cancel = cancel
	s.mu.Unlock()

	candidates, err := s.lookup.Search(ctx, text)
	cancel()
	if err != nil {
		return
	}

	s.mu.Lock()
	stop, ok = s.stops[stopID]
	stale := s.closed || !ok || stop.seq != seq
	s.mu.Unlock()
	if stale {
		return
	}
	s.apply(Results{StopID: stopID, Query: text, Candidates: candidates})
}
