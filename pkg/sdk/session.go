package sdk

import (
	"context"
	"sync"
	"time"

	"github.com/seportal/searchd/pkg/ranker"
)

// State is the search-box lifecycle state.
type State int

// Session states.
const (
	StateIdle State = iota
	StateTyping
	StateQuerying
	StateResults
	StateFallbackResults
	StateEmpty
)

// DefaultDebounce is the pause after the last keystroke before a remote
// query is dispatched.
const DefaultDebounce = 300 * time.Millisecond

// Querier is the remote search dependency of a Session.
type Querier interface {
	Search(ctx context.Context, query string) (SearchResponse, error)
}

// Session drives one search-box interaction: keystrokes are debounced,
// each dispatched query carries a monotonic sequence number so a late
// response from a superseded query can never overwrite newer results,
// and any remote failure silently falls back to ranking the cached
// snapshot locally. The remote and fallback paths are never mixed
// within one session: a result set is entirely one or the other.
type Session struct {
	mu sync.Mutex

	state    State
	input    string
	results  []SearchResult
	fallback bool
	selected int

	snapshot []ranker.Item
	querier  Querier
	debounce time.Duration
	timeout  time.Duration
	navigate func(path string)

	seq       uint64 // latest dispatched query
	timer     *time.Timer
	onChanged func()
}

// SessionConfig holds session settings.
type SessionConfig struct {
	// Snapshot is the locally cached item set the fallback ranker scores
	// against, fetched once at session start. May be empty: fallback then
	// yields the Empty state, never an error.
	Snapshot []ranker.Item
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Timeout bounds each remote query. Defaults to 10s.
	Timeout time.Duration
	// Navigate is invoked with the selected item's target path on Enter.
	Navigate func(path string)
	// OnChanged, if set, is called after every state transition. It runs
	// outside the session lock, so it may freely read session state
	// (State, Results, Selected) to re-render.
	OnChanged func()
}

// NewSession creates a search-box session in the Idle state.
func NewSession(querier Querier, cfg SessionConfig) *Session {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	navigate := cfg.Navigate
	if navigate == nil {
		navigate = func(string) {}
	}
	onChanged := cfg.OnChanged
	if onChanged == nil {
		onChanged = func() {}
	}
	return &Session{
		state:     StateIdle,
		snapshot:  cfg.Snapshot,
		querier:   querier,
		debounce:  debounce,
		timeout:   timeout,
		navigate:  navigate,
		onChanged: onChanged,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Input returns the current query text.
func (s *Session) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

// Results returns the current result list.
func (s *Session) Results() []SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SearchResult, len(s.results))
	copy(out, s.results)
	return out
}

// Selected returns the index of the highlighted result.
func (s *Session) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Type handles a keystroke: the input is replaced with text and the
// debounce timer re-armed. Only the most recently armed timer fires; a
// superseded timer is stopped, not the in-flight network request.
func (s *Session) Type(text string) {
	s.mu.Lock()
	s.input = text
	s.state = StateTyping
	s.selected = 0

	if s.timer != nil {
		s.timer.Stop()
	}
	query := text
	s.timer = time.AfterFunc(s.debounce, func() { s.dispatch(query) })
	s.mu.Unlock()

	s.onChanged()
}

// Escape returns the session to Idle from any state, clearing the input
// and the result list. OutsideClick behaves identically.
func (s *Session) Escape() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()

	s.onChanged()
}

// OutsideClick is an alias for Escape per the search-box contract.
func (s *Session) OutsideClick() { s.Escape() }

// MoveDown advances the selection, wrapping modulo the result count.
// Ignored outside Results/FallbackResults.
func (s *Session) MoveDown() { s.move(1) }

// MoveUp retreats the selection, wrapping modulo the result count.
func (s *Session) MoveUp() { s.move(-1) }

// Enter navigates to the selected result's target path and returns to
// Idle. Ignored outside Results/FallbackResults.
func (s *Session) Enter() {
	s.mu.Lock()

	if !s.hasResults() {
		s.mu.Unlock()
		return
	}
	path := s.results[s.selected].TargetPath
	s.reset()
	s.mu.Unlock()

	s.navigate(path)
	s.onChanged()
}

// dispatch fires after the debounce pause: tag the query with the next
// sequence number and run it remotely off the event path.
func (s *Session) dispatch(query string) {
	s.mu.Lock()
	if s.input != query {
		// a newer keystroke already re-armed the timer
		s.mu.Unlock()
		return
	}
	s.seq++
	seq := s.seq
	s.state = StateQuerying
	s.mu.Unlock()
	s.onChanged()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	resp, err := s.querier.Search(ctx, query)
	if err != nil {
		s.complete(seq, rankFallback(query, s.snapshot), true)
		return
	}
	s.complete(seq, resp.Results, false)
}

// complete installs a response unless a newer query has been dispatched
// since; stale responses are discarded outright.
func (s *Session) complete(seq uint64, results []SearchResult, fallback bool) {
	s.mu.Lock()
	if seq != s.seq || s.state != StateQuerying {
		s.mu.Unlock()
		return
	}

	s.results = results
	s.fallback = fallback
	s.selected = 0

	switch {
	case len(results) == 0:
		s.state = StateEmpty
	case fallback:
		s.state = StateFallbackResults
	default:
		s.state = StateResults
	}
	s.mu.Unlock()

	s.onChanged()
}

func (s *Session) move(delta int) {
	s.mu.Lock()
	if !s.hasResults() {
		s.mu.Unlock()
		return
	}
	n := len(s.results)
	s.selected = ((s.selected+delta)%n + n) % n
	s.mu.Unlock()

	s.onChanged()
}

func (s *Session) hasResults() bool {
	return (s.state == StateResults || s.state == StateFallbackResults) && len(s.results) > 0
}

func (s *Session) reset() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = StateIdle
	s.input = ""
	s.results = nil
	s.fallback = false
	s.selected = 0
}

// rankFallback converts local keyword scores into the client result
// shape. An empty snapshot yields an empty list — a "no results" state,
// never an error.
func rankFallback(query string, snapshot []ranker.Item) []SearchResult {
	ranked := ranker.Rank(query, snapshot)
	results := make([]SearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = SearchResult{Item: r.Item, Score: float64(r.Score)}
	}
	return results
}
