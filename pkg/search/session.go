package search

import (
	"context"
	"sync"

	"github.com/tlind/drive-finder/pkg/client"
	"github.com/tlind/drive-finder/pkg/types"
)

// PageFetcher is the upstream collaborator the session pulls pages from.
type PageFetcher interface {
	FetchPage(ctx context.Context, criteria *types.Criteria, page, limit int) (*client.Page, error)
}

// Session owns one results view: the active criteria, the accumulated
// record list, the nearby fallback state and the sort mode. Every fetch is
// stamped with the generation current at dispatch, a result whose
// generation went stale while it was in flight is discarded instead of
// overwriting newer state.
type Session struct {
	mu             sync.Mutex
	fetcher        PageFetcher
	criteria       types.Criteria
	acc            *Accumulator
	nearby         NearbyPolicy
	sortMode       SortMode
	generation     uint64
	loadingMore    bool
	nearbyExpanded bool
}

// Result is a snapshot of the session state for rendering.
type Result struct {
	Instructors    []types.Instructor `json:"instructors"`
	Page           int                `json:"page"`
	PageSize       int                `json:"pageSize"`
	HasMore        bool               `json:"hasMore"`
	HasResults     bool               `json:"hasResults"`
	NearbyExpanded bool               `json:"nearbyExpanded,omitempty"`
	Sort           SortMode           `json:"sort"`
	Criteria       types.Criteria     `json:"criteria"`
}

func NewSession(fetcher PageFetcher, limit int) *Session {
	return &Session{
		fetcher:  fetcher,
		acc:      NewAccumulator(limit),
		sortMode: SortRelevance,
	}
}

func (s *Session) resultLocked() *Result {
	return &Result{
		Instructors:    Sort(s.acc.Records(), s.sortMode),
		Page:           s.acc.Page(),
		PageSize:       s.acc.Limit(),
		HasMore:        s.acc.HasMore(),
		HasResults:     s.acc.HasResults(),
		NearbyExpanded: s.nearbyExpanded,
		Sort:           s.sortMode,
		Criteria:       s.criteria,
	}
}

// Search replaces the active criteria and fetches page one. When the fetch
// comes back empty the nearby fallback may fire exactly one follow-up
// fetch with the nearby flag enabled.
func (s *Session) Search(ctx context.Context, criteria types.Criteria) (*Result, error) {
	s.mu.Lock()
	if !criteria.Equal(&s.criteria) {
		s.nearby.ResetEligibility()
	}
	s.criteria = criteria
	s.nearbyExpanded = false
	s.generation++
	generation := s.generation
	limit := s.acc.Limit()
	s.mu.Unlock()

	page, err := s.fetcher.FetchPage(ctx, &criteria, 1, limit)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if generation != s.generation {
		result := s.resultLocked()
		s.mu.Unlock()
		return result, nil
	}
	s.acc.Reset(page)

	if s.nearby.ShouldExpand(&s.criteria, len(page.Instructors)) {
		s.criteria.IncludeNearby = true
		s.nearbyExpanded = true
		s.generation++
		generation = s.generation
		expanded := s.criteria
		s.mu.Unlock()

		retry, err := s.fetcher.FetchPage(ctx, &expanded, 1, limit)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if generation == s.generation {
			s.acc.Reset(retry)
		}
	}
	result := s.resultLocked()
	s.mu.Unlock()
	return result, nil
}

// SetNearby is the user touching the nearby toggle directly. The toggle is
// pinned for the session lifetime and the search reruns with the explicit
// value.
func (s *Session) SetNearby(ctx context.Context, include bool) (*Result, error) {
	s.mu.Lock()
	s.nearby.Pin()
	criteria := s.criteria
	criteria.IncludeNearby = include
	s.mu.Unlock()
	return s.Search(ctx, criteria)
}

// LoadMore fetches and appends the next page. It is a no-op while another
// load is in flight or when the last page was short; the bool reports
// whether a page was actually appended.
func (s *Session) LoadMore(ctx context.Context) (*Result, bool, error) {
	s.mu.Lock()
	if s.loadingMore || !s.acc.HasMore() {
		result := s.resultLocked()
		s.mu.Unlock()
		return result, false, nil
	}
	s.loadingMore = true
	generation := s.generation
	criteria := s.criteria
	nextPage := s.acc.Page() + 1
	limit := s.acc.Limit()
	s.mu.Unlock()

	page, err := s.fetcher.FetchPage(ctx, &criteria, nextPage, limit)

	s.mu.Lock()
	s.loadingMore = false
	if err != nil {
		result := s.resultLocked()
		s.mu.Unlock()
		return result, false, err
	}
	if generation != s.generation {
		// criteria changed while the page was in flight, discard silently
		result := s.resultLocked()
		s.mu.Unlock()
		return result, false, nil
	}
	s.acc.AppendPage(page)
	result := s.resultLocked()
	s.mu.Unlock()
	return result, true, nil
}

// SetSort switches the active sort mode and returns the re-sorted view.
// Sorting is pure, this never touches pagination or triggers a fetch.
func (s *Session) SetSort(mode SortMode) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortMode = mode
	return s.resultLocked()
}

// Snapshot returns the current view without changing anything.
func (s *Session) Snapshot() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}
