package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tlind/drive-finder/pkg/client"
	"github.com/tlind/drive-finder/pkg/types"
)

type fetchCall struct {
	criteria types.Criteria
	page     int
}

type stubFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	handler func(criteria *types.Criteria, page, limit int) (*client.Page, error)
}

func (f *stubFetcher) FetchPage(ctx context.Context, criteria *types.Criteria, page, limit int) (*client.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{criteria: *criteria, page: page})
	handler := f.handler
	f.mu.Unlock()
	return handler(criteria, page, limit)
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *stubFetcher) call(i int) fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func emptyPage(limit int) *client.Page {
	return &client.Page{Instructors: []types.Instructor{}, RawCount: 0, Limit: limit}
}

func pageOf(limit int, ids ...string) *client.Page {
	records := make([]types.Instructor, len(ids))
	for i, id := range ids {
		records[i] = types.Instructor{Id: id}
	}
	return &client.Page{Instructors: records, RawCount: len(records), Limit: limit}
}

func TestSearchNearbyFallbackFiresOnce(t *testing.T) {
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			return emptyPage(limit), nil
		},
	}
	session := NewSession(fetcher, 5)

	result, err := session.Search(context.Background(), types.Criteria{Outcodes: []string{"SW1"}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Fatalf("Expected exactly one fallback fetch, got %d calls", fetcher.callCount())
	}
	if fetcher.call(0).criteria.IncludeNearby {
		t.Errorf("Expected first fetch without nearby")
	}
	if !fetcher.call(1).criteria.IncludeNearby {
		t.Errorf("Expected fallback fetch with nearby enabled")
	}
	if !result.NearbyExpanded || !result.Criteria.IncludeNearby {
		t.Errorf("Expected result to report the expansion, got %+v", result)
	}
}

func TestSearchNoFallbackWithoutLocation(t *testing.T) {
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			return emptyPage(limit), nil
		},
	}
	session := NewSession(fetcher, 5)

	if _, err := session.Search(context.Background(), types.Criteria{Gender: "Female"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("Expected no fallback without an outcode, got %d calls", fetcher.callCount())
	}
}

func TestSearchNoFallbackWithResults(t *testing.T) {
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			return pageOf(limit, "a", "b"), nil
		},
	}
	session := NewSession(fetcher, 5)

	result, err := session.Search(context.Background(), types.Criteria{Outcodes: []string{"SW1"}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetcher.callCount() != 1 {
		t.Errorf("Expected a single fetch, got %d", fetcher.callCount())
	}
	if !result.HasResults || result.NearbyExpanded {
		t.Errorf("Expected plain results, got %+v", result)
	}
}

func TestManualToggleDisablesFallback(t *testing.T) {
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			return emptyPage(limit), nil
		},
	}
	session := NewSession(fetcher, 5)
	criteria := types.Criteria{Outcodes: []string{"SW1"}}

	if _, err := session.Search(context.Background(), criteria); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetcher.callCount() != 2 {
		t.Fatalf("Expected auto expansion first, got %d calls", fetcher.callCount())
	}

	// user switches nearby off again: pinned from here on
	result, err := session.SetNearby(context.Background(), false)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetcher.callCount() != 3 {
		t.Errorf("Expected one fetch for the manual toggle, got %d calls", fetcher.callCount())
	}
	if result.Criteria.IncludeNearby || result.NearbyExpanded {
		t.Errorf("Expected nearby off after manual toggle, got %+v", result)
	}

	// another zero-result search must not re-trigger the heuristic
	if _, err := session.Search(context.Background(), criteria); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetcher.callCount() != 4 {
		t.Errorf("Expected no further fallback after the pin, got %d calls", fetcher.callCount())
	}
}

func TestLoadMoreAppendsAndStops(t *testing.T) {
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			if page == 1 {
				return pageOf(limit, "a", "b", "c", "d", "e"), nil
			}
			return pageOf(limit, "f", "g", "h"), nil
		},
	}
	session := NewSession(fetcher, 5)

	result, err := session.Search(context.Background(), types.Criteria{Outcodes: []string{"SW1"}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !result.HasMore {
		t.Fatalf("Expected more pages after a full first page")
	}

	result, appended, err := session.LoadMore(context.Background())
	if err != nil || !appended {
		t.Fatalf("Expected page appended, got appended=%v err=%v", appended, err)
	}
	if len(result.Instructors) != 8 {
		t.Errorf("Expected 8 accumulated records, got %d", len(result.Instructors))
	}
	if result.HasMore {
		t.Errorf("Expected hasMore false after a short page")
	}
	if result.Page != 2 {
		t.Errorf("Expected page 2, got %d", result.Page)
	}

	calls := fetcher.callCount()
	result, appended, err = session.LoadMore(context.Background())
	if err != nil || appended {
		t.Errorf("Expected no-op load more, got appended=%v err=%v", appended, err)
	}
	if fetcher.callCount() != calls {
		t.Errorf("Expected no fetch for the no-op, got %d calls", fetcher.callCount())
	}
	if len(result.Instructors) != 8 {
		t.Errorf("Expected list unchanged, got %d", len(result.Instructors))
	}
}

func TestLoadMoreSingleFlight(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			if page == 1 {
				return pageOf(limit, "a", "b", "c", "d", "e"), nil
			}
			started <- struct{}{}
			<-gate
			return pageOf(limit, "f"), nil
		},
	}
	session := NewSession(fetcher, 5)
	if _, err := session.Search(context.Background(), types.Criteria{Outcodes: []string{"SW1"}}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, appended, err := session.LoadMore(context.Background()); err != nil || !appended {
			t.Errorf("Expected first load more to append, got appended=%v err=%v", appended, err)
		}
	}()
	<-started

	// rapid second click while the first page fetch is outstanding
	_, appended, err := session.LoadMore(context.Background())
	if err != nil || appended {
		t.Errorf("Expected concurrent load more to be a no-op, got appended=%v err=%v", appended, err)
	}

	close(gate)
	<-done
	if len(session.Snapshot().Instructors) != 6 {
		t.Errorf("Expected 6 records after single append, got %d", len(session.Snapshot().Instructors))
	}
}

func TestStaleLoadMoreDiscarded(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 1)
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			if len(criteria.Outcodes) > 0 && criteria.Outcodes[0] == "M1" {
				return pageOf(limit, "y1", "y2"), nil
			}
			if page == 1 {
				return pageOf(limit, "a", "b", "c", "d", "e"), nil
			}
			started <- struct{}{}
			<-gate
			return pageOf(limit, "f", "g", "h", "i", "j"), nil
		},
	}
	session := NewSession(fetcher, 5)
	if _, err := session.Search(context.Background(), types.Criteria{Outcodes: []string{"SW1"}}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	done := make(chan struct{})
	var lateAppended bool
	go func() {
		defer close(done)
		_, appended, err := session.LoadMore(context.Background())
		if err != nil {
			t.Errorf("Expected no error from stale load more, got %v", err)
		}
		lateAppended = appended
	}()
	<-started

	// criteria change while the old page is still in flight
	result, err := session.Search(context.Background(), types.Criteria{Outcodes: []string{"M1"}})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(result.Instructors) != 2 {
		t.Fatalf("Expected the new search's 2 records, got %d", len(result.Instructors))
	}

	close(gate)
	<-done
	if lateAppended {
		t.Errorf("Expected the stale page to be discarded")
	}
	snapshot := session.Snapshot()
	if len(snapshot.Instructors) != 2 {
		t.Errorf("Expected stale result not to overwrite, got %d records", len(snapshot.Instructors))
	}
	for i, id := range []string{"y1", "y2"} {
		if snapshot.Instructors[i].Id != id {
			t.Errorf("Expected %s at %d, got %s", id, i, snapshot.Instructors[i].Id)
		}
	}
}

func TestSetSortDoesNotFetch(t *testing.T) {
	price := func(v float64) *float64 { return &v }
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			return &client.Page{
				Instructors: []types.Instructor{
					{Id: "a", PricePerHour: price(40)},
					{Id: "b", PricePerHour: price(25)},
				},
				RawCount: 2,
				Limit:    limit,
			}, nil
		},
	}
	session := NewSession(fetcher, 5)
	if _, err := session.Search(context.Background(), types.Criteria{Outcodes: []string{"SW1"}}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	calls := fetcher.callCount()

	result := session.SetSort(SortPriceLow)
	if fetcher.callCount() != calls {
		t.Errorf("Expected sorting not to fetch")
	}
	if result.Instructors[0].Id != "b" {
		t.Errorf("Expected cheapest first, got %s", result.Instructors[0].Id)
	}
	if result.Page != 1 || result.HasMore {
		t.Errorf("Expected pagination untouched by sort, got %+v", result)
	}
}

func TestSearchErrorSurfaced(t *testing.T) {
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			return nil, fmt.Errorf("backend down")
		},
	}
	session := NewSession(fetcher, 5)
	if _, err := session.Search(context.Background(), types.Criteria{Outcodes: []string{"SW1"}}); err == nil {
		t.Errorf("Expected transport failure to surface as an error")
	}
}

func TestSearchTimesOutQuietly(t *testing.T) {
	fetcher := &stubFetcher{
		handler: func(criteria *types.Criteria, page, limit int) (*client.Page, error) {
			return emptyPage(limit), nil
		},
	}
	session := NewSession(fetcher, 5)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := session.Search(ctx, types.Criteria{}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
