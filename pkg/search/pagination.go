package search

import (
	"slices"

	"github.com/tlind/drive-finder/pkg/client"
	"github.com/tlind/drive-finder/pkg/types"
)

// Accumulator merges successive fetched pages into one growing list. It is
// not safe for concurrent use, the owning session serializes access.
type Accumulator struct {
	records []types.Instructor
	page    int
	limit   int
	hasMore bool
}

func NewAccumulator(limit int) *Accumulator {
	return &Accumulator{limit: limit, page: 1}
}

// Reset replaces the accumulated list wholly, used when the criteria
// change. The has-more heuristic is recomputed from the raw page size.
func (a *Accumulator) Reset(page *client.Page) {
	a.records = slices.Clone(page.Instructors)
	a.page = 1
	a.hasMore = page.RawCount == a.limit
}

// AppendPage concatenates a fetched page onto the list and advances the
// cursor by one. Backend-side duplicates are surfaced as-is, hiding them
// here would hide backend bugs.
func (a *Accumulator) AppendPage(page *client.Page) {
	a.records = append(a.records, page.Instructors...)
	a.page++
	a.hasMore = page.RawCount == a.limit
}

func (a *Accumulator) Records() []types.Instructor {
	return a.records
}

func (a *Accumulator) Page() int {
	return a.page
}

func (a *Accumulator) Limit() int {
	return a.limit
}

func (a *Accumulator) HasResults() bool {
	return len(a.records) > 0
}

func (a *Accumulator) HasMore() bool {
	return a.hasMore
}
