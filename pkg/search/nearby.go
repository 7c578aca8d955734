package search

import "github.com/tlind/drive-finder/pkg/types"

// NearbyPolicy decides whether a zero-result search should be retried
// once with the nearby flag enabled. An explicit user toggle pins the
// flag for the lifetime of the session and disables the heuristic.
type NearbyPolicy struct {
	userPinned bool
	fired      bool
}

// Pin records that the user touched the nearby toggle directly. Never
// reset for the session.
func (p *NearbyPolicy) Pin() {
	p.userPinned = true
}

// ResetEligibility re-arms the one-shot expansion, called when any filter
// criterion changes.
func (p *NearbyPolicy) ResetEligibility() {
	p.fired = false
}

// ShouldExpand reports whether the fallback fires for this fetch outcome
// and consumes the one shot when it does.
func (p *NearbyPolicy) ShouldExpand(criteria *types.Criteria, resultCount int) bool {
	if p.fired || p.userPinned {
		return false
	}
	if resultCount > 0 || criteria.IncludeNearby || !criteria.HasLocation() {
		return false
	}
	p.fired = true
	return true
}
