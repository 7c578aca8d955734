package search

import (
	"testing"

	"github.com/tlind/drive-finder/pkg/types"
)

func TestNearbyExpandsOnce(t *testing.T) {
	policy := NearbyPolicy{}
	criteria := types.Criteria{Outcodes: []string{"SW1"}}
	if !policy.ShouldExpand(&criteria, 0) {
		t.Fatalf("Expected first zero-result search to expand")
	}
	if policy.ShouldExpand(&criteria, 0) {
		t.Errorf("Expected one shot to be consumed")
	}
}

func TestNearbyRequiresLocation(t *testing.T) {
	policy := NearbyPolicy{}
	criteria := types.Criteria{Gender: "Female"}
	if policy.ShouldExpand(&criteria, 0) {
		t.Errorf("Expected no expansion without an outcode anchor")
	}
}

func TestNearbySkipsWhenAlreadyEnabled(t *testing.T) {
	policy := NearbyPolicy{}
	criteria := types.Criteria{Outcodes: []string{"SW1"}, IncludeNearby: true}
	if policy.ShouldExpand(&criteria, 0) {
		t.Errorf("Expected no expansion when nearby is already on")
	}
}

func TestNearbySkipsWithResults(t *testing.T) {
	policy := NearbyPolicy{}
	criteria := types.Criteria{Outcodes: []string{"SW1"}}
	if policy.ShouldExpand(&criteria, 3) {
		t.Errorf("Expected no expansion when results exist")
	}
	// a non-firing check must not consume the shot
	if !policy.ShouldExpand(&criteria, 0) {
		t.Errorf("Expected the shot to still be armed")
	}
}

func TestNearbyPinnedNeverExpands(t *testing.T) {
	policy := NearbyPolicy{}
	policy.Pin()
	criteria := types.Criteria{Outcodes: []string{"SW1"}}
	if policy.ShouldExpand(&criteria, 0) {
		t.Errorf("Expected manual toggle to disable the heuristic")
	}
	policy.ResetEligibility()
	if policy.ShouldExpand(&criteria, 0) {
		t.Errorf("Expected pin to survive eligibility resets")
	}
}

func TestNearbyResetRearms(t *testing.T) {
	policy := NearbyPolicy{}
	criteria := types.Criteria{Outcodes: []string{"SW1"}}
	if !policy.ShouldExpand(&criteria, 0) {
		t.Fatalf("Expected first expansion")
	}
	policy.ResetEligibility()
	if !policy.ShouldExpand(&criteria, 0) {
		t.Errorf("Expected criteria change to re-arm the fallback")
	}
}
