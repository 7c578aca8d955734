package search

import (
	"math"
	"slices"
	"sort"

	"github.com/tlind/drive-finder/pkg/types"
)

// SortMode names one of the five result orderings offered in the UI.
type SortMode string

const (
	SortRelevance  SortMode = "relevance"
	SortPriceLow   SortMode = "price-low"
	SortPriceHigh  SortMode = "price-high"
	SortExperience SortMode = "experience"
	SortRating     SortMode = "rating"
)

// ParseSortMode maps a wire value to a sort mode, unknown values fall
// back to relevance.
func ParseSortMode(value string) SortMode {
	switch SortMode(value) {
	case SortPriceLow, SortPriceHigh, SortExperience, SortRating:
		return SortMode(value)
	}
	return SortRelevance
}

func priceOr(instructor *types.Instructor, fallback float64) float64 {
	if instructor.PricePerHour == nil {
		return fallback
	}
	return *instructor.PricePerHour
}

func experienceOr(instructor *types.Instructor, fallback int) int {
	if instructor.YearsOfExperience == nil {
		return fallback
	}
	return *instructor.YearsOfExperience
}

func ratingOr(instructor *types.Instructor, fallback float64) float64 {
	if instructor.Rating == nil {
		return fallback
	}
	return *instructor.Rating
}

// Sort returns a freshly ordered copy of records. Relevance preserves the
// backend order, the other modes use stable comparisons so equal keys keep
// their original relative order. Records missing the sort key always end
// up last.
func Sort(records []types.Instructor, mode SortMode) []types.Instructor {
	sorted := slices.Clone(records)
	switch mode {
	case SortPriceLow:
		sort.SliceStable(sorted, func(i, j int) bool {
			return priceOr(&sorted[i], math.MaxFloat64) < priceOr(&sorted[j], math.MaxFloat64)
		})
	case SortPriceHigh:
		sort.SliceStable(sorted, func(i, j int) bool {
			return priceOr(&sorted[i], 0) > priceOr(&sorted[j], 0)
		})
	case SortExperience:
		sort.SliceStable(sorted, func(i, j int) bool {
			return experienceOr(&sorted[i], 0) > experienceOr(&sorted[j], 0)
		})
	case SortRating:
		sort.SliceStable(sorted, func(i, j int) bool {
			return ratingOr(&sorted[i], 0) > ratingOr(&sorted[j], 0)
		})
	}
	return sorted
}
