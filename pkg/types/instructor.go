package types

type Vehicle struct {
	Type  string `json:"type"`
	Plate string `json:"plate,omitempty"`
}

// Instructor is the normalized search result record. Optional numeric
// fields are pointers so "unknown" stays distinguishable from zero, the
// sorter relies on that.
type Instructor struct {
	Id                string    `json:"id"`
	Name              string    `json:"name"`
	BrandName         string    `json:"brandName,omitempty"`
	Description       string    `json:"description,omitempty"`
	PricePerHour      *float64  `json:"pricePerHour,omitempty"`
	Outcodes          []string  `json:"outcodes,omitempty"`
	Vehicles          []Vehicle `json:"vehicles,omitempty"`
	YearsOfExperience *int      `json:"yearsOfExperience,omitempty"`
	Languages         []string  `json:"languages,omitempty"`
	Rating            *float64  `json:"rating,omitempty"`
	TotalReviews      *int      `json:"totalReviews,omitempty"`
}
