package types

import (
	"net/url"
	"strings"

	"github.com/gorilla/schema"
)

// Criteria is the user's search intent. Outcodes carry repeated-key array
// encoding on the wire and are handled outside the schema decoder.
type Criteria struct {
	Outcodes      []string `json:"outcodes" schema:"-"`
	Gender        string   `json:"gender" schema:"gender"`
	VehicleType   string   `json:"vehicleType" schema:"vehicleType"`
	Language      string   `json:"language" schema:"language"`
	IncludeNearby bool     `json:"getNearest" schema:"getNearest"`
}

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func normalizeOutcode(outcode string) string {
	return strings.ToUpper(strings.TrimSpace(outcode))
}

// Encode maps the criteria onto a flat query. Empty scalar fields are
// omitted, outcodes are appended one key instance per entry and getNearest
// is only present when true. The backend reads key absence as false.
func (c *Criteria) Encode() url.Values {
	query := url.Values{}
	for _, outcode := range c.Outcodes {
		normalized := normalizeOutcode(outcode)
		if normalized == "" {
			continue
		}
		query.Add("outcode", normalized)
	}
	if c.Gender != "" {
		query.Set("gender", c.Gender)
	}
	if c.VehicleType != "" {
		query.Set("vehicleType", c.VehicleType)
	}
	if c.Language != "" {
		query.Set("language", c.Language)
	}
	if c.IncludeNearby {
		query.Set("getNearest", "true")
	}
	return query
}

// DecodeCriteria reads a query back into a Criteria. Scalar keys go through
// the schema decoder, outcodes are collected manually so repeated keys
// survive. Outcodes are upper-cased and de-duplicated keeping first
// occurrence order. Malformed values degrade to empty fields.
func DecodeCriteria(query url.Values) Criteria {
	criteria := Criteria{}
	// schema errors on unknown value formats are not fatal for a search
	// form, the field just stays empty
	_ = decoder.Decode(&criteria, query)

	seen := map[string]struct{}{}
	for _, raw := range query["outcode"] {
		normalized := normalizeOutcode(raw)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		criteria.Outcodes = append(criteria.Outcodes, normalized)
	}
	return criteria
}

// Equal compares two criteria field by field, outcode order included.
// Used to detect filter changes that reset the search session.
func (c *Criteria) Equal(other *Criteria) bool {
	if c.Gender != other.Gender ||
		c.VehicleType != other.VehicleType ||
		c.Language != other.Language ||
		c.IncludeNearby != other.IncludeNearby {
		return false
	}
	if len(c.Outcodes) != len(other.Outcodes) {
		return false
	}
	for i, outcode := range c.Outcodes {
		if outcode != other.Outcodes[i] {
			return false
		}
	}
	return true
}

// HasLocation reports whether the criteria carry at least one outcode.
// A nearby expansion without a location anchor is meaningless.
func (c *Criteria) HasLocation() bool {
	return len(c.Outcodes) > 0
}
