package tracking

import (
	"net/http"

	"github.com/tlind/drive-finder/pkg/types"
)

// Tracking receives marketplace events. A nil Tracking disables tracking
// entirely, callers guard every publish with a nil check.
type Tracking interface {
	TrackSession(sessionId uint32, r *http.Request) error
	TrackSearch(sessionId uint32, criteria *types.Criteria, resultCount int, nearbyFallback bool) error
	TrackImpression(sessionId uint32, instructorId string, position float32) error
	TrackEnquiry(sessionId uint32, instructorId string) error
	TrackBooking(sessionId uint32, instructorId string, hours int) error
}

const (
	eventSession    = uint16(1)
	eventSearch     = uint16(2)
	eventImpression = uint16(3)
	eventEnquiry    = uint16(4)
	eventBooking    = uint16(5)
)

type BaseEvent struct {
	SessionId int    `json:"session_id"`
	Market    string `json:"market,omitempty"`
	Event     uint16 `json:"event"`
}

type SessionEvent struct {
	*BaseEvent
	UserAgent string `json:"user_agent,omitempty"`
	Referer   string `json:"referer,omitempty"`
	Language  string `json:"language,omitempty"`
}

type SearchEvent struct {
	*BaseEvent
	Criteria       *types.Criteria `json:"criteria"`
	ResultCount    int             `json:"result_count"`
	NearbyFallback bool            `json:"nearby_fallback,omitempty"`
}

type ImpressionEvent struct {
	*BaseEvent
	InstructorId string  `json:"instructor_id"`
	Position     float32 `json:"position"`
}

type EnquiryEvent struct {
	*BaseEvent
	InstructorId string `json:"instructor_id"`
}

type BookingEvent struct {
	*BaseEvent
	InstructorId string `json:"instructor_id"`
	Hours        int    `json:"hours"`
}
