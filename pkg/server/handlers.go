package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tlind/drive-finder/pkg/client"
	"github.com/tlind/drive-finder/pkg/common"
	"github.com/tlind/drive-finder/pkg/search"
	"github.com/tlind/drive-finder/pkg/types"
)

var (
	noSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivefinder_searches_total",
		Help: "The total number of processed searches",
	})
	noLoadMores = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivefinder_load_more_total",
		Help: "The total number of load more fetches",
	})
	noNearbyFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivefinder_nearby_fallback_total",
		Help: "The total number of automatic nearby expansions",
	})
	noEnquiries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivefinder_enquiries_total",
		Help: "The total number of submitted enquiries",
	})
	noBookings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivefinder_bookings_total",
		Help: "The total number of submitted bookings",
	})
	searchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "drivefinder_search_failures_total",
		Help: "The total number of upstream search failures",
	})
)

func writeSearchError(w http.ResponseWriter, err error) {
	searchFailures.Inc()
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		common.WriteError(w, http.StatusBadGateway, "search is unavailable, try again")
		return
	}
	common.WriteError(w, http.StatusBadGateway, "search failed, try again")
}

// HandleSearch starts a fresh search for the session from the query
// string. A failed upstream call renders as a retryable error, never as
// an empty result list.
func (ws *WebServer) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		common.RespondToOptions(w, r)
		return
	}
	go noSearches.Inc()
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)
	criteria := types.DecodeCriteria(r.URL.Query())

	result, err := ws.session(sessionId).Search(r.Context(), criteria)
	if err != nil {
		log.Printf("Search failed: %v", err)
		writeSearchError(w, err)
		return
	}
	if result.NearbyExpanded {
		go noNearbyFallbacks.Inc()
	}
	if ws.Tracking != nil {
		go func() {
			if err := ws.Tracking.TrackSearch(uint32(sessionId), &result.Criteria, len(result.Instructors), result.NearbyExpanded); err != nil {
				log.Printf("Error tracking search: %v", err)
			}
		}()
	}

	common.CorsHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, stale-while-revalidate=60")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Error encoding search response: %v", err)
	}
}

func (ws *WebServer) HandleLoadMore(w http.ResponseWriter, r *http.Request) {
	go noLoadMores.Inc()
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)

	result, _, err := ws.session(sessionId).LoadMore(r.Context())
	if err != nil {
		log.Printf("Load more failed: %v", err)
		writeSearchError(w, err)
		return
	}
	common.CorsHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Error encoding load more response: %v", err)
	}
}

func (ws *WebServer) HandleSort(w http.ResponseWriter, r *http.Request) {
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)
	mode := search.ParseSortMode(r.URL.Query().Get("sort"))

	result := ws.session(sessionId).SetSort(mode)
	common.CorsHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Error encoding sorted response: %v", err)
	}
}

func (ws *WebServer) HandleNearby(w http.ResponseWriter, r *http.Request) {
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)
	include := r.URL.Query().Get("enabled") == "true"

	result, err := ws.session(sessionId).SetNearby(r.Context(), include)
	if err != nil {
		log.Printf("Nearby toggle search failed: %v", err)
		writeSearchError(w, err)
		return
	}
	common.CorsHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("Error encoding nearby response: %v", err)
	}
}

const instructorCacheTTL = 5 * time.Minute

func (ws *WebServer) HandleInstructor(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		common.WriteError(w, http.StatusBadRequest, "missing instructor id")
		return
	}

	key := "instructor:" + id
	instructor := &types.Instructor{}
	cached := false
	if ws.Cache != nil {
		cached = ws.Cache.Get(r.Context(), key, instructor) == nil
	}
	if !cached {
		var err error
		instructor, err = ws.Client.GetInstructor(r.Context(), id)
		if err != nil {
			var statusErr *client.StatusError
			if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
				common.WriteError(w, http.StatusNotFound, "instructor not found")
				return
			}
			log.Printf("Instructor lookup failed: %v", err)
			common.WriteError(w, http.StatusBadGateway, "lookup failed, try again")
			return
		}
		if ws.Cache != nil {
			if err := ws.Cache.Set(r.Context(), key, instructor, instructorCacheTTL); err != nil {
				log.Printf("Error caching instructor: %v", err)
			}
		}
	}

	common.CorsHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := json.NewEncoder(w).Encode(instructor); err != nil {
		log.Printf("Error encoding instructor response: %v", err)
	}
}

func (ws *WebServer) HandleEnquiry(w http.ResponseWriter, r *http.Request) {
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)
	enquiry := types.EnquiryRequest{}
	if err := json.NewDecoder(r.Body).Decode(&enquiry); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid enquiry payload")
		return
	}

	id, err := ws.Client.CreateEnquiry(r.Context(), &enquiry)
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			common.WriteError(w, http.StatusBadGateway, "enquiry could not be sent, try again")
			return
		}
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	go noEnquiries.Inc()
	if ws.Tracking != nil {
		go func() {
			if err := ws.Tracking.TrackEnquiry(uint32(sessionId), enquiry.InstructorId); err != nil {
				log.Printf("Error tracking enquiry: %v", err)
			}
		}()
	}

	common.CorsHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"id": id}); err != nil {
		log.Printf("Error encoding enquiry response: %v", err)
	}
}

func (ws *WebServer) HandleBooking(w http.ResponseWriter, r *http.Request) {
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)
	booking := types.BookingRequest{}
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid booking payload")
		return
	}

	id, err := ws.Client.CreateBooking(r.Context(), &booking)
	if err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			common.WriteError(w, http.StatusBadGateway, "booking could not be placed, try again")
			return
		}
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	go noBookings.Inc()
	if ws.Tracking != nil {
		go func() {
			if err := ws.Tracking.TrackBooking(uint32(sessionId), booking.InstructorId, booking.Hours); err != nil {
				log.Printf("Error tracking booking: %v", err)
			}
		}()
	}

	common.CorsHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"id": id}); err != nil {
		log.Printf("Error encoding booking response: %v", err)
	}
}

type impressionPayload struct {
	InstructorId string  `json:"instructorId"`
	Position     float32 `json:"position"`
}

func (ws *WebServer) HandleImpressions(w http.ResponseWriter, r *http.Request) {
	sessionId := common.HandleSessionCookie(ws.Tracking, w, r)
	var impressions []impressionPayload
	if err := json.NewDecoder(r.Body).Decode(&impressions); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid impressions payload")
		return
	}
	if ws.Tracking != nil {
		go func() {
			for _, impression := range impressions {
				if err := ws.Tracking.TrackImpression(uint32(sessionId), impression.InstructorId, impression.Position); err != nil {
					log.Printf("Error tracking impression: %v", err)
				}
			}
		}()
	}
	w.WriteHeader(http.StatusAccepted)
}

type alertPayload struct {
	Token    string         `json:"token"`
	Criteria types.Criteria `json:"criteria"`
}

func (ws *WebServer) HandleCreateAlert(w http.ResponseWriter, r *http.Request) {
	payload := alertPayload{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid alert payload")
		return
	}
	alert, err := ws.Alerts.AddAlert(payload.Token, payload.Criteria)
	if err != nil {
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	common.CorsHeaders(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"id": alert.Id}); err != nil {
		log.Printf("Error encoding alert response: %v", err)
	}
}

func (ws *WebServer) HandleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := ws.Alerts.RemoveAlert(r.PathValue("id")); err != nil {
		common.WriteError(w, http.StatusNotFound, "alert not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ws *WebServer) HandleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	update := types.ProfileUpdate{}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		common.WriteError(w, http.StatusBadRequest, "invalid profile payload")
		return
	}
	if err := ws.Client.UpdateProfile(r.Context(), id, &update); err != nil {
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) {
			common.WriteError(w, http.StatusBadGateway, "profile update failed, try again")
			return
		}
		common.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
}
