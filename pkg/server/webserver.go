package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/tlind/drive-finder/pkg/alerts"
	"github.com/tlind/drive-finder/pkg/client"
	"github.com/tlind/drive-finder/pkg/search"
	"github.com/tlind/drive-finder/pkg/tracking"
)

const (
	defaultPageLimit = 5
	maxPageLimit     = 20
	maxSessions      = 10000
)

type WebServer struct {
	Client    *client.Client
	Tracking  tracking.Tracking
	Cache     *Cache
	Auth      AuthHandler
	Alerts    *alerts.AlertService
	PageLimit int

	mu       sync.Mutex
	sessions map[int]*sessionEntry
}

type sessionEntry struct {
	session  *search.Session
	lastSeen time.Time
}

func (ws *WebServer) limit() int {
	if ws.PageLimit <= 0 {
		return defaultPageLimit
	}
	if ws.PageLimit > maxPageLimit {
		return maxPageLimit
	}
	return ws.PageLimit
}

// session returns the search session for a sid cookie, creating one on
// first sight. Old sessions get evicted when the map grows past the cap.
func (ws *WebServer) session(sessionId int) *search.Session {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.sessions == nil {
		ws.sessions = make(map[int]*sessionEntry)
	}
	entry, ok := ws.sessions[sessionId]
	if !ok {
		if len(ws.sessions) >= maxSessions {
			ws.evictOldestLocked()
		}
		entry = &sessionEntry{
			session: search.NewSession(&cachedFetcher{client: ws.Client, cache: ws.Cache}, ws.limit()),
		}
		ws.sessions[sessionId] = entry
	}
	entry.lastSeen = time.Now()
	return entry.session
}

func (ws *WebServer) evictOldestLocked() {
	var oldestId int
	var oldest time.Time
	first := true
	for id, entry := range ws.sessions {
		if first || entry.lastSeen.Before(oldest) {
			oldestId = id
			oldest = entry.lastSeen
			first = false
		}
	}
	if !first {
		delete(ws.sessions, oldestId)
	}
}

// SetupRoutes mounts the public API onto the mux.
func (ws *WebServer) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/search", ws.HandleSearch)
	mux.HandleFunc("POST /api/search/more", ws.HandleLoadMore)
	mux.HandleFunc("GET /api/search/sorted", ws.HandleSort)
	mux.HandleFunc("POST /api/nearby", ws.HandleNearby)
	mux.HandleFunc("GET /api/instructors/{id}", ws.HandleInstructor)
	mux.HandleFunc("POST /api/enquiries", ws.HandleEnquiry)
	mux.HandleFunc("POST /api/bookings", ws.HandleBooking)
	mux.HandleFunc("POST /api/track/impressions", ws.HandleImpressions)

	if ws.Alerts != nil {
		mux.HandleFunc("POST /api/alerts", ws.HandleCreateAlert)
		mux.HandleFunc("DELETE /api/alerts/{id}", ws.HandleDeleteAlert)
	}

	if ws.Auth != nil {
		mux.HandleFunc("/dashboard/login", ws.Auth.Login)
		mux.HandleFunc("/dashboard/logout", ws.Auth.Logout)
		mux.HandleFunc("/dashboard/auth_callback", ws.Auth.AuthCallback)
		mux.HandleFunc("/dashboard/user", ws.Auth.User)
		mux.HandleFunc("PUT /dashboard/profile/{id}", ws.Auth.Middleware(ws.HandleProfileUpdate))
	}
}
