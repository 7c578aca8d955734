package common

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tlind/drive-finder/pkg/tracking"
)

func generateSessionId() int {
	return int(time.Now().UnixNano())
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, sessionId int) {
	http.SetCookie(w, &http.Cookie{
		Name:     "sid",
		Value:    fmt.Sprintf("%d", sessionId),
		Domain:   strings.TrimPrefix(r.Host, "."),
		SameSite: http.SameSiteNoneMode,
		HttpOnly: true,
		MaxAge:   2592000,
		Path:     "/",
	})
}

// HandleSessionCookie resolves the session id from the sid cookie, minting
// a fresh one (and tracking the new session) when absent. A cookie that
// does not parse is replaced with a fresh id as well, it must never
// collapse onto a shared fallback id.
func HandleSessionCookie(trk tracking.Tracking, w http.ResponseWriter, r *http.Request) int {
	sessionId := generateSessionId()
	c, err := r.Cookie("sid")
	if err != nil {
		if trk != nil {
			go trk.TrackSession(uint32(sessionId), r)
		}
		setSessionCookie(w, r, sessionId)
	} else {
		parsed, err := strconv.Atoi(c.Value)
		if err != nil {
			setSessionCookie(w, r, sessionId)
		} else {
			sessionId = parsed
		}
	}
	return sessionId
}
