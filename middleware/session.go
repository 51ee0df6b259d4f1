package middleware

import (
	"net/http"
	"time"

	"github.com/ariebrainware/patient-console/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionIDKey is the gin context key of the browser session id.
const SessionIDKey = "session_id"

// Session ensures every browser carries a session cookie holding a random
// uuid. The id keys the console page state, it grants no privileges.
func Session(cfg *config.Config) gin.HandlerFunc {
	name := cfg.SessionCookie
	if name == "" {
		name = "pc_session"
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		sid, err := c.Cookie(name)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(name, sid, int(ttl.Seconds()), "/", "", cfg.CookieSecure, true)
		c.Set(SessionIDKey, sid)
		c.Next()
	}
}

// GetSessionID returns the session id set by Session.
func GetSessionID(c *gin.Context) (string, bool) {
	sid := c.GetString(SessionIDKey)
	return sid, sid != ""
}
