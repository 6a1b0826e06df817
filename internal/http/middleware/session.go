package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderSessionID carries the conversation session between front-end calls.
const HeaderSessionID = "X-Session-ID"

const ctxKeySessionID = "session.id"

// sessionIDPattern matches what the managed dialog engine accepts.
var sessionIDPattern = regexp.MustCompile(`^[0-9A-Za-z._:-]{2,100}$`)

// SessionID reads X-Session-ID, or issues a new UUID when it is absent or
// malformed, and echoes it on the response.
func SessionID() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(HeaderSessionID)
		if !ValidSessionID(sid) {
			if sid != "" {
				LoggerFrom(c).Debug().Msg("malformed session id replaced")
			}
			sid = uuid.NewString()
		}
		c.Set(ctxKeySessionID, sid)
		c.Writer.Header().Set(HeaderSessionID, sid)
		c.Next()
	}
}

// ValidSessionID reports whether s is acceptable as a session id.
func ValidSessionID(s string) bool { return sessionIDPattern.MatchString(s) }

// GetSessionID returns the session id stored by SessionID.
func GetSessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeySessionID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}
