package middleware

import "github.com/gin-gonic/gin"

const ctxKeyMessageOnly = "body.messageOnly"

// MessageBodyPaths marks the given route paths as front-end routes. Errors
// raised by middleware on them carry only a {message} body, the shape the
// browser client reads.
func MessageBodyPaths(paths ...string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := set[c.FullPath()]; ok {
			c.Set(ctxKeyMessageOnly, true)
		}
		c.Next()
	}
}

// abortError writes the error envelope, or {message} on front-end routes.
func abortError(c *gin.Context, status int, code, msg string) {
	if c.GetBool(ctxKeyMessageOnly) {
		c.AbortWithStatusJSON(status, gin.H{"message": msg})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
