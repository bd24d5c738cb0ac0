package identity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/response"
)

// HeaderUserID is set by the API gateway after it authenticates the caller.
const HeaderUserID = "X-User-ID"

const contextUserIDKey = "identity.userID"

// Required rejects requests that arrive without a resolved user identity.
// Authentication itself happens upstream; this service only trusts the header.
func Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: "missing user identity"})
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: "invalid user identity"})
			return
		}
		c.Set(contextUserIDKey, id)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id, or 0 when the middleware
// did not run on this route.
func GetUserID(c *gin.Context) int64 {
	v, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := v.(int64)
	return id
}
