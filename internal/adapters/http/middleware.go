package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studyhall/server/internal/core"
	"github.com/studyhall/server/internal/domain"
)

const ctxUserID = "user_id"

// AuthRequired verifies the bearer token and stashes the user id for
// the handlers. Token issuance is the external auth service's problem.
func AuthRequired(verifier core.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		userID, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		c.Set(ctxUserID, string(userID))
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString(ctxUserID))
}
