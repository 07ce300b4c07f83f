package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ctxSubmitterClaims is the Gin context key for verified claims.
const ctxSubmitterClaims = "cleanchain_submitter_claims"

// RequireToken returns a Gin middleware that enforces a valid Bearer
// submitter token. On success it injects the claims into the context.
func RequireToken(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer token required",
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token: " + err.Error(),
			})
			return
		}

		c.Set(ctxSubmitterClaims, claims)
		c.Next()
	}
}

// SubmitterFromCtx retrieves the authenticated submitter account name
// injected by RequireToken. Empty when no token was enforced.
func SubmitterFromCtx(c *gin.Context) string {
	v, _ := c.Get(ctxSubmitterClaims)
	claims, _ := v.(*SubmitterClaims)
	if claims == nil {
		return ""
	}
	return claims.Submitter
}
