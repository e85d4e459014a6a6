package middleware

import (
	"net/http"
	"strings"

	"klav_chat_server/pkg/errorx"
	"klav_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// ContextUserKey is the gin context key the authenticated handle is
// stored under.
const ContextUserKey = "username"

// JWTAuth verifies the bearer access token and stores the authenticated
// username in the request context.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "malformed authorization header, expected a bearer token",
			})
			return
		}

		claims, err := jwt.ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "token expired or invalid",
			})
			return
		}

		if claims.Subject != "access_token" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "an access token is required",
			})
			return
		}

		c.Set(ContextUserKey, claims.Username)
		c.Next()
	}
}
