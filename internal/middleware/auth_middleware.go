package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"go-elms/internal/shared/apperror"
	"go-elms/internal/shared/contextutil"
	"go-elms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the bearer token and seeds the request context
// with the caller's identity. Downstream handlers read user_id, email and
// role from the gin context; services read the user id via contextutil.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Token not found", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			message := "Invalid token"
			if err != nil && strings.Contains(err.Error(), "expired") {
				message = "Token expired"
			}
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, message, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "Invalid token claims", nil)
			c.Abort()
			return
		}

		// The three identity claims are all mandatory; a token missing any of
		// them cannot be authorized against a role or department.
		for _, name := range []string{"user_id", "email", "role"} {
			value, ok := claims[name].(string)
			if !ok || value == "" {
				response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized,
					fmt.Sprintf("Missing %s claim", name), nil)
				c.Abort()
				return
			}
			c.Set(name, value)
		}

		c.Request = c.Request.WithContext(
			contextutil.WithUserID(c.Request.Context(), c.GetString("user_id")),
		)

		c.Next()
	}
}
