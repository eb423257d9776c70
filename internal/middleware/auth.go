package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity fields embedded in access tokens
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens on protected routes
type AuthMiddleware struct {
	secretKey   []byte
	requireAuth bool
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(secretKey string, requireAuth bool) *AuthMiddleware {
	return &AuthMiddleware{
		secretKey:   []byte(secretKey),
		requireAuth: requireAuth,
	}
}

// ValidateToken checks the Authorization header and stores the caller
// identity in the request context
func (a *AuthMiddleware) ValidateToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.requireAuth {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing authorization header",
				"code":    "AUTH_MISSING",
				"message": "Authorization header is required",
			})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid authorization format",
				"code":    "AUTH_INVALID_FORMAT",
				"message": "Authorization header must be in 'Bearer <token>' format",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := a.parseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid token",
				"code":    "AUTH_INVALID_TOKEN",
				"message": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)

		c.Next()
	}
}

// AdminOnly rejects callers without the admin role
func (a *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.requireAuth {
			c.Next()
			return
		}

		role, exists := c.Get("user_role")
		if !exists || role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"code":    "AUTH_ADMIN_REQUIRED",
				"message": "Admin role is required for this operation",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (a *AuthMiddleware) parseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}
