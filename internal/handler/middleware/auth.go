package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"telehealth-core/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TokenValidator abstracts the edge token check so handler tests can swap in
// a stub.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	tokenValidator TokenValidator
}

const (
	ctxSubjectIDKey = "subject_id"
	ctxRoleKey      = "role"
)

func NewAuthMiddleware(tokenValidator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		claims, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxSubjectIDKey, claims.SubjectID)
		c.Set(ctxRoleKey, jwt.Role(claims.Role))
		c.Set("jwt_claims", map[string]any{
			"subject_id": claims.SubjectID.String(),
			"role":       claims.Role,
		})
		c.Next()
	}
}

// RequireRole gates routes that only make sense for one caller kind, e.g.
// heartbeats are specialist-only.
func (m *AuthMiddleware) RequireRole(role jwt.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		got, ok := GetRole(c)
		if !ok {
			// Unexpected error: should be used after RequireAuth()
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			c.Abort()
			return
		}

		if got != role {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetSubjectID(c *gin.Context) (uuid.UUID, bool) {
	subjectID, exists := c.Get(ctxSubjectIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := subjectID.(uuid.UUID)
	return id, ok
}

func GetRole(c *gin.Context) (jwt.Role, bool) {
	role, exists := c.Get(ctxRoleKey)
	if !exists {
		return "", false
	}

	r, ok := role.(jwt.Role)
	return r, ok
}
