package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openlearn/courseware-server/internal/features/user"
	"github.com/openlearn/courseware-server/internal/utils/jwt"
	"github.com/openlearn/courseware-server/pkg/response"
	"github.com/openlearn/courseware-server/pkg/types"
)

const userContextKey = "currentUser"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func resolveUser(c *gin.Context, db *gorm.DB, secret string) (user.User, bool) {
	token := bearerToken(c)
	if token == "" {
		return user.User{}, false
	}

	claims, err := jwt.VerifyToken(token, secret)
	if err != nil {
		return user.User{}, false
	}

	usr, err := user.Get(db, claims.UserID)
	if err != nil || !usr.Active {
		return user.User{}, false
	}
	return usr, true
}

// Authenticate requires a valid bearer token and loads the user into the
// request context.
func Authenticate(db *gorm.DB, secret string, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		usr, ok := resolveUser(c, db, secret)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}
		c.Set(userContextKey, usr)
		c.Next()
	}
}

// OptionalAuthenticate loads the user when a valid token is present but
// never rejects the request. Handlers that need a viewer check the context
// themselves.
func OptionalAuthenticate(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if usr, ok := resolveUser(c, db, secret); ok {
			c.Set(userContextKey, usr)
		}
		c.Next()
	}
}

// RequireAuthor restricts a route to authoring roles.
func RequireAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		usr, ok := GetUserFromContext(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}

		switch usr.UserType {
		case types.UserTypeAuthor, types.UserTypeAdmin, types.UserTypeSuperAdmin:
			c.Next()
		default:
			response.Error(c, http.StatusForbidden, "authoring access required", nil)
			c.Abort()
		}
	}
}

// GetUserFromContext returns the authenticated user, if any.
func GetUserFromContext(c *gin.Context) (user.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return user.User{}, false
	}
	usr, ok := value.(user.User)
	return usr, ok
}

// SetUserInContext is used by tests to inject an authenticated user.
func SetUserInContext(c *gin.Context, usr user.User) {
	c.Set(userContextKey, usr)
}
