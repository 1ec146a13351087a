package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/apierror"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/service"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ClaimsKey      = "claims"
	CurrentUserKey = "current_user"
)

// JWTAuth validates the Bearer access token and loads its subject from
// storage, so a role change or a deleted user takes effect on the next call.
func JWTAuth(secret string, store storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Authentication required"))
			return
		}

		claims, err := service.ParseToken(secret, strings.TrimPrefix(header, "Bearer "), service.TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Invalid or expired token"))
			return
		}

		user, err := store.GetUser(c.Request.Context(), claims.UserID)
		switch {
		case errors.Is(err, storage.ErrNotConnected):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, apierror.New("Storage backend unavailable"))
			return
		case err != nil:
			log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("auth user lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("Internal server error"))
			return
		case user == nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("User no longer exists"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// RequireRole rejects requests whose current user role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !allowed[user.TipoUser] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Insufficient permissions"))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user loaded by JWTAuth, or nil on public routes.
func CurrentUser(c *gin.Context) *model.User {
	user, _ := c.Get(CurrentUserKey)
	u, _ := user.(*model.User)
	return u
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *service.TokenClaims {
	claims, _ := c.Get(ClaimsKey)
	tc, _ := claims.(*service.TokenClaims)
	return tc
}
