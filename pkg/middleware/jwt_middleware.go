package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"trip/pkg/utils"
)

const (
	TokenCookie     = "jwt"
	LoggedOutCookie = "loggedout"

	principalKey = "principal"
)

// Principal is the authenticated caller attached to the request.
type Principal interface {
	PrincipalID() uuid.UUID
	PrincipalRole() string
}

// AuthenticateFunc resolves a session token to the caller it was issued for.
type AuthenticateFunc func(ctx context.Context, token string) (Principal, error)

// Protect requires a valid session token from the Authorization header or the jwt cookie.
func Protect(authenticate AuthenticateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c)
		if token == "" {
			_ = c.Error(utils.ErrNotLoggedIn)
			c.Abort()
			return
		}

		principal, err := authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// RestrictTo must run after Protect.
func RestrictTo(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := Current[Principal](c)
		if !ok || !contains(roles, principal.PrincipalRole()) {
			_ = c.Error(utils.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Current returns the caller attached by Protect as T.
func Current[T Principal](c *gin.Context) (T, bool) {
	var zero T
	v, ok := c.Get(principalKey)
	if !ok {
		return zero, false
	}
	p, ok := v.(T)
	return p, ok
}

func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != LoggedOutCookie {
		return cookie
	}
	return ""
}

// SetTokenCookie stores the session token in an httpOnly cookie, secure behind TLS.
func SetTokenCookie(c *gin.Context, token string, maxAgeDays int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, token, maxAgeDays*24*3600, "/", "", isSecure(c), true)
}

// ClearTokenCookie overwrites the session cookie with a short-lived placeholder.
func ClearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(TokenCookie, LoggedOutCookie, 10, "/", "", isSecure(c), true)
}

// Scheme is the scheme the client used, honouring a TLS-terminating proxy.
func Scheme(c *gin.Context) string {
	if isSecure(c) {
		return "https"
	}
	return "http"
}

func isSecure(c *gin.Context) bool {
	return c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
