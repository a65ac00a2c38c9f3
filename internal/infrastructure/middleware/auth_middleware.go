package middleware

import (
	"strings"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/pkg/errors"
	"vidshare/pkg/logger"
	"vidshare/pkg/tracing"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "current_user"

// CredentialExtractor pulls a raw credential out of a request.
type CredentialExtractor func(c *gin.Context) (string, bool)

// CookieCredential reads the signed session cookie. A cookie whose signature
// does not verify counts as absent.
func CookieCredential(cookie *SessionCookie) CredentialExtractor {
	return func(c *gin.Context) (string, bool) {
		return cookie.Read(c.Request)
	}
}

// BearerCredential reads "Authorization: Bearer <token>".
func BearerCredential() CredentialExtractor {
	return func(c *gin.Context) (string, bool) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		token = strings.TrimSpace(token)
		return token, token != ""
	}
}

// Authenticate resolves the caller's identity and stores it on the context.
// Extractors are consulted in order and the first credential that resolves to
// a user wins; when none does the request stays anonymous. It never aborts.
func Authenticate(auth ports.AuthService, extractors ...CredentialExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, extract := range extractors {
			token, ok := extract(c)
			if !ok {
				continue
			}
			user, ok := auth.ResolveIdentity(c.Request.Context(), token)
			if !ok {
				continue
			}
			c.Set(currentUserKey, user)
			c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), int64(user.ID)))
			tracing.AddSpanAttributes(c.Request.Context(), tracing.UserIDKey.Int64(int64(user.ID)))
			break
		}
		c.Next()
	}
}

// CurrentUser returns the identity resolved by Authenticate, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			_ = c.Error(errors.NewUnauthorizedError("Unauthorized"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects anyone but an administrator with 401.
func RequireAdmin(auth ports.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireAdmin(CurrentUser(c)); err != nil {
			_ = c.Error(errors.NewUnauthorizedError("Unauthorized").WithCause(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
