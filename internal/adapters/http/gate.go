package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tverdyi/watchroom/internal/domain"
)

const identityKey = "identity"

// IdentityFromSession reads the externally-issued credential out of the
// shared session cookie. The coordinator never mints identities; the auth
// service writes these values under the same cookie secret.
func IdentityFromSession(c *gin.Context) (domain.Identity, bool) {
	s := sessions.Default(c)
	id, _ := s.Get("uid").(string)
	if id == "" {
		return domain.Identity{}, false
	}
	name, _ := s.Get("name").(string)
	verified, _ := s.Get("verified").(bool)
	suspended, _ := s.Get("suspended").(bool)
	return domain.Identity{ID: id, Name: name, Verified: verified, Suspended: suspended}, true
}

// Vet is the admission rule of the connection gate.
func Vet(id domain.Identity) (status int, reason string) {
	if !id.Verified {
		return http.StatusUnauthorized, "account not verified"
	}
	if id.Suspended {
		return http.StatusForbidden, "account suspended"
	}
	return http.StatusOK, ""
}

// GateMiddleware refuses unauthenticated, unverified and suspended
// identities before any room event is processed.
func GateMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromSession(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		if status, reason := Vet(id); status != http.StatusOK {
			log.Warn().Str("module", "adapters.http").Str("user", id.ID).Str("reason", reason).Msg("connection refused")
			c.AbortWithStatusJSON(status, gin.H{"error": reason})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFromContext returns the vetted identity the gate stored.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
