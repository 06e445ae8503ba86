package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/access"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/crypt"
)

// ActorKey is the gin context key under which LaunchAuth stores the
// verified actor.
const ActorKey = "actor"

// LaunchAuth verifies the signed launch token the LMS hands to the browser
// and resolves the actor snapshot it carries. The token travels as a Bearer
// credential; without it no editor-facing endpoint may be used.
func LaunchAuth(codec *crypt.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		claims, err := codec.Decode(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid launch token"})
			return
		}
		actor, err := access.ActorFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid launch token"})
			return
		}

		c.Set(ActorKey, actor)
		// expose a subject so the rate limiter keys per user instead of per IP
		c.Set("claims", map[string]interface{}{"sub": actor.ID})
		c.Next()
	}
}

// RequireCapability aborts with 403 unless the authenticated actor carries
// the given capability. Must run after LaunchAuth.
func RequireCapability(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.HasCapability(capability) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient capabilities"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor stored by LaunchAuth.
func ActorFrom(c *gin.Context) (*access.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return nil, false
	}
	actor, ok := v.(*access.Actor)
	return actor, ok
}
