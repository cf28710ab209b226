package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/models"
)

const (
	CookieName = "token"
	claimsKey  = "claims"
)

// Authenticate accepts a bearer token or the session cookie and stores the
// verified claims on the context.
func Authenticate(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			tokenStr, _ = c.Cookie(CookieName)
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorised user!"})
			return
		}

		claims, err := issuer.Parse(tokenStr)
		if err != nil {
			slog.Warn("invalid token attempt", "ip", c.ClientIP(), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorised user!"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RoleLookup returns the stored role of a user, or an empty role when the
// user no longer exists.
type RoleLookup func(ctx context.Context, userID primitive.ObjectID) (models.Role, error)

// RequireAdmin must run after Authenticate. The token must carry the admin
// role and, when lookup is set, the stored account must still hold it, so a
// demoted or deleted admin loses access before the token expires.
func RequireAdmin(lookup RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok || claims.Role != models.RoleAdmin {
			forbidden(c)
			return
		}
		if lookup != nil {
			id, ok := CurrentUserID(c)
			if !ok {
				forbidden(c)
				return
			}
			role, err := lookup(c.Request.Context(), id)
			if err != nil {
				slog.Error("admin role lookup failed", "user", claims.UserID, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Some error occured"})
				return
			}
			if role != models.RoleAdmin {
				slog.Warn("stale admin token rejected", "user", claims.UserID, "role", role)
				forbidden(c)
				return
			}
		}
		c.Next()
	}
}

func forbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
}

func CurrentClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	claims, ok := CurrentClaims(c)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
