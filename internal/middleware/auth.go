package middleware

import (
	"net/http"
	"strings"

	"rifapos/internal/apierror"
	"rifapos/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey   = "claims"
	IdentityKey = "identity"
)

// JWTClaims are the custom claims embedded in every access token. Tokens are
// minted by the external identity provider (cmd/devtoken locally).
type JWTClaims struct {
	UserID           string               `json:"user_id"`
	BusinessID       string               `json:"business_id"`
	BusinessMemberID string               `json:"business_member_id,omitempty"`
	Role             string               `json:"role"`
	Permissions      identity.Permissions `json:"permissions"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the per-request caller.
func (c *JWTClaims) Identity() (identity.Identity, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return identity.Identity{}, err
	}
	businessID, err := uuid.Parse(c.BusinessID)
	if err != nil {
		return identity.Identity{}, err
	}
	id := identity.Identity{
		UserID:      userID,
		BusinessID:  businessID,
		Role:        c.Role,
		Permissions: c.Permissions,
	}
	if c.BusinessMemberID != "" {
		memberID, err := uuid.Parse(c.BusinessMemberID)
		if err != nil {
			return identity.Identity{}, err
		}
		id.BusinessMemberID = &memberID
	}
	return id, nil
}

// JWTAuth validates the Bearer token on every protected route and resolves
// the caller's Identity once for the rest of the request.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}

		who, err := claims.Identity()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("token does not carry a valid identity"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(IdentityKey, who)
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), who))
		c.Next()
	}
}

// RequireRole rejects requests whose role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		who, ok := GetIdentity(c)
		if !ok || !allowed[who.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// RequirePermission rejects non-owners lacking the named permission flag.
func RequirePermission(perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := GetIdentity(c)
		if !ok || !who.Can(perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetIdentity retrieves the caller resolved by JWTAuth.
func GetIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return identity.Identity{}, false
	}
	who, ok := v.(identity.Identity)
	return who, ok
}
