package middleware

import (
	"net/http"
	"strings"

	"marketplace/internal/logger"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/lo"
)

// Roles issued by the hosted auth provider in the "role" claim
const (
	RoleCustomer   = "customer"
	RoleSupplier   = "supplier"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

var (
	AdminRoles = []string{RoleAdmin, RoleSuperAdmin}
	AllRoles   = []string{RoleCustomer, RoleSupplier, RoleAdmin, RoleSuperAdmin}
)

const (
	ctxUserID   = "userID"
	ctxUserRole = "userRole"
)

// Auth builds role guards that verify HS256 tokens with one shared secret
type Auth struct {
	secret []byte
}

func NewAuth(secret []byte) *Auth {
	return &Auth{secret: secret}
}

// ParseClaims validates a token string and returns its claims
func ParseClaims(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RequireRole validates the JWT and checks the role claim against allowedRoles
func (a *Auth) RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, msg := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, msg))
			return
		}

		claims, err := ParseClaims(tokenString, a.secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		userRole, ok := claims["role"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Role not found in token"))
			return
		}

		if !hasRole(userRole, allowedRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}

		setIdentity(c, claims, userRole)
		c.Next()
	}
}

// OptionalAuth records the caller's identity when a valid token is present and
// lets anonymous requests through unchanged
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, _ := extractToken(c); tokenString != "" {
			if claims, err := ParseClaims(tokenString, a.secret); err == nil {
				if role, ok := claims["role"].(string); ok {
					setIdentity(c, claims, role)
				}
			}
		}
		c.Next()
	}
}

// UserID returns the subject of the verified token, or "" for anonymous requests
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func UserRole(c *gin.Context) string {
	return c.GetString(ctxUserRole)
}

// IsAdmin reports whether the verified caller holds an admin role
func IsAdmin(c *gin.Context) bool {
	return hasRole(UserRole(c), AdminRoles)
}

// extractToken reads the access_token cookie, falling back to the Authorization header
func extractToken(c *gin.Context) (string, string) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, ""
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization is missing"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", "Invalid authorization format. Expected 'Bearer <token>'"
	}
	return parts[1], ""
}

func setIdentity(c *gin.Context, claims jwt.MapClaims, role string) {
	sub, _ := claims["sub"].(string)
	c.Set(ctxUserID, sub)
	c.Set(ctxUserRole, role)
	if sub != "" {
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), sub))
	}
}

func hasRole(role string, allowed []string) bool {
	return lo.Contains(allowed, role)
}
