package api

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const principalKey = "principal"

// principal is the authenticated caller, taken from the token claims.
type principal struct {
	UserID string
	Role   domain.Role
}

func (p principal) isStaff() bool {
	return p.Role == domain.RoleAdmin || p.Role == domain.RoleTrainer
}

// tokenClaims matches the payload signed by the auth service.
type tokenClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and stores the caller in the context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
			return
		}

		claims := &tokenClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, keyFunc)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			abortWithError(c, http.StatusUnauthorized, "Token has expired")
			return
		case err != nil:
			abortWithError(c, http.StatusUnauthorized, "Invalid token: "+err.Error())
			return
		case !token.Valid || claims.UserID == "" || !claims.Role.Valid() || claims.ExpiresAt == nil:
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		c.Set(principalKey, principal{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RoleMiddleware admits only the listed roles. Must run after AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := currentPrincipal(c)
		if !ok {
			return
		}
		for _, role := range allowedRoles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		abortForbidden(c, p.Role)
	}
}

// currentPrincipal aborts with 500 when AuthMiddleware did not run.
func currentPrincipal(c *gin.Context) (principal, bool) {
	v, exists := c.Get(principalKey)
	p, ok := v.(principal)
	if !exists || !ok {
		abortWithError(c, http.StatusInternalServerError, "authenticated user missing from request context")
		return principal{}, false
	}
	return p, true
}

// requireSelfOrStaff lets admins and trainers act on any member and members
// only on themselves.
func requireSelfOrStaff(c *gin.Context, memberID string) bool {
	p, ok := currentPrincipal(c)
	if !ok {
		return false
	}
	if !p.isStaff() && p.UserID != memberID {
		abortWithError(c, http.StatusForbidden, "Members may only access their own records")
		return false
	}
	return true
}

// requireStaff rejects members on routes where only some variants are shared with them.
func requireStaff(c *gin.Context) bool {
	p, ok := currentPrincipal(c)
	if !ok {
		return false
	}
	if !p.isStaff() {
		abortForbidden(c, p.Role)
		return false
	}
	return true
}

func abortForbidden(c *gin.Context, role domain.Role) {
	abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", role))
}

// --- Responses ---

func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return false
	}
	return true
}

var statusByKind = map[string]int{
	service.KindValidation: http.StatusBadRequest,
	service.KindNotFound:   http.StatusNotFound,
	service.KindConflict:   http.StatusConflict,
	service.KindState:      http.StatusUnprocessableEntity,
	service.KindAuth:       http.StatusUnauthorized,
}

// respondError renders a manager failure as {"error", "kind"}. Unexpected
// errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	kind := service.ErrorKind(err)
	code, ok := statusByKind[kind]
	if !ok {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred", "kind": kind})
		return
	}
	body := gin.H{"error": err.Error(), "kind": kind}
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		body["fields"] = vErr.FieldErrors
	}
	c.AbortWithStatusJSON(code, body)
}
