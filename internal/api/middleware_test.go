package api

import (
	"alcyxob/gym-manager/internal/domain"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := bearerToken(tt.header)
			if got != tt.want || ok != tt.ok {
				t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func signed(t *testing.T, secret string, claims tokenClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "mw-secret"

	router := gin.New()
	router.GET("/who", AuthMiddleware(secret), func(c *gin.Context) {
		p, ok := currentPrincipal(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"userId": p.UserID, "role": p.Role})
	})

	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		header string
		code   int
		errMsg string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + signed(t, secret, tokenClaims{UserID: "M1", Role: domain.RoleMember,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: past}}), http.StatusUnauthorized, "Token has expired"},
		{"wrong secret", "Bearer " + signed(t, "other", tokenClaims{UserID: "M1", Role: domain.RoleMember,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}), http.StatusUnauthorized, ""},
		{"unknown role", "Bearer " + signed(t, secret, tokenClaims{UserID: "M1", Role: "OWNER",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}), http.StatusUnauthorized, "Invalid token or missing claims"},
		{"no expiry", "Bearer " + signed(t, secret, tokenClaims{UserID: "M1", Role: domain.RoleMember}),
			http.StatusUnauthorized, "Invalid token or missing claims"},
		{"valid", "Bearer " + signed(t, secret, tokenClaims{UserID: "T7", Role: domain.RoleTrainer,
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.code, w.Body.String())
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if tt.errMsg != "" && body["error"] != tt.errMsg {
				t.Errorf("error = %v, want %q", body["error"], tt.errMsg)
			}
			if tt.code == http.StatusOK && (body["userId"] != "T7" || body["role"] != "TRAINER") {
				t.Errorf("unexpected principal %v", body)
			}
		})
	}
}
