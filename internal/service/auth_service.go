package service

import (
	"alcyxob/gym-manager/internal/domain"
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const tokenIssuer = "gym-manager"

// AuthService issues tokens for users authenticated by the UserManager.
type AuthService interface {
	Register(ctx context.Context, in NewMemberInput) (*domain.Member, error)
	Login(ctx context.Context, userID, password string) (token string, user domain.User, err error)
}

// authService implements the AuthService interface.
type authService struct {
	users         UserManager
	jwtSecret     string
	jwtExpiration time.Duration
	now           func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(users UserManager, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1
	}
	return &authService{
		users:         users,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}
}

// Register is public self-registration; new accounts are always members.
func (s *authService) Register(ctx context.Context, in NewMemberInput) (*domain.Member, error) {
	return s.users.RegisterMember(ctx, in)
}

// Login authenticates the user and signs a token carrying its id and role.
func (s *authService) Login(ctx context.Context, userID, password string) (token string, user domain.User, err error) {
	user, err = s.users.Login(ctx, userID, password)
	if err != nil {
		return "", nil, err
	}

	token, err = s.generateJWT(user.Base())
	if err != nil {
		return "", nil, ErrTokenGeneration
	}
	return token, user, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(account *domain.Account) (string, error) {
	issuedAt := s.now()
	claims := &jwtClaims{
		UserID: account.UserID,
		Role:   account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.UserID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
