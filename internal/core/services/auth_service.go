package services

import (
	"context"
	"errors"
	"time"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/pkg/tracing"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Compared against when the email is unknown so both failure paths pay for
// one bcrypt comparison.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("vidshare-timing-equalizer"), bcrypt.DefaultCost)

// Claims is the credential payload. The user id is the only application claim.
type Claims struct {
	UserID domain.UserID `json:"user_id"`
	jwt.RegisteredClaims
}

type authService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	users     ports.UserRepository
	now       func() time.Time
}

// NewAuthService builds the session component. A zero tokenTTL issues tokens
// without an exp claim.
func NewAuthService(jwtSecret string, tokenTTL time.Duration, users ports.UserRepository) ports.AuthService {
	return &authService{
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		users:     users,
		now:       time.Now,
	}
}

func (s *authService) TokenTTL() time.Duration {
	return s.tokenTTL
}

func (s *authService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	ctx, span := tracing.TraceAuthOperation(ctx, "authenticate")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			tracing.RecordError(ctx, err)
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	span.SetAttributes(tracing.UserIDKey.Int64(int64(user.ID)))
	return user, nil
}

func (s *authService) IssueCredential(userID domain.UserID) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.tokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.tokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) VerifyCredential(tokenString string) (domain.UserID, bool) {
	if tokenString == "" {
		return 0, false
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, false
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return 0, false
	}
	return claims.UserID, true
}

func (s *authService) ResolveIdentity(ctx context.Context, token string) (*domain.User, bool) {
	userID, ok := s.VerifyCredential(token)
	if !ok {
		return nil, false
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, false
	}
	return user, true
}

func (s *authService) RequireAdmin(user *domain.User) error {
	if !user.IsAdmin() {
		return domain.ErrUnauthorized
	}
	return nil
}

// HashPassword returns the bcrypt digest stored on a user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
