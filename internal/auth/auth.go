// Package auth covers admin login and bearer-token issuance/verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tryon-storefront/internal/domain"
	"tryon-storefront/internal/store"
)

// ErrInvalidCredentials signals a wrong password for an existing admin.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

const bcryptCost = 10

// Claims are the JWT claims carried by admin bearer tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	AdminID string `json:"id"`
}

// TokenIssuer signs and verifies HS256 admin tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer. Tokens are valid for ttl (24h in the
// stated contract).
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given admin.
func (t *TokenIssuer) Issue(email, adminID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email:   email,
		AdminID: adminID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
func (t *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}
	return claims, nil
}

// Service performs admin login.
type Service struct {
	admins store.AdminStorer
	issuer *TokenIssuer
}

func NewService(admins store.AdminStorer, issuer *TokenIssuer) *Service {
	return &Service{admins: admins, issuer: issuer}
}

// Login verifies credentials and returns a bearer token. The first-ever login
// with an unknown email creates the admin record with the given password;
// subsequent logins must match it.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.admins.GetAdminByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrAdminNotFound):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
		if hashErr != nil {
			return "", fmt.Errorf("auth: failed to hash password: %w", hashErr)
		}
		admin, err = s.admins.CreateAdmin(ctx, &domain.Admin{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: string(hash),
		})
		if err != nil {
			return "", fmt.Errorf("auth: failed to create admin: %w", err)
		}
		log.Printf("INFO: Created new admin user: %s", email)
	case err != nil:
		return "", fmt.Errorf("auth: failed to look up admin: %w", err)
	default:
		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
			return "", ErrInvalidCredentials
		}
	}

	return s.issuer.Issue(admin.Email, admin.ID)
}
