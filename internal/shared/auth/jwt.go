package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

const (
	sessionAudience = "session"
	stateAudience   = "oauth-state"
	issuer          = "internship-backend"
)

// Claims represents the identity contained in a session token.
type Claims struct {
	Role         Role   `json:"role"`
	DepartmentID *int64 `json:"dept,omitempty"`
	Email        string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the caller identity.
func (c Claims) Actor() Actor {
	return Actor{UserID: c.Subject, Role: c.Role, DepartmentID: c.DepartmentID}
}

// StateClaims carries sign-in data across the OAuth redirect.
type StateClaims struct {
	InstitutionID *int64 `json:"inst,omitempty"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer. An empty secret is only accepted in dev-like environments.
func NewSigner(secret string, ttl time.Duration, devLike bool) (*Signer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if !devLike {
			return nil, fmt.Errorf("%w: JWT_SECRET required", errMissingSecret)
		}
		secret = "dev-secret"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// SignSession signs a session token for the actor.
func (s *Signer) SignSession(actor Actor, email string) (string, error) {
	if actor.UserID == "" {
		return "", errors.New("sub is required")
	}
	now := s.now().UTC()
	claims := Claims{
		Role:         actor.Role,
		DepartmentID: actor.DepartmentID,
		Email:        email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifySession verifies a session token and returns its claims.
func (s *Signer) VerifySession(token string) (Claims, error) {
	var claims Claims
	if err := s.parse(token, &claims, sessionAudience); err != nil {
		return Claims{}, err
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// SignState signs a short-lived OAuth state token.
func (s *Signer) SignState(institutionID *int64, nonce string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := StateClaims{
		InstitutionID: institutionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        nonce,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{stateAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyState verifies an OAuth state token.
func (s *Signer) VerifyState(token string) (StateClaims, error) {
	var claims StateClaims
	if err := s.parse(token, &claims, stateAudience); err != nil {
		return StateClaims{}, err
	}
	return claims, nil
}

func (s *Signer) parse(token string, claims jwt.Claims, audience string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
