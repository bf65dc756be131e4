// Package auth validates identity-provider bearer tokens and turns them into actors.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/infrastructure/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrUnknownRole      = errors.New("unknown role in claims")
)

// Claims are the claims the identity provider puts in access tokens
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}

// Actor converts validated claims into the engine's actor
func (c *Claims) Actor() (identity.Actor, error) {
	raw := c.UserID
	if raw == "" {
		raw = c.Subject
	}
	if raw == "" {
		return identity.Actor{}, ErrMissingUserID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return identity.Actor{}, ErrInvalidClaims
	}
	role := identity.Role(strings.ToUpper(strings.TrimSpace(c.Role)))
	if !role.IsValid() {
		return identity.Actor{}, ErrUnknownRole
	}
	return identity.NewActor(id, role, c.Name), nil
}

// JWTService validates HS256 access tokens. It can also mint them for tooling and tests.
type JWTService struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	expiration := cfg.AccessTokenExpiration
	if expiration == 0 {
		expiration = time.Hour
	}
	return &JWTService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: expiration,
	}
}

// GenerateToken mints a signed access token for actor
func (s *JWTService) GenerateToken(actor identity.Actor) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   actor.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: actor.ID.String(),
		Role:   actor.Role.String(),
		Name:   actor.Name,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken checks the signature, time window and issuer and returns the claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// ActorFromToken validates tokenString and returns the actor it identifies
func (s *JWTService) ActorFromToken(tokenString string) (identity.Actor, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return identity.Actor{}, err
	}
	return claims.Actor()
}

// ExtractTokenFromHeader returns the token of a "Bearer <token>" header
func ExtractTokenFromHeader(authHeader string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
