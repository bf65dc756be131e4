package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                testSecret,
		Issuer:                "stockflow-idp",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

func signClaims(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService()
	actor := identity.NewActor(uuid.New(), identity.RoleStorekeeper, "Awa")

	token, expiresAt, err := svc.GenerateToken(actor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	got, err := svc.ActorFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestNewJWTService_DefaultExpiration(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: testSecret})
	assert.Equal(t, time.Hour, svc.expiration)
}

func TestJWTService_ValidateToken(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New().String()
	now := time.Now()

	valid := func() *Claims {
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "stockflow-idp",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
			UserID: userID,
			Role:   "DAF",
		}
	}

	tests := []struct {
		name    string
		token   func() string
		wantErr error
	}{
		{
			name:  "valid",
			token: func() string { return signClaims(t, valid(), testSecret) },
		},
		{
			name: "expired",
			token: func() string {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func() string {
				c := valid()
				c.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "wrong secret",
			token:   func() string { return signClaims(t, valid(), "another-secret-entirely-32-chars") },
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := valid()
				c.Issuer = "someone-else"
				return signClaims(t, c, testSecret)
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: func() string {
				token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, valid()).SignedString([]byte(testSecret))
				require.NoError(t, err)
				return token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   func() string { return "not.a.token" },
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestClaims_Actor(t *testing.T) {
	id := uuid.New()

	t.Run("user_id wins over subject", func(t *testing.T) {
		c := &Claims{UserID: id.String(), Role: "chef_service", Name: "IT"}
		c.Subject = uuid.New().String()
		actor, err := c.Actor()
		require.NoError(t, err)
		assert.Equal(t, id, actor.ID)
		assert.Equal(t, identity.RoleRequester, actor.Role)
	})

	t.Run("falls back to subject", func(t *testing.T) {
		c := &Claims{Role: "ADMIN"}
		c.Subject = id.String()
		actor, err := c.Actor()
		require.NoError(t, err)
		assert.Equal(t, id, actor.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := (&Claims{Role: "ADMIN"}).Actor()
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("malformed user id", func(t *testing.T) {
		_, err := (&Claims{UserID: "42", Role: "ADMIN"}).Actor()
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := (&Claims{UserID: id.String(), Role: "CEO"}).Actor()
		assert.ErrorIs(t, err, ErrUnknownRole)
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := map[string]string{
		"Bearer abc.def.ghi":  "abc.def.ghi",
		"bearer abc":          "abc",
		"  Bearer   spaced  ": "spaced",
		"Basic dXNlcjpwYXNz":  "",
		"abc.def.ghi":         "",
		"":                    "",
	}
	for header, want := range tests {
		assert.Equal(t, want, ExtractTokenFromHeader(header), header)
	}
}
