package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/infrastructure/auth"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	"github.com/stockflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const AuthHeaderKey = "Authorization"

// ActorResolver turns a bearer token into an actor
type ActorResolver interface {
	ActorFromToken(token string) (identity.Actor, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Resolver ActorResolver
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	Logger    *zap.Logger
}

// DefaultJWTConfig returns default JWT middleware configuration
func DefaultJWTConfig(resolver ActorResolver, log *zap.Logger) JWTMiddlewareConfig {
	if log == nil {
		log = zap.NewNop()
	}
	return JWTMiddlewareConfig{
		Resolver:  resolver,
		SkipPaths: []string{"/health", "/api/v1/health"},
		Logger:    log,
	}
}

// JWTAuthMiddleware authenticates the bearer token and stores the actor on
// both the gin context and the request context.
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		token := auth.ExtractTokenFromHeader(c.GetHeader(AuthHeaderKey))
		if token == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing bearer token")
			return
		}

		actor, err := cfg.Resolver.ActorFromToken(token)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		c.Set(logger.GinActorKey, actor)
		// L(ctx) adds the actor fields, so the stored logger stays as is
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.ActorKey, actor))

		cfg.Logger.Debug("JWT authentication successful", logger.ActorFields(actor)...)
		c.Next()
	}
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	cfg.Logger.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, msg := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, msg = dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrUnknownRole):
		code, msg = dto.ErrCodeTokenInvalid, "Token carries an unknown role"
	case errors.Is(err, auth.ErrMissingUserID), errors.Is(err, auth.ErrInvalidClaims):
		code, msg = dto.ErrCodeTokenInvalid, "Token claims are invalid"
	case errors.Is(err, auth.ErrInvalidToken) && !strings.HasPrefix(message, "Missing"):
		code, msg = dto.ErrCodeTokenInvalid, "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, msg, GetRequestID(c)))
}

// GetActor returns the authenticated actor
func GetActor(c *gin.Context) (identity.Actor, bool) {
	v, exists := c.Get(logger.GinActorKey)
	if !exists {
		return identity.Actor{}, false
	}
	actor, ok := v.(identity.Actor)
	return actor, ok
}
