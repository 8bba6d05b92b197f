package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/infrastructure/auth"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Identity context keys
const (
	ClaimsKey     = "auth_claims"
	TenantIDKey   = "auth_tenant_id"
	UserIDKey     = "auth_user_id"
	RoleKey       = "auth_role"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// IdentityConfig holds configuration for the identity middleware
type IdentityConfig struct {
	Verifier TokenVerifier
	// SkipPaths are exact paths served without a token
	SkipPaths []string
	// SkipPathPrefixes are path prefixes served without a token
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// Identity resolves the caller's tenant, user and role from the bearer token
// and stores them on the gin context and the request logger.
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path, cfg) {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.Verifier.Verify(token)
		if err != nil {
			abortUnauthorized(c, log, err)
			return
		}
		tenantID, _ := claims.TenantUUID()
		userID, _ := claims.UserUUID()

		c.Set(ClaimsKey, claims)
		c.Set(TenantIDKey, tenantID)
		c.Set(UserIDKey, userID)
		c.Set(RoleKey, claims.Role)

		ctx := c.Request.Context()
		ctx, l := logger.WithTenantID(ctx, logger.FromContext(ctx), claims.TenantID)
		ctx, l = logger.WithUserID(ctx, l, claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(logger.GinLoggerKey, l)

		c.Next()
	}
}

func skipped(path string, cfg IdentityConfig) bool {
	for _, p := range cfg.SkipPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	if errors.Is(err, auth.ErrExpiredToken) {
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	}
	log.Debug("Authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, RequestIDFrom(c)))
}

// RequireRole rejects callers whose role is not one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeForbidden),
			dto.NewErrorResponse(dto.ErrCodeForbidden, "Insufficient role", RequestIDFrom(c)))
	}
}

// TenantID returns the authenticated tenant
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFrom(c, TenantIDKey)
}

// UserID returns the authenticated user
func UserID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFrom(c, UserIDKey)
}

// Claims returns the verified token claims
func Claims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func uuidFrom(c *gin.Context, key string) (uuid.UUID, bool) {
	v, ok := c.Get(key)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
