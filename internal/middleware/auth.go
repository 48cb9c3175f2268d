package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/models"
	"retail-cockpit-api/internal/services"
)

// Context keys set by Authentication and LoadProfile
const (
	UserIDKey  = "user_id"
	UIDKey     = "uid"
	EmailKey   = "email"
	NameKey    = "name"
	ClaimsKey  = "claims"
	ProfileKey = "profile"
)

// Claims represents JWT claims
type Claims struct {
	UserID string      `json:"user_id"`
	UID    string      `json:"uid,omitempty"`
	Email  string      `json:"email"`
	Name   string      `json:"name,omitempty"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret     string
	TokenDuration time.Duration
	Issuer        string
}

// AuthService issues and verifies bearer tokens
type AuthService struct {
	config *AuthConfig
	now    func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(config *AuthConfig) *AuthService {
	if config.TokenDuration == 0 {
		config.TokenDuration = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "retail-cockpit-api"
	}
	return &AuthService{config: config, now: time.Now}
}

// TokenDuration returns the lifetime of issued tokens
func (a *AuthService) TokenDuration() time.Duration {
	return a.config.TokenDuration
}

// GenerateToken signs a token for a stored profile and returns its expiry
func (a *AuthService) GenerateToken(profile *models.UserProfile) (string, time.Time, error) {
	if profile == nil || profile.ID == "" {
		return "", time.Time{}, fmt.Errorf("cannot issue token without a profile")
	}

	now := a.now()
	expiresAt := now.Add(a.config.TokenDuration)
	claims := &Claims{
		UserID: profile.ID,
		UID:    profile.UID,
		Email:  profile.Email,
		Name:   profile.Name,
		Role:   profile.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    a.config.Issuer,
			Subject:   profile.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(a.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.config.JWTSecret), nil
	}, jwt.WithIssuer(a.config.Issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Identity converts the claims into the lookup keys of a profile
func (c *Claims) Identity() services.Identity {
	return services.Identity{ID: c.UserID, UID: c.UID, Email: c.Email, Name: c.Name}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Authentication middleware that validates JWT tokens
func Authentication(authService *AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Unauthorized", "Authorization header is required")
			return
		}

		tokenString, ok := BearerToken(authHeader)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized", "Invalid authorization header format. Expected: Bearer <token>")
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error": err.Error(),
				"path":  c.Request.URL.Path,
			}).Warn("Token validation failed")
			abort(c, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(UIDKey, claims.UID)
		c.Set(EmailKey, claims.Email)
		c.Set(NameKey, claims.Name)
		c.Set(ClaimsKey, claims)

		c.Next()
	}
}

// ProfileResolver looks up the stored profile behind a token
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, identity services.Identity) (*models.UserProfile, error)
}

// LoadProfile resolves the caller's current profile so that role changes take
// effect without a new token. Pending accounts are rejected.
func LoadProfile(resolver ProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized", "Authentication required")
			return
		}

		profile, err := resolver.ResolveProfile(c.Request.Context(), claims.Identity())
		if err != nil {
			logrus.WithError(err).WithField(UserIDKey, claims.UserID).Error("Failed to resolve profile")
			abort(c, http.StatusInternalServerError, "Internal server error", "Failed to load user profile")
			return
		}
		if profile.IsPending() {
			abort(c, http.StatusForbidden, "Forbidden", services.ErrAccountPending.Error())
			return
		}

		c.Set(ProfileKey, profile)
		c.Next()
	}
}

// RequireCapability rejects callers whose role fails allowed
func RequireCapability(name string, allowed func(models.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleFromContext(c)
		if allowed(role) {
			c.Next()
			return
		}

		logrus.WithFields(logrus.Fields{
			"user_id":    c.GetString(UserIDKey),
			"role":       role,
			"capability": name,
			"path":       c.Request.URL.Path,
		}).Warn("Authorization failed - insufficient permissions")

		abort(c, http.StatusForbidden, "Forbidden", fmt.Sprintf("Insufficient permissions: %s required", name))
	}
}

// RequireManager allows admins, general managers and area managers
func RequireManager() gin.HandlerFunc {
	return RequireCapability("manage", models.CanManage)
}

// RequireUserAdmin allows admins and general managers
func RequireUserAdmin() gin.HandlerFunc {
	return RequireCapability("manage_users", models.CanManageUsers)
}

// RequireDataReset allows admins only
func RequireDataReset() gin.HandlerFunc {
	return RequireCapability("reset_data", models.CanResetData)
}

// ClaimsFromContext returns the verified token claims
func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

// ProfileFromContext returns the profile loaded by LoadProfile
func ProfileFromContext(c *gin.Context) (*models.UserProfile, bool) {
	v, ok := c.Get(ProfileKey)
	if !ok {
		return nil, false
	}
	profile, ok := v.(*models.UserProfile)
	return profile, ok && profile != nil
}

// RoleFromContext prefers the stored profile's role over the token's
func RoleFromContext(c *gin.Context) models.Role {
	if profile, ok := ProfileFromContext(c); ok {
		return profile.Role
	}
	if claims, ok := ClaimsFromContext(c); ok {
		return claims.Role
	}
	return ""
}

func abort(c *gin.Context, status int, title, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     title,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
