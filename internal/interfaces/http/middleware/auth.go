package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vendorportal/backend/internal/infrastructure/auth"
	"github.com/vendorportal/backend/internal/interfaces/http/dto"
)

// Gin context keys set by the auth middlewares.
const (
	// OperatorIDKey holds the authenticated operator's id.
	OperatorIDKey = "operator_id"
	// OperatorClaimsKey holds the full token claims.
	OperatorClaimsKey = "operator_claims"
)

// JWTAuth validates the bearer token on operator endpoints and stores the
// operator identity on the request context.
func JWTAuth(verifier *auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing or malformed Authorization header")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			code := dto.ErrCodeUnauthorized
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			abortUnauthorized(c, code, "Invalid access token")
			return
		}

		c.Set(OperatorIDKey, claims.OperatorID)
		c.Set(OperatorClaimsKey, claims)
		c.Next()
	}
}

// WebhookAuth validates the pre-shared bearer token on ERP-initiated webhook
// endpoints. An empty configured token disables the endpoint entirely.
func WebhookAuth(expectedToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expectedToken == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "Webhook endpoint is not enabled", GetRequestID(c)))
			return
		}

		token, ok := bearerToken(c)
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid webhook token")
			return
		}
		c.Next()
	}
}

// GetOperatorID returns the authenticated operator id set by JWTAuth.
func GetOperatorID(c *gin.Context) string {
	return c.GetString(OperatorIDKey)
}

// GetOperatorClaims returns the full token claims set by JWTAuth.
func GetOperatorClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(OperatorClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
