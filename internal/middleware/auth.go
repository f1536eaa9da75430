package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/geopulse-go/pkg/response"
)

const userIDKey = "userId"

// AuthConfig configures the Auth middleware
type AuthConfig struct {
	Secret []byte
	// When Disabled, every request acts as DefaultUser
	Disabled    bool
	DefaultUser string
}

// Auth resolves the calling user from an HS256 bearer token whose subject
// is the user ID
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Disabled {
			c.Set(userIDKey, cfg.DefaultUser)
			c.Next()
			return
		}

		userID, err := subjectFromHeader(c.GetHeader("Authorization"), cfg.Secret)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user of the request
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func subjectFromHeader(header string, secret []byte) (string, error) {
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", errors.New("missing bearer token")
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// IssueToken signs an HS256 token for userID. It backs the CLI's token
// command and tests.
func IssueToken(secret []byte, userID string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = userID
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
