package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"gastos/internal/log"
)

const ownerKey = "owner"

var (
	errMissingToken = errors.New("missing bearer token")
	errNoSubject    = errors.New("token has no subject")
)

// Authenticator verifies HS256 bearer tokens. The token subject is the
// ledger owner.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for the shared secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken signs a token for owner valid for ttl.
func (a *Authenticator) IssueToken(owner string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   owner,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Owner validates a raw token and returns its subject.
func (a *Authenticator) Owner(raw string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("authentication is not configured")
	}
	if raw == "" {
		return "", errMissingToken
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errNoSubject
	}
	return claims.Subject, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// owner on the gin context.
func (a *Authenticator) Middleware(logger *log.Logger) gin.HandlerFunc {
	logger = logger.WithComponent(log.ComponentAuth)
	return func(c *gin.Context) {
		owner, err := a.Owner(bearerToken(c.Request))
		if err != nil {
			logger.WarnContext(c.Request.Context(), "Rejected request",
				log.FieldPath, c.Request.URL.Path,
				log.FieldError, err)
			c.Header("WWW-Authenticate", `Bearer realm="gastos"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}
