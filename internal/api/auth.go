package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Auth modes.
const (
	AuthJWT    = "jwt"
	AuthHeader = "header"
)

// UserHeader carries the caller's user ID in header mode.
const UserHeader = "X-User-ID"

const localUserID = "user_id"

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Mode   string // "jwt" or "header"
	Secret string // HS256 signing secret in jwt mode
	Issuer string // required issuer, if set
}

func isProbe(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

// NewAuthMiddleware resolves the caller's user ID. In jwt mode it comes
// from the sub claim of an HS256 bearer token; in header mode it is taken
// from X-User-ID as is.
func NewAuthMiddleware(cfg AuthConfig, logger zerolog.Logger) fiber.Handler {
	parser := jwt.NewParser(jwtParserOptions(cfg)...)
	keyFunc := func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil }

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if isProbe(path) {
			return c.Next()
		}

		if cfg.Mode == AuthHeader {
			userID := strings.TrimSpace(c.Get(UserHeader))
			if userID == "" {
				return problemResponse(c, fiber.StatusUnauthorized,
					"missing_identity", "Unauthorized",
					UserHeader+" header is required")
			}
			c.Locals(localUserID, userID)
			return c.Next()
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization header must use Bearer scheme")
		}

		var claims jwt.RegisteredClaims
		_, err := parser.ParseWithClaims(strings.TrimPrefix(authHeader, "Bearer "), &claims, keyFunc)
		if err != nil || claims.Subject == "" {
			if err == nil {
				err = errors.New("token has no subject")
			}
			logger.Warn().
				Err(err).
				Str("path", path).
				Str("method", c.Method()).
				Msg("unauthorized request: invalid token")
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_token", "Unauthorized",
				"Invalid or expired token")
		}
		c.Locals(localUserID, claims.Subject)
		return c.Next()
	}
}

func jwtParserOptions(cfg AuthConfig) []jwt.ParserOption {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return opts
}

// IssueToken signs an HS256 token for userID valid for ttl.
func IssueToken(secret, issuer, userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// actorID returns the authenticated user of the request.
func actorID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}
