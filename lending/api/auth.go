package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/AntonStoeckl/lending-workflow-go/lending/core"
)

const identityContextKey = "identity"

var (
	// ErrMissingSubject is returned when a token carries no member id.
	ErrMissingSubject = errors.New("token has no subject")

	// ErrSigningToken is returned when a token cannot be signed.
	ErrSigningToken = errors.New("signing token failed")
)

func (s *Server) authentication() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(s.settings.JWTSecret),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		TokenLookup:   "cookie:" + s.settings.CookieName,
		ContextKey:    identityContextKey,
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return &jwt.RegisteredClaims{}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		},
	})
}

// actorFrom returns the member id of the authenticated caller.
func actorFrom(c echo.Context) (core.MemberIDString, error) {
	token, ok := c.Get(identityContextKey).(*jwt.Token)
	if !ok || token == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	return claims.Subject, nil
}

// IssueToken signs an identity token for memberID, valid for ttl from now.
// lendingd uses it to mint development cookies; in production the external authenticator issues them.
func IssueToken(secret string, memberID core.MemberIDString, ttl time.Duration, now time.Time) (string, error) {
	if memberID == "" {
		return "", ErrMissingSubject
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   memberID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Join(ErrSigningToken, err)
	}

	return signed, nil
}
