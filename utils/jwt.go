package utils

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrTokenExpired = errors.New("token expired")
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// CheckForwardedToken decides whether a storefront token may be forwarded to
// the booking API. With a shared secret the signature is verified as well;
// without one only the exp claim is checked.
func CheckForwardedToken(tokenString, secret string, now time.Time) error {
	if secret != "" {
		_, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return ErrTokenExpired
		}
		return err
	}

	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return err
	}
	exp, ok := claims["exp"]
	if !ok {
		return nil
	}
	expiresAt, ok := exp.(float64)
	if !ok {
		return errors.New("invalid exp claim")
	}
	if now.Unix() >= int64(expiresAt) {
		return ErrTokenExpired
	}
	return nil
}

type bearerKey struct{}

// WithBearerToken attaches the caller's token so upstream clients can forward it.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerTokenFrom returns the forwarded token, or "" when none was attached.
func BearerTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}
