// AngelaMos | 2026
// cookie.go

package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/whome/internal/core"
)

const cookieIssuer = "whome"

// Codec signs session ids into cookie values. The id travels as the jti of
// an HS256 token so a forged or edited cookie never reaches the store.
type Codec struct {
	key    jwk.Key
	maxAge time.Duration
}

func NewCodec(secret string, maxAge time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret is empty")
	}

	key, err := jwk.Import([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("import session secret: %w", err)
	}

	return &Codec{key: key, maxAge: maxAge}, nil
}

func (c *Codec) Encode(sessionID string) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		JwtID(sessionID).
		Issuer(cookieIssuer).
		IssuedAt(now).
		Expiration(now.Add(c.maxAge)).
		Build()
	if err != nil {
		return "", fmt.Errorf("build session token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), c.key))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return string(signed), nil
}

func (c *Codec) Decode(value string) (string, error) {
	token, err := jwt.Parse(
		[]byte(value),
		jwt.WithKey(jwa.HS256(), c.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(cookieIssuer),
	)
	if err != nil {
		if isExpired(err) {
			return "", fmt.Errorf("decode session cookie: %w", core.ErrTokenExpired)
		}
		return "", fmt.Errorf("decode session cookie: %w", core.ErrTokenInvalid)
	}

	id, ok := token.JwtID()
	if !ok || id == "" {
		return "", fmt.Errorf(
			"decode session cookie: missing id: %w",
			core.ErrTokenInvalid,
		)
	}

	return id, nil
}

func isExpired(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "exp") && strings.Contains(msg, "not satisfied")
}
