// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var errHashFormat = errors.New("invalid password hash")

// PasswordParams are the argon2id costs stamped into every encoded hash.
type PasswordParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

var DefaultPasswordParams = PasswordParams{
	Time:      1,
	MemoryKiB: 64 * 1024,
	Threads:   4,
	KeyLen:    32,
	SaltLen:   16,
}

// PasswordHasher hashes account passwords in the PHC argon2id format.
// Hashes written with other costs keep verifying and are reissued with the
// hasher's own costs on the next successful check.
type PasswordHasher struct {
	params PasswordParams
	decoy  func() string
}

func NewPasswordHasher(params PasswordParams) *PasswordHasher {
	h := &PasswordHasher{params: params}
	h.decoy = sync.OnceValue(func() string {
		encoded, err := h.Hash("whome-decoy-password")
		if err != nil {
			return ""
		}
		return encoded
	})
	return h
}

func (h *PasswordHasher) Params() PasswordParams {
	return h.params
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argonDigest{params: h.params, salt: salt}
	digest.key = digest.derive(password)

	return digest.String(), nil
}

// Check reports whether password matches encoded. An empty encoded hash
// still pays for one derivation, so a missing account answers as slowly as
// a wrong password. upgraded is non-empty when the stored costs are stale
// and holds the replacement hash.
func (h *PasswordHasher) Check(
	password, encoded string,
) (ok bool, upgraded string, err error) {
	if encoded == "" {
		if decoy, decoyErr := parseArgonDigest(h.decoy()); decoyErr == nil {
			decoy.matches(password)
		}
		return false, "", nil
	}

	stored, err := parseArgonDigest(encoded)
	if err != nil {
		return false, "", err
	}

	if !stored.matches(password) {
		return false, "", nil
	}

	if stored.params == h.params {
		return true, "", nil
	}

	fresh, err := h.Hash(password)
	if err != nil {
		//nolint:nilerr // the password matched; the upgrade waits for the next login
		return true, "", nil
	}

	return true, fresh, nil
}

type argonDigest struct {
	params PasswordParams
	salt   []byte
	key    []byte
}

func (d argonDigest) derive(password string) []byte {
	return argon2.IDKey(
		[]byte(password),
		d.salt,
		d.params.Time,
		d.params.MemoryKiB,
		d.params.Threads,
		d.params.KeyLen,
	)
}

func (d argonDigest) matches(password string) bool {
	return subtle.ConstantTimeCompare(d.key, d.derive(password)) == 1
}

func (d argonDigest) String() string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		d.params.MemoryKiB,
		d.params.Time,
		d.params.Threads,
		base64.RawStdEncoding.EncodeToString(d.salt),
		base64.RawStdEncoding.EncodeToString(d.key),
	)
}

// parseArgonDigest reads $argon2id$v=19$m=..,t=..,p=..$salt$key.
func parseArgonDigest(encoded string) (argonDigest, error) {
	var d argonDigest

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return d, errHashFormat
	}
	if parts[1] != "argon2id" {
		return d, fmt.Errorf("%w: algorithm %q", errHashFormat, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return d, fmt.Errorf("%w: %w", errHashFormat, err)
	}
	if version != argon2.Version {
		return d, fmt.Errorf("%w: version %d", errHashFormat, version)
	}

	if _, err := fmt.Sscanf(
		parts[3],
		"m=%d,t=%d,p=%d",
		&d.params.MemoryKiB,
		&d.params.Time,
		&d.params.Threads,
	); err != nil {
		return d, fmt.Errorf("%w: %w", errHashFormat, err)
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return d, fmt.Errorf("%w: salt: %w", errHashFormat, err)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return d, fmt.Errorf("%w: key: %w", errHashFormat, err)
	}
	if len(d.key) == 0 {
		return d, fmt.Errorf("%w: empty key", errHashFormat)
	}

	//nolint:gosec // G115: salt and key are a few dozen bytes
	d.params.SaltLen, d.params.KeyLen = uint32(len(d.salt)), uint32(len(d.key))

	return d, nil
}

// NewToken returns 32 random bytes hex-encoded. Tokens travel in URL path
// segments; only HashToken of one is ever stored.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
