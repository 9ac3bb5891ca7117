// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

// PasswordParams are the argon2id cost settings encoded into every stored
// hash, so a hash can always be verified with the settings it was made
// with.
type PasswordParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var DefaultPasswordParams = PasswordParams{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

func HashPassword(password string) (string, error) {
	return DefaultPasswordParams.Hash(password)
}

func (p PasswordParams) Hash(password string) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Time,
		p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	stored, err := parseHash(encodedHash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey(
		[]byte(password),
		stored.salt,
		stored.params.Time,
		stored.params.Memory,
		stored.params.Threads,
		stored.params.KeyLen,
	)

	return subtle.ConstantTimeCompare(stored.key, candidate) == 1, nil
}

// PasswordCheck is the outcome of CheckPassword. Rehash is set when the
// password matched a hash made with outdated parameters.
type PasswordCheck struct {
	Valid  bool
	Rehash string
}

var decoyHash = sync.OnceValue(func() string {
	hash, err := HashPassword("auratrack-decoy-password")
	if err != nil {
		panic(fmt.Sprintf("security: build decoy hash: %v", err))
	}
	return hash
})

// CheckPassword verifies a login attempt. A nil or empty stored hash means
// the account does not exist; a decoy hash is still verified so unknown
// and known emails take the same time to reject.
func CheckPassword(password string, stored *string) (PasswordCheck, error) {
	if stored == nil || *stored == "" {
		_, _ = VerifyPassword(password, decoyHash()) //nolint:errcheck // timing only
		return PasswordCheck{}, nil
	}

	valid, err := VerifyPassword(password, *stored)
	if err != nil || !valid {
		return PasswordCheck{}, err
	}

	check := PasswordCheck{Valid: true}
	if DefaultPasswordParams.outdated(*stored) {
		// A failed rehash leaves the old hash in place; the login still counts.
		if upgraded, hashErr := HashPassword(password); hashErr == nil {
			check.Rehash = upgraded
		}
	}

	return check, nil
}

type parsedHash struct {
	params PasswordParams
	salt   []byte
	key    []byte
}

// parseHash reads the PHC string form: $argon2id$v=19$m=..,t=..,p=..$salt$key
func parseHash(encoded string) (*parsedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}

	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported algorithm %q: %w", parts[1], ErrMalformedHash)
	}

	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, fmt.Errorf("unsupported version %q: %w", parts[2], ErrMalformedHash)
	}

	var out parsedHash
	for _, kv := range strings.Split(parts[3], ",") {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, ErrMalformedHash
		}

		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", name, ErrMalformedHash)
		}

		switch name {
		case "m":
			out.params.Memory = uint32(n)
		case "t":
			out.params.Time = uint32(n)
		case "p":
			if n > 255 {
				return nil, fmt.Errorf("param p: %w", ErrMalformedHash)
			}
			out.params.Threads = uint8(n)
		default:
			return nil, fmt.Errorf("unknown param %s: %w", name, ErrMalformedHash)
		}
	}

	if out.params.Memory == 0 || out.params.Time == 0 || out.params.Threads == 0 {
		return nil, ErrMalformedHash
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("decode salt: %w", ErrMalformedHash)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("decode key: %w", ErrMalformedHash)
	}

	out.params.SaltLen = len(out.salt)
	//nolint:gosec // G115: argon2id keys are a few dozen bytes
	out.params.KeyLen = uint32(len(out.key))

	return &out, nil
}

func (p PasswordParams) outdated(encoded string) bool {
	stored, err := parseHash(encoded)
	if err != nil {
		return true
	}

	return stored.params != p
}
