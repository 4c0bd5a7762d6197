// Package auth guards administrative endpoints with a bearer token whose
// pbkdf2 hash is stored in configuration.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrInvalidToken is returned when a token does not match the stored hash
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedHash is returned when a stored hash cannot be parsed
	ErrMalformedHash = errors.New("malformed token hash")
	// ErrNoToken is returned when admin access is attempted without a configured hash
	ErrNoToken = errors.New("no admin token configured")
)

const (
	hashScheme     = "pbkdf2-sha256"
	saltLength     = 16
	iterationCount = 4096
	keyLength      = 32
	tokenLength    = 32
)

// GenerateToken returns a random URL-safe token
func GenerateToken() (string, error) {
	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(tokenBytes), nil
}

// HashToken derives a storable hash of token with a random salt.
// The result has the form pbkdf2-sha256$<iterations>$<salt>$<key>.
func HashToken(token string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(token), salt, iterationCount, keyLength, sha256.New)

	return strings.Join([]string{
		hashScheme,
		strconv.Itoa(iterationCount),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

// VerifyToken checks token against a hash produced by HashToken
func VerifyToken(token, hash string) error {
	salt, key, iterations, err := parseHash(hash)
	if err != nil {
		return err
	}
	derived := pbkdf2.Key([]byte(token), salt, iterations, len(key), sha256.New)
	if !hmac.Equal(derived, key) {
		return ErrInvalidToken
	}
	return nil
}

// ValidateHash reports whether hash is well formed
func ValidateHash(hash string) error {
	_, _, _, err := parseHash(hash)
	return err
}

func parseHash(hash string) (salt, key []byte, iterations int, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 4 || parts[0] != hashScheme {
		return nil, nil, 0, ErrMalformedHash
	}
	iterations, err = strconv.Atoi(parts[1])
	if err != nil || iterations < 1 {
		return nil, nil, 0, fmt.Errorf("%w: bad iteration count", ErrMalformedHash)
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: bad salt: %v", ErrMalformedHash, err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: bad key", ErrMalformedHash)
	}
	return salt, key, iterations, nil
}

// ParseAuthHeader parses an Authorization header (Bearer token)
func ParseAuthHeader(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}
