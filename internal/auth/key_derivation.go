package auth

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DerivedKeyLength is 32 bytes, which is what both HS256 and gorilla/csrf want.
const DerivedKeyLength = 32

const (
	purposeSession = "eventsignup-session-jwt-v1"
	purposeCSRF    = "eventsignup-csrf-v1"
)

var ErrInvalidMasterSecret = errors.New("master secret cannot be empty")

// DeriveKey derives a purpose-bound key from masterSecret with HKDF-SHA256.
// Different purposes give independent keys.
func DeriveKey(masterSecret []byte, purpose string) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, ErrInvalidMasterSecret
	}

	reader := hkdf.New(sha256.New, masterSecret, nil, []byte(purpose))
	key := make([]byte, DerivedKeyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// DeriveSessionKey derives the session token signing key from JWT_SECRET.
func DeriveSessionKey(masterSecret []byte) ([]byte, error) {
	return DeriveKey(masterSecret, purposeSession)
}

// DeriveCSRFKey derives the CSRF authentication key, used when no explicit
// CSRF_KEY is configured.
func DeriveCSRFKey(masterSecret []byte) ([]byte, error) {
	return DeriveKey(masterSecret, purposeCSRF)
}
