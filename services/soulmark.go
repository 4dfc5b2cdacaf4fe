package services

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const nonceSize = 32

// NonceSource returns fresh random bytes for each mint.
type NonceSource func() ([]byte, error)

// CryptoNonce reads nonceSize bytes from crypto/rand.
func CryptoNonce() ([]byte, error) {
	b := make([]byte, nonceSize)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return b, nil
}

// SoulMarkMinter derives SoulMarks: an HMAC-SHA256 keyed by the server
// secret over the payer email, the verification time and a random nonce,
// rendered as 64 hex characters.
type SoulMarkMinter struct {
	secret []byte
	nonce  NonceSource
}

// NewSoulMarkMinter fails when secret is empty.
func NewSoulMarkMinter(secret string, nonce NonceSource) (*SoulMarkMinter, error) {
	if secret == "" {
		return nil, errors.New("soulmark secret is required")
	}
	if nonce == nil {
		nonce = CryptoNonce
	}
	return &SoulMarkMinter{secret: []byte(secret), nonce: nonce}, nil
}

// Mint returns a new SoulMark for email at the given verification time.
func (m *SoulMarkMinter) Mint(email string, at time.Time) (string, error) {
	nonce, err := m.nonce()
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(email))
	mac.Write([]byte{0})
	mac.Write([]byte(at.UTC().Format(time.RFC3339Nano)))
	mac.Write([]byte{0})
	mac.Write(nonce)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
