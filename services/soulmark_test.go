package services_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/lawaid/soulsystem-backend/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticNonce() ([]byte, error) {
	return bytes.Repeat([]byte{0xab}, 32), nil
}

func TestSoulMarkMinter_Digest(t *testing.T) {
	minter, err := services.NewSoulMarkMinter("server-secret", staticNonce)
	require.NoError(t, err)

	mark, err := minter.Mint("a@x.com", fixedTime)
	require.NoError(t, err)

	nonce, _ := staticNonce()
	mac := hmac.New(sha256.New, []byte("server-secret"))
	mac.Write([]byte("a@x.com\x00" + fixedTime.Format(time.RFC3339Nano) + "\x00"))
	mac.Write(nonce)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), mark)
	assert.Regexp(t, soulMarkPattern, mark)
}

func TestSoulMarkMinter_UniquePerCall(t *testing.T) {
	nonce := &countingNonce{}
	minter, err := services.NewSoulMarkMinter("server-secret", nonce.Next)
	require.NoError(t, err)

	first, err := minter.Mint("a@x.com", fixedTime)
	require.NoError(t, err)
	second, err := minter.Mint("a@x.com", fixedTime)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	random, err := services.NewSoulMarkMinter("server-secret", nil)
	require.NoError(t, err)
	a, err := random.Mint("a@x.com", fixedTime)
	require.NoError(t, err)
	b, err := random.Mint("a@x.com", fixedTime)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSoulMarkMinter_Errors(t *testing.T) {
	_, err := services.NewSoulMarkMinter("", nil)
	assert.Error(t, err)

	minter, err := services.NewSoulMarkMinter("server-secret", func() ([]byte, error) {
		return nil, errors.New("entropy exhausted")
	})
	require.NoError(t, err)
	_, err = minter.Mint("a@x.com", fixedTime)
	assert.Error(t, err)
}
