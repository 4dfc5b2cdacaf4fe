package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/lawaid/soulsystem-backend/models"
)

// ErrVersionConflict is returned by Save when the stored document changed
// since it was loaded.
var ErrVersionConflict = errors.New("registry version conflict")

// Store persists the whole registry document. There is no field-level
// update: callers load, mutate in memory and save the full document.
//
// Load returns an opaque version token for the document it read ("" when
// nothing is stored yet). Save must fail with ErrVersionConflict when the
// currently stored version differs from expected.
type Store interface {
	Load(ctx context.Context) (*models.Registry, string, error)
	Save(ctx context.Context, doc *models.Registry, expected string) (string, error)
}

// contentVersion derives a version token from the encoded document.
func contentVersion(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
