// Package id generates URL-safe identifiers for new rows.
package id

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID generates an identifier from UUIDv4 bytes encoded as base32. The
// identifier is 26 characters long, lowercase, and contains no padding.
func NewID() string {
	raw := uuid.Must(uuid.NewRandom())
	return strings.ToLower(encoding.EncodeToString(raw[:]))
}
