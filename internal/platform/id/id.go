// Package id mints journal record identifiers.
//
// An identifier is a UUIDv7 rendered as 26 lowercase base32hex characters, so
// identifiers created later sort after earlier ones and fit in file names.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Length is the size of every identifier.
const Length = 26

// The extended hex alphabet keeps byte order, so UUIDv7 time order survives.
var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// NewID returns a new time-ordered identifier.
func NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}
