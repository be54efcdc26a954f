// Package auth provides the credential primitives of the server: password
// and token-secret hashing with versioned schemes, token-string signing, and
// username normalization.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// HashSchemeVersion tags which scheme produced a stored hash. Accounts still
// on a legacy scheme can be flagged compromised in bulk via
// set_accounts_compromised(OldHashes).
type HashSchemeVersion int16

const (
	// SchemeSHA256 is the legacy scheme: a single unsalted SHA-256. Kept
	// only to verify old rows; never used for new hashes.
	SchemeSHA256 HashSchemeVersion = 1
	// SchemeArgon2 is the current scheme: argon2id with a random 16-byte
	// salt.
	SchemeArgon2 HashSchemeVersion = 2

	// LatestScheme is what every new hash uses.
	LatestScheme = SchemeArgon2
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// Hash hashes a password or token secret with the latest scheme. The encoded
// form is self-contained (salt included).
func Hash(secret string) (string, HashSchemeVersion, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", 0, fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	encoded := fmt.Sprintf("%d$%s$%s",
		argonMemory,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, SchemeArgon2, nil
}

// Verify checks a candidate secret against a stored hash produced by the
// given scheme.
func Verify(secret, encoded string, scheme HashSchemeVersion) bool {
	switch scheme {
	case SchemeSHA256:
		sum := sha256.Sum256([]byte(secret))
		want, err := base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return false
		}
		return subtle.ConstantTimeCompare(sum[:], want) == 1
	case SchemeArgon2:
		parts := strings.SplitN(encoded, "$", 3)
		if len(parts) != 3 {
			return false
		}
		memory, err := strconv.Atoi(parts[0])
		if err != nil {
			return false
		}
		salt, err := base64.RawStdEncoding.DecodeString(parts[1])
		if err != nil {
			return false
		}
		want, err := base64.RawStdEncoding.DecodeString(parts[2])
		if err != nil {
			return false
		}
		key := argon2.IDKey([]byte(secret), salt, argonTime, uint32(memory), argonThreads, uint32(len(want)))
		return subtle.ConstantTimeCompare(key, want) == 1
	default:
		return false
	}
}
