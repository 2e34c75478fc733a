package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters for new hashes. The encoding matches passlib's
// pbkdf2_sha256 so existing hashes keep verifying.
const (
	pbkdf2Scheme     = "pbkdf2-sha256"
	pbkdf2Iterations = 29000
	pbkdf2SaltLen    = 16
	pbkdf2KeyLen     = 32

	argon2Scheme = "argon2id"

	// upper bounds on parameters read back from stored hashes
	maxPBKDF2Iterations = 10_000_000
	maxArgon2Memory     = 1 << 20 // KiB
	maxArgon2Time       = 16
)

// CredentialStore implements ports.CredentialStore. New secrets are hashed
// with PBKDF2-HMAC-SHA256; Argon2id hashes are accepted on verify.
type CredentialStore struct {
	iterations int
}

// NewCredentialStore creates a credential store with the default work factor.
func NewCredentialStore() *CredentialStore {
	return &CredentialStore{iterations: pbkdf2Iterations}
}

// Hash returns $pbkdf2-sha256$<iterations>$<salt>$<key> for secret.
func (s *CredentialStore) Hash(secret string) (string, error) {
	salt := make([]byte, pbkdf2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := pbkdf2.Key([]byte(secret), salt, s.iterations, pbkdf2KeyLen, sha256.New)

	return fmt.Sprintf("$%s$%d$%s$%s", pbkdf2Scheme, s.iterations, ab64Encode(salt), ab64Encode(key)), nil
}

// Verify reports whether secret matches hash. Unknown schemes and malformed
// hashes report false.
func (s *CredentialStore) Verify(secret string, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) < 2 || parts[0] != "" {
		return false
	}

	switch parts[1] {
	case pbkdf2Scheme:
		return verifyPBKDF2(secret, parts)
	case argon2Scheme:
		return verifyArgon2(secret, parts)
	default:
		return false
	}
}

func verifyPBKDF2(secret string, parts []string) bool {
	if len(parts) != 5 {
		return false
	}

	iterations, err := strconv.Atoi(parts[2])
	if err != nil || iterations < 1 || iterations > maxPBKDF2Iterations {
		return false
	}

	salt, err := ab64Decode(parts[3])
	if err != nil {
		return false
	}
	want, err := ab64Decode(parts[4])
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(secret), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(want, got) == 1
}

// verifyArgon2 checks $argon2id$v=19$m=..,t=..,p=..$<salt>$<hash>.
func verifyArgon2(secret string, parts []string) bool {
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	if memory == 0 || memory > maxArgon2Memory || time == 0 || time > maxArgon2Time || threads == 0 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := argon2.IDKey([]byte(secret), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}

// ab64 is unpadded base64 with '.' in place of '+', as written by passlib.
func ab64Encode(b []byte) string {
	return strings.ReplaceAll(base64.RawStdEncoding.EncodeToString(b), "+", ".")
}

func ab64Decode(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.ReplaceAll(s, ".", "+"))
}
