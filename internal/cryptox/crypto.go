// Package cryptox implements password hashing for stored credentials.
//
// A candidate password is concatenated with a server-side secret, stretched
// with argon2id using the per-user salt, and the argon2 output is reduced to a
// fixed-length SHA-512 hex digest. Only the salt and the digest are persisted.
package cryptox

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"github.com/dmitrijs2005/itemkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing them invalidates every stored hash.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	saltSize = 16
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789abcdefghijklmnopqrstuvwxyz"

// Password is what gets stored for a user: hex salt and hex digest.
type Password struct {
	Salt string
	Hash string
}

// HashPassword derives a fresh salt and the stored digest for password.
func HashPassword(password string, secret string) (Password, error) {
	salt, err := common.MakeRandHexString(saltSize)
	if err != nil {
		return Password{}, err
	}
	digest, err := digest(password, secret, salt)
	if err != nil {
		return Password{}, err
	}
	return Password{Salt: salt, Hash: digest}, nil
}

// PasswordMatches recomputes the digest of candidate with the stored salt and
// compares it with hash in constant time. An empty hash never matches.
func PasswordMatches(salt, hash, candidate, secret string) bool {
	if hash == "" {
		return false
	}
	got, err := digest(candidate, secret, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(hash)) == 1
}

// GenerateRandomPassword returns an n-character password made of upper and
// lower case letters and digits.
func GenerateRandomPassword(n int) (string, error) {
	return common.MakeRandString(n, passwordAlphabet)
}

func digest(password, secret, hexSalt string) (string, error) {
	salt, err := hex.DecodeString(hexSalt)
	if err != nil {
		return "", err
	}
	stretched := argon2.IDKey([]byte(password+"+"+secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	sum := sha512.Sum512(stretched)
	return hex.EncodeToString(sum[:]), nil
}
