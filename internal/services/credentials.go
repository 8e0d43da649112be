package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"github.com/sbilibin2017/microblog/internal/models"
	"golang.org/x/crypto/argon2"
)

// hashKey is the fixed argon2 salt. The per-user salt is part of the hashed input.
var hashKey = []byte("microblog.secure-hash.v1")

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltBytes    = 32
)

// SecureHash is a deterministic one-way digest of s.
func SecureHash(s string) string {
	return hex.EncodeToString(argon2.IDKey([]byte(s), hashKey, argonTime, argonMemory, argonThreads, argonKeyLen))
}

// NewSalt returns a fresh random salt.
func NewSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// EncryptPassword hashes password with salt.
func EncryptPassword(salt, password string) string {
	return SecureHash(salt + "--" + password)
}

// HasPassword reports whether password is the one user submitted at
// registration or last update.
func HasPassword(user *models.UserDB, password string) bool {
	got := EncryptPassword(user.Salt, password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(user.EncryptedPassword)) == 1
}

// setPassword stores a new salt and the matching hash on user.
func setPassword(user *models.UserDB, password string) error {
	salt, err := NewSalt()
	if err != nil {
		return err
	}
	user.Salt = salt
	user.EncryptedPassword = EncryptPassword(salt, password)
	return nil
}
