package users

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const unusablePrefix = '!'

// hashPassword returns a bcrypt hash, or an unusable marker when password is
// empty so the account cannot log in until a password is set.
func hashPassword(password string) (string, error) {
	if password == "" {
		buf := make([]byte, 20)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return string(unusablePrefix) + hex.EncodeToString(buf), nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	if hash == "" || hash[0] == unusablePrefix {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
