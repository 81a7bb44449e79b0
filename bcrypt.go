package ayurcare

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password
// against the stored digest. A mismatch is a normal authentication
// failure; a stored hash bcrypt cannot parse is a corrupt credential and
// is reported as an internal error, never retried.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, ErrCorruptCredential.Category, ErrCorruptCredential.Message).
			WithTextCode(ErrCorruptCredential.TextCode).
			WithCode(ErrCorruptCredential.Code)
	}
	return nil
}
