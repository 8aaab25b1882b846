package auth

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a salted password hash. Two calls with the
// same password return different hashes that both verify.
func HashPassword(password string) (string, error) {
	return BcryptHasher{}.HashPassword(password)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	return BcryptHasher{}.ComparePasswordAndHash(password, hash)
}

// VerifyPassword reports whether password matches hash. A malformed hash is
// a non match, not an error.
func VerifyPassword(password, hash string) bool {
	return ComparePasswordAndHash(password, hash) == nil
}

// BcryptHasher implements PasswordAuthenticator. A zero Cost uses the
// package default.
type BcryptHasher struct {
	Cost int
}

var _ PasswordAuthenticator = BcryptHasher{}

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return defaultHashCost
	}
	return b.Cost
}

func (b BcryptHasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost())
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrValidation.Clone().WithMetadata(map[string]any{
			"fields": map[string]string{
				"password": fmt.Sprintf("must be no more than %d bytes long", PasswordMaxBytes),
			},
		})
	}
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

func (b BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "unable to compare password hash").
			WithCode(goerrors.CodeUnauthorized)
	}
	return nil
}
