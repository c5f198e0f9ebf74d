package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password hash, a cost of zero uses the
// build default
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if cost == 0 {
		cost = passwordHashCost()
	}

	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return "", internalError(bcrypt.InvalidCostError(cost), "invalid bcrypt cost")
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", internalError(err, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return internalError(err, "failed to compare password hash")
	}
	return nil
}

// BcryptHasher is a PasswordAuthenticator with a fixed cost
type BcryptHasher struct {
	Cost int
}

func (b BcryptHasher) HashPassword(password string) (string, error) {
	return HashPassword(password, b.Cost)
}

func (b BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}
