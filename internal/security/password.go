package security

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/snake-eaterr/Snake-Way-Server/internal/usecase"
)

const DefaultBcryptCost = 10

type BcryptHasher struct {
	Cost int
}

var _ usecase.PasswordHasher = BcryptHasher{}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
