package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultSaltRounds = 10

// MaxPasswordBytes bcrypt 只用前 72 字节，更长的直接拒绝
const MaxPasswordBytes = 72

var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// BcryptHasher 密码哈希（cost 即 SALT_ROUNDS）
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultSaltRounds
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{Cost: cost}, nil
}

func (h *BcryptHasher) Hash(pw string) (string, error) {
	if len(pw) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare 不匹配返回 (false, nil)；哈希本身损坏等情况返回 error
func (h *BcryptHasher) Compare(hashed, pw string) (bool, error) {
	// 注册时已拒绝超长密码，不可能匹配
	if len(pw) > MaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}
