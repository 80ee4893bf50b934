package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

const otpCharset = "0123456789"

// GenerateOTPCode returns an n-digit numeric code. Uses crypto/rand with
// math/big to avoid modulo bias.
func GenerateOTPCode(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid length")
	}
	var sb strings.Builder
	alphaLen := big.NewInt(int64(len(otpCharset)))
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, alphaLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(otpCharset[num.Int64()])
	}
	return sb.String(), nil
}
