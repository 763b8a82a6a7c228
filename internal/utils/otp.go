package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// OTPLength is the number of digits in a one-time passcode.
const OTPLength = 6

// GenerateOTP returns a 6-digit code whose digits are drawn uniformly from 1-9.
// Zero never appears, which keeps the code stable when it is read back as an integer.
func GenerateOTP() (string, error) {
	var b strings.Builder
	b.Grow(OTPLength)
	nine := big.NewInt(9)
	for i := 0; i < OTPLength; i++ {
		n, err := rand.Int(rand.Reader, nine)
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		b.WriteByte(byte('1' + n.Int64()))
	}
	return b.String(), nil
}

// CodesMatch compares a stored and a submitted code as integers, so "012345"
// and "12345" are equal. Non-numeric input never matches.
func CodesMatch(stored, submitted string) bool {
	a, err := strconv.ParseUint(strings.TrimSpace(stored), 10, 64)
	if err != nil {
		return false
	}
	b, err := strconv.ParseUint(strings.TrimSpace(submitted), 10, 64)
	if err != nil {
		return false
	}
	return a == b
}
