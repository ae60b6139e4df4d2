package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const guestNamePrefix = "Guest_"

var (
	guestNameChars = []rune("0123456789abcdefghijklmnopqrstuvwxyz")
)

// GuestName returns a default display name such as "Guest_k3v9qa".
func GuestName() (string, error) {
	suffix, err := randomFrom(guestNameChars, 6)
	if err != nil {
		return "", err
	}
	return guestNamePrefix + suffix, nil
}

func randomFrom(alphabet []rune, n int) (string, error) {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		idx, err := RandomIntn(len(alphabet))
		if err != nil {
			return "", fmt.Errorf("generating random char index: %w", err)
		}
		sb.WriteRune(alphabet[idx])
	}
	return sb.String(), nil
}

func RandomIntn(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, fmt.Errorf("generating random number: %w", err)
	}
	return int(n.Int64()), nil
}

func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generating random bytes: %w", err)
	}
	return b, nil
}
