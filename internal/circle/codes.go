package circle

import (
	"math/rand/v2"
	"regexp"
)

const (
	// I and O are left out so codes read unambiguously on stream.
	codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeDigits  = "0123456789"

	maxCodeAttempts = 10
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6,12}$`)

// GenerateSessionCode returns three letters followed by three digits.
func GenerateSessionCode() string {
	b := make([]byte, 6)
	for i := 0; i < 3; i++ {
		b[i] = codeLetters[rand.IntN(len(codeLetters))]
	}
	for i := 3; i < 6; i++ {
		b[i] = codeDigits[rand.IntN(len(codeDigits))]
	}

	return string(b)
}

// ValidCode reports whether an already normalized code is well formed.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
