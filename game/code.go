package game

import "golang.org/x/exp/rand"

const codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewCode generates a short human-shareable game code. Uniqueness is
// best-effort; the caller retries on a collision at insert time.
func NewCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		code[i] = codeLetters[rand.Intn(len(codeLetters))]
	}
	return string(code)
}
