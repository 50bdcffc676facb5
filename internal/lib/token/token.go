// Package token выпускает одноразовые токены (сброс пароля).
// В базе хранится только sha256 от токена.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const size = 32

// Generate возвращает случайный токен и его хэш для хранения.
func Generate() (raw, hash string, err error) {
	const op = "token.Generate"
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	raw = hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash возвращает hex(sha256(raw)).
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
