package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrKeyMismatch indicates that a control key does not match the stored fingerprint
var ErrKeyMismatch = errors.New("control key does not match")

// Fingerprint хеширует ключ поля (SHA256, hex).
// Хранится рядом с данными, чтобы при загрузке отличить неверный пароль
// от поврежденного шифртекста.
func Fingerprint(key *ControlKey) (string, error) {
	if key == nil || len(key.fieldKey) == 0 {
		return "", fmt.Errorf("control key cannot be empty")
	}

	h := sha256.New()
	h.Write([]byte(fieldKeyContext))
	h.Write(key.fieldKey)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyFingerprint проверяет, соответствует ли ключ сохраненному отпечатку
func VerifyFingerprint(key *ControlKey, fingerprint string) error {
	if fingerprint == "" {
		return fmt.Errorf("fingerprint cannot be empty")
	}

	computed, err := Fingerprint(key)
	if err != nil {
		return fmt.Errorf("failed to compute fingerprint: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(computed), []byte(fingerprint)) != 1 {
		return ErrKeyMismatch
	}

	return nil
}
