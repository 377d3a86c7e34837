package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ошибки проверки имен
var (
	// ErrEmpty indicates an empty value
	ErrEmpty = errors.New("value cannot be empty")

	// ErrTooLong indicates a value longer than allowed
	ErrTooLong = errors.New("value is too long")

	// ErrBadCharacters indicates a value with characters outside the allowed set
	ErrBadCharacters = errors.New("value contains invalid characters")
)

// CurrencyCodePattern - код валюты ISO 4217: три заглавные латинские буквы
var CurrencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

const (
	// MaxNameLen максимальная длина имени записи в символах
	MaxNameLen = 64
	// MinPasswordLen минимальная длина пароля контрольного ключа
	MinPasswordLen = 12
)

// ValidateName проверяет имя записи (счет, получатель, категория).
// Имя не пустое, без управляющих символов и пробелов по краям,
// не длиннее MaxNameLen символов.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmpty
	}

	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Errorf("%w: must not exceed %d characters", ErrTooLong, MaxNameLen)
	}

	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: leading or trailing spaces", ErrBadCharacters)
	}

	if strings.ContainsFunc(name, unicode.IsControl) {
		return fmt.Errorf("%w: control characters", ErrBadCharacters)
	}

	return nil
}

// ValidateCurrencyCode проверяет код валюты
func ValidateCurrencyCode(code string) error {
	if code == "" {
		return ErrEmpty
	}

	if !CurrencyCodePattern.MatchString(code) {
		return fmt.Errorf("%w: currency code must be three letters A-Z", ErrBadCharacters)
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю контрольного ключа
// Минимум 12 символов
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if utf8.RuneCountInString(password) < MinPasswordLen {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}
