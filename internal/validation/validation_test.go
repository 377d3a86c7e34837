package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:  "valid name",
			input: "Wages",
		},
		{
			name:  "valid name - with spaces inside",
			input: "Petty cash",
		},
		{
			name:  "valid name - cyrillic",
			input: "Зарплата",
		},
		{
			name:  "valid name - max length in runes",
			input: strings.Repeat("я", MaxNameLen),
		},
		{
			name:    "invalid - empty",
			input:   "",
			wantErr: ErrEmpty,
		},
		{
			name:    "invalid - too long",
			input:   strings.Repeat("a", MaxNameLen+1),
			wantErr: ErrTooLong,
		},
		{
			name:    "invalid - leading space",
			input:   " Wages",
			wantErr: ErrBadCharacters,
		},
		{
			name:    "invalid - trailing newline",
			input:   "Wages\n",
			wantErr: ErrBadCharacters,
		},
		{
			name:    "invalid - control character",
			input:   "Wa\x00ges",
			wantErr: ErrBadCharacters,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateCurrencyCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "valid code", code: "USD"},
		{name: "invalid - empty", code: "", wantErr: ErrEmpty},
		{name: "invalid - lowercase", code: "usd", wantErr: ErrBadCharacters},
		{name: "invalid - too short", code: "US", wantErr: ErrBadCharacters},
		{name: "invalid - digits", code: "US1", wantErr: ErrBadCharacters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCurrencyCode(tt.code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
		errMsg   string
	}{
		{
			name:     "valid password - exactly 12 chars",
			password: "abcdefghijkl",
			wantErr:  false,
		},
		{
			name:     "valid password - long passphrase",
			password: "correct horse battery staple",
			wantErr:  false,
		},
		{
			name:     "valid password - 12 cyrillic runes",
			password: "пароль-пароль",
			wantErr:  false,
		},
		{
			name:     "invalid - empty password",
			password: "",
			wantErr:  true,
			errMsg:   "password cannot be empty",
		},
		{
			name:     "invalid - too short",
			password: "short",
			wantErr:  true,
			errMsg:   "password must be at least 12 characters long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
