package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKDF - облегченные параметры Argon2id для тестов
var testKDF = KDFParams{Time: 1, Memory: 64, Threads: 1}

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	require.NoError(t, err)
	assert.Len(t, salt1, SaltSize)

	salt2, err := GenerateSalt()
	require.NoError(t, err)
	assert.NotEqual(t, salt1, salt2)
}

func TestDeriveControlKey(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		errMsg   string
		salt     []byte
		wantErr  bool
	}{
		{
			name:     "successful key derivation",
			password: "correct horse battery staple",
			salt:     salt,
		},
		{
			name:     "empty password",
			password: "",
			salt:     salt,
			wantErr:  true,
			errMsg:   "password cannot be empty",
		},
		{
			name:     "invalid salt length",
			password: "correct horse battery staple",
			salt:     make([]byte, 16),
			wantErr:  true,
			errMsg:   "salt must be 32 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveControlKey(tt.password, tt.salt, 1, testKDF)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, key)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key.fieldKey, KeySize)
			assert.Equal(t, uint32(1), key.Generation)
			assert.Equal(t, tt.salt, key.Salt())
		})
	}
}

func TestDeriveControlKey_Deterministic(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)

	k1, err := DeriveControlKey("password-one", salt, 1, testKDF)
	require.NoError(t, err)
	k2, err := DeriveControlKey("password-one", salt, 1, testKDF)
	require.NoError(t, err)
	k3, err := DeriveControlKey("password-two", salt, 1, testKDF)
	require.NoError(t, err)

	assert.Equal(t, k1.fieldKey, k2.fieldKey)
	assert.NotEqual(t, k1.fieldKey, k3.fieldKey)
}

func TestControlKey_SealOpen(t *testing.T) {
	key, err := NewControlKey("password-one", 3, testKDF)
	require.NoError(t, err)

	env, err := key.Seal([]byte("1234.56"))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), env.Generation)

	plain, err := key.Open(env)
	require.NoError(t, err)
	assert.Equal(t, []byte("1234.56"), plain)

	other := key.WithGeneration(4)
	_, err = other.Open(env)
	assert.ErrorIs(t, err, ErrUnknownGeneration)
}
