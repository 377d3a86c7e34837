package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	key, err := NewControlKey("password-one", 1, testKDF)
	require.NoError(t, err)

	fp, err := Fingerprint(key)
	require.NoError(t, err)
	assert.Len(t, fp, 64, "SHA256 hex должен быть 64 символа")

	again, err := Fingerprint(key)
	require.NoError(t, err)
	assert.Equal(t, fp, again)

	_, err = Fingerprint(nil)
	assert.Error(t, err)
}

func TestVerifyFingerprint(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	key, err := DeriveControlKey("password-one", salt, 1, testKDF)
	require.NoError(t, err)
	wrong, err := DeriveControlKey("password-two", salt, 1, testKDF)
	require.NoError(t, err)

	fp, err := Fingerprint(key)
	require.NoError(t, err)

	assert.NoError(t, VerifyFingerprint(key, fp))
	assert.ErrorIs(t, VerifyFingerprint(wrong, fp), ErrKeyMismatch)
	assert.Error(t, VerifyFingerprint(key, ""))
}
