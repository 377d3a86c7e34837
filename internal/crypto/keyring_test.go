package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyring_SealOpenAcrossGenerations(t *testing.T) {
	k1, err := NewControlKey("password-one", 1, testKDF)
	require.NoError(t, err)
	k2, err := NewControlKey("password-two", 2, testKDF)
	require.NoError(t, err)

	ring := NewKeyring(k1)
	old, err := ring.Seal([]byte("old"))
	require.NoError(t, err)

	require.NoError(t, ring.Install(k2))
	assert.Equal(t, uint32(2), ring.Generation())

	fresh, err := ring.Seal([]byte("new"))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), fresh.Generation)

	// Старое поколение по-прежнему читается, пока ключ не удален
	plain, err := ring.Open(old)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), plain)

	ring.Retire(1)
	_, err = ring.Open(old)
	assert.ErrorIs(t, err, ErrUnknownGeneration)

	// Текущий ключ не удаляется
	ring.Retire(2)
	_, ok := ring.Key(2)
	assert.True(t, ok)
}

func TestKeyring_InstallRejectsOlderGeneration(t *testing.T) {
	k1, err := NewControlKey("password-one", 5, testKDF)
	require.NoError(t, err)
	ring := NewKeyring(k1)

	assert.Error(t, ring.Install(k1.WithGeneration(5)))
	assert.Error(t, ring.Install(k1.WithGeneration(4)))
}

func TestKeyring_Clone(t *testing.T) {
	k1, err := NewControlKey("password-one", 1, testKDF)
	require.NoError(t, err)
	ring := NewKeyring(k1)
	cp := ring.Clone()

	require.NoError(t, cp.Install(k1.WithGeneration(2)))
	assert.Equal(t, uint32(1), ring.Generation(), "clone must not affect original")
	assert.Equal(t, uint32(2), cp.Generation())
}
