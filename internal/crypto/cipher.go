package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// NonceSize - размер nonce для AES-GCM (12 bytes стандартный размер)
	NonceSize = 12
	// KeySize - длина ключа шифрования полей (AES-256)
	KeySize = 32
	// generationSize - префикс поколения ключа в сериализованном конверте
	generationSize = 4
	tagSize        = 16
)

var (
	// ErrEnvelopeTooShort indicates that ciphertext bytes cannot hold a valid envelope
	ErrEnvelopeTooShort = errors.New("encrypted data too short")

	// ErrDecrypt indicates authentication failure or corrupted ciphertext
	ErrDecrypt = errors.New("failed to decrypt")
)

// Envelope - зашифрованное значение поля вместе с поколением ключа,
// под которым оно было зашифровано.
type Envelope struct {
	Payload    []byte // nonce (12 bytes) + ciphertext + auth_tag (16 bytes)
	Generation uint32
}

// MarshalBinary сериализует конверт: generation (4 bytes BE) + payload
func (e Envelope) MarshalBinary() ([]byte, error) {
	out := make([]byte, generationSize, generationSize+len(e.Payload))
	binary.BigEndian.PutUint32(out, e.Generation)
	return append(out, e.Payload...), nil
}

// ParseEnvelope разбирает байты, полученные через MarshalBinary
func ParseEnvelope(data []byte) (Envelope, error) {
	if len(data) < generationSize+NonceSize+tagSize {
		return Envelope{}, ErrEnvelopeTooShort
	}
	payload := make([]byte, len(data)-generationSize)
	copy(payload, data[generationSize:])
	return Envelope{
		Generation: binary.BigEndian.Uint32(data[:generationSize]),
		Payload:    payload,
	}, nil
}

// Equal сравнивает конверты побайтно
func (e Envelope) Equal(other Envelope) bool {
	return e.Generation == other.Generation && bytes.Equal(e.Payload, other.Payload)
}

// Clone возвращает независимую копию конверта
func (e Envelope) Clone() Envelope {
	return Envelope{Generation: e.Generation, Payload: append([]byte(nil), e.Payload...)}
}

// Encrypt шифрует данные с использованием AES-256-GCM.
// Формат результата: nonce (12 bytes) + ciphertext + auth_tag (16 bytes).
// Пустой plaintext допустим: пустые зашифрованные поля встречаются в данных.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// GCM автоматически добавляет authentication tag в конец
	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, 0, len(nonce)+len(ciphertext))
	result = append(result, nonce...)
	result = append(result, ciphertext...)

	return result, nil
}

// Decrypt дешифрует данные, зашифрованные с помощью Encrypt
func Decrypt(encrypted, key []byte) ([]byte, error) {
	if len(encrypted) < NonceSize+tagSize {
		return nil, ErrEnvelopeTooShort
	}
	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := encrypted[:NonceSize]
	ciphertext := encrypted[NonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed or corrupted data: %w", ErrDecrypt, err)
	}
	if plaintext == nil {
		plaintext = []byte{}
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
