package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// SaltSize - размер соли в байтах
	SaltSize = 32

	// fieldKeyContext - контекст HKDF для ключа шифрования полей
	fieldKeyContext = "moneykeeper field key"
)

// KDFParams - параметры Argon2id для деривации master-ключа
type KDFParams struct {
	Time    uint32 `json:"time"`    // количество итераций (time cost)
	Memory  uint32 `json:"memory"`  // объем памяти в KB
	Threads uint8  `json:"threads"` // количество параллельных потоков
}

// DefaultKDFParams - параметры для рабочих наборов данных (64MB, 1 итерация, 4 потока)
var DefaultKDFParams = KDFParams{Time: 1, Memory: 64 * 1024, Threads: 4}

// ControlKey - ключевой материал одного поколения.
// Все зашифрованные поля набора данных зашифрованы под текущим поколением.
type ControlKey struct {
	fieldKey   []byte
	salt       []byte
	params     KDFParams
	Generation uint32
}

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveControlKey генерирует ключ поколения generation из пароля и соли.
// Argon2id дает master-ключ, HKDF-SHA256 выводит из него ключ шифрования полей.
func DeriveControlKey(password string, salt []byte, generation uint32, params KDFParams) (*ControlKey, error) {
	if password == "" {
		return nil, fmt.Errorf("password cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	master := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, KeySize)
	defer zero(master)

	fieldKey := make([]byte, KeySize)
	r := hkdf.New(sha256.New, master, salt, []byte(fieldKeyContext))
	if _, err := io.ReadFull(r, fieldKey); err != nil {
		return nil, fmt.Errorf("failed to expand field key: %w", err)
	}

	return &ControlKey{
		Generation: generation,
		salt:       append([]byte(nil), salt...),
		params:     params,
		fieldKey:   fieldKey,
	}, nil
}

// NewControlKey создает ключ со свежей солью
func NewControlKey(password string, generation uint32, params KDFParams) (*ControlKey, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	return DeriveControlKey(password, salt, generation, params)
}

// Salt возвращает копию соли, нужна для повторной деривации при загрузке
func (k *ControlKey) Salt() []byte {
	return append([]byte(nil), k.salt...)
}

// Params возвращает параметры Argon2id, с которыми выведен ключ
func (k *ControlKey) Params() KDFParams { return k.params }

// WithGeneration возвращает тот же ключевой материал под другим поколением
func (k *ControlKey) WithGeneration(generation uint32) *ControlKey {
	return &ControlKey{
		Generation: generation,
		salt:       k.Salt(),
		params:     k.params,
		fieldKey:   append([]byte(nil), k.fieldKey...),
	}
}

// Seal шифрует plaintext ключом этого поколения
func (k *ControlKey) Seal(plaintext []byte) (Envelope, error) {
	payload, err := Encrypt(plaintext, k.fieldKey)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Generation: k.Generation, Payload: payload}, nil
}

// Open дешифрует конверт, зашифрованный этим поколением
func (k *ControlKey) Open(env Envelope) ([]byte, error) {
	if env.Generation != k.Generation {
		return nil, fmt.Errorf("%w: envelope generation %d, key generation %d",
			ErrUnknownGeneration, env.Generation, k.Generation)
	}
	return Decrypt(env.Payload, k.fieldKey)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
