package crypto

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownGeneration indicates that no key of the envelope's generation is available
var ErrUnknownGeneration = errors.New("unknown control key generation")

// Keyring хранит ключи по поколениям. Шифрование всегда идет текущим
// поколением, дешифрование - поколением, записанным в конверте.
type Keyring struct {
	keys    map[uint32]*ControlKey
	current *ControlKey
	mu      sync.RWMutex
}

// NewKeyring создает связку ключей с единственным (текущим) ключом
func NewKeyring(key *ControlKey) *Keyring {
	return &Keyring{
		keys:    map[uint32]*ControlKey{key.Generation: key},
		current: key,
	}
}

// Current возвращает текущий ключ; у nil-связки ключа нет
func (r *Keyring) Current() *ControlKey {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.current
}

// Generation возвращает номер текущего поколения
func (r *Keyring) Generation() uint32 {
	return r.Current().Generation
}

// Key возвращает ключ заданного поколения
func (r *Keyring) Key(generation uint32) (*ControlKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[generation]
	return k, ok
}

// Seal шифрует plaintext текущим поколением
func (r *Keyring) Seal(plaintext []byte) (Envelope, error) {
	return r.Current().Seal(plaintext)
}

// Open дешифрует конверт ключом его поколения
func (r *Keyring) Open(env Envelope) ([]byte, error) {
	k, ok := r.Key(env.Generation)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGeneration, env.Generation)
	}
	return k.Open(env)
}

// Install добавляет ключ и делает его текущим.
// Поколение нового ключа должно быть больше текущего.
func (r *Keyring) Install(key *ControlKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key.Generation <= r.current.Generation {
		return fmt.Errorf("generation %d must be greater than current %d", key.Generation, r.current.Generation)
	}
	r.keys[key.Generation] = key
	r.current = key
	return nil
}

// Retire удаляет ключ поколения. Текущий ключ удалить нельзя.
func (r *Keyring) Retire(generation uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if generation == r.current.Generation {
		return
	}
	delete(r.keys, generation)
}

// Clone возвращает независимую связку с теми же ключами. Копия nil - nil.
func (r *Keyring) Clone() *Keyring {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make(map[uint32]*ControlKey, len(r.keys))
	for g, k := range r.keys {
		keys[g] = k
	}
	return &Keyring{keys: keys, current: r.current}
}
