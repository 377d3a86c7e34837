package record

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iudanet/moneykeeper/internal/crypto"
)

// Cipher seals and opens field plaintext. *crypto.Keyring implements it.
type Cipher interface {
	Seal(plaintext []byte) (crypto.Envelope, error)
	Open(env crypto.Envelope) ([]byte, error)
}

// Ciphertext marks loader input that is already an encrypted envelope
// (the bytes produced by crypto.Envelope.MarshalBinary).
type Ciphertext []byte

// PairState tells which halves of an EncryptedPair are present.
type PairState uint8

const (
	// PairPlain: plaintext only, exists during construction until sealed.
	PairPlain PairState = iota
	// PairSealed: ciphertext only, loaded and not yet read.
	PairSealed
	// PairBoth: ciphertext plus cached plaintext.
	PairBoth
)

// EncryptedPair is the dual plaintext/ciphertext representation of a
// sensitive field. The plaintext half is kept in memory only.
type EncryptedPair struct {
	plain any
	env   crypto.Envelope
	state PairState
}

// NewPlainPair builds a pair holding plaintext only; it is sealed when the
// value enters a record.
func NewPlainPair(plain any) *EncryptedPair {
	return &EncryptedPair{plain: plain, state: PairPlain}
}

// NewSealedPair builds a pair from an envelope.
func NewSealedPair(env crypto.Envelope) *EncryptedPair {
	return &EncryptedPair{env: env.Clone(), state: PairSealed}
}

// State returns which halves are present.
func (p *EncryptedPair) State() PairState { return p.state }

// Envelope returns the ciphertext half.
func (p *EncryptedPair) Envelope() (crypto.Envelope, bool) {
	return p.env, p.state != PairPlain
}

// Plain returns the cached plaintext half.
func (p *EncryptedPair) Plain() (any, bool) {
	return p.plain, p.state != PairSealed
}

// Generation returns the control key generation of the ciphertext.
func (p *EncryptedPair) Generation() uint32 { return p.env.Generation }

func (p *EncryptedPair) sameAs(o *EncryptedPair) bool {
	if p == o {
		return true
	}
	if p == nil || o == nil {
		return false
	}
	if p.state != PairPlain && o.state != PairPlain && p.env.Equal(o.env) {
		return true
	}
	if p.state != PairSealed && o.state != PairSealed {
		return scalarEqual(p.plain, o.plain)
	}
	return false
}

// seal encrypts plain under c and returns a pair in the PairBoth state.
func seal(c Cipher, dt DataType, plain any) (*EncryptedPair, error) {
	if c == nil {
		return nil, ErrNoCipher
	}
	b, err := EncodeScalar(dt, plain)
	if err != nil {
		return nil, err
	}
	env, err := c.Seal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt field: %w", err)
	}
	return &EncryptedPair{plain: plain, env: env, state: PairBoth}, nil
}

// open returns the plaintext, decrypting and caching it on first use.
func open(c Cipher, dt DataType, p *EncryptedPair) (any, error) {
	if p.state != PairSealed {
		return p.plain, nil
	}
	if c == nil {
		return nil, ErrNoCipher
	}
	b, err := c.Open(p.env)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt field: %w", err)
	}
	v, err := DecodeScalar(dt, b)
	if err != nil {
		return nil, err
	}
	p.plain = v
	p.state = PairBoth
	return v, nil
}

// Reseal decrypts the pair under from and encrypts the same bytes under to.
// The receiver is not modified.
func (p *EncryptedPair) Reseal(from, to Cipher) (*EncryptedPair, error) {
	if p.state == PairPlain {
		return nil, fmt.Errorf("%w: pair was never sealed", ErrNoCipher)
	}
	b, err := from.Open(p.env)
	if err != nil {
		return nil, err
	}
	env, err := to.Seal(b)
	if err != nil {
		return nil, err
	}
	out := &EncryptedPair{env: env, state: PairSealed}
	if p.state == PairBoth {
		out.plain = p.plain
		out.state = PairBoth
	}
	return out, nil
}

// coerce converts loader or editor input into the canonical scalar for dt.
func coerce(dt DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch dt {
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Integer:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int32:
			return int64(n), nil
		case int64:
			return n, nil
		case uint32:
			return int64(n), nil
		}
	case Decimal:
		switch n := v.(type) {
		case decimal.Decimal:
			return n, nil
		case string:
			d, err := decimal.NewFromString(n)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
			}
			return d, nil
		case int:
			return decimal.NewFromInt(int64(n)), nil
		case int64:
			return decimal.NewFromInt(n), nil
		case float64:
			return decimal.NewFromFloat(n), nil
		}
	case Date:
		switch t := v.(type) {
		case time.Time:
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		case string:
			parsed, err := time.Parse(time.DateOnly, t)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
			}
			return parsed, nil
		}
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Bytes:
		if b, ok := v.([]byte); ok {
			return append([]byte(nil), b...), nil
		}
	}
	return nil, fmt.Errorf("%w: %T is not a %s", ErrBadValue, v, dt)
}

// EncodeScalar converts a canonical scalar of dt to its byte form, the
// plaintext that is encrypted and the text persisted for plain fields.
func EncodeScalar(dt DataType, v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: cannot encrypt an empty value", ErrBadValue)
	}
	switch dt {
	case String:
		return []byte(v.(string)), nil
	case Integer:
		return []byte(strconv.FormatInt(v.(int64), 10)), nil
	case Decimal:
		return []byte(v.(decimal.Decimal).String()), nil
	case Date:
		return []byte(v.(time.Time).Format(time.DateOnly)), nil
	case Bool:
		return []byte(strconv.FormatBool(v.(bool))), nil
	case Bytes:
		return append([]byte(nil), v.([]byte)...), nil
	}
	return nil, fmt.Errorf("%w: unknown data type %d", ErrBadValue, dt)
}

// DecodeScalar parses the byte form produced by EncodeScalar.
func DecodeScalar(dt DataType, b []byte) (any, error) {
	switch dt {
	case String:
		return string(b), nil
	case Integer:
		n, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return n, nil
	case Decimal:
		d, err := decimal.NewFromString(string(b))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return d, nil
	case Date:
		t, err := time.Parse(time.DateOnly, string(b))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return t, nil
	case Bool:
		v, err := strconv.ParseBool(string(b))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return v, nil
	case Bytes:
		return append([]byte(nil), b...), nil
	}
	return nil, fmt.Errorf("%w: unknown data type %d", ErrBadValue, dt)
}
