package domain

import (
	"fmt"

	"github.com/mr-tron/base58"
)

const (
	PubkeyLength    = 32
	SignatureLength = 64
)

// Pubkey identifies an account or a program.
type Pubkey [PubkeyLength]byte

func (p Pubkey) Bytes() []byte {
	return p[:]
}

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePubkey decodes a base58 encoded public key.
func ParsePubkey(s string) (Pubkey, error) {
	var p Pubkey
	raw, err := base58.Decode(s)
	if err != nil {
		return p, fmt.Errorf("invalid pubkey %q: %w", s, err)
	}
	if len(raw) != PubkeyLength {
		return p, fmt.Errorf("invalid pubkey %q: expected %d bytes, got %d", s, PubkeyLength, len(raw))
	}
	copy(p[:], raw)
	return p, nil
}

type Signature [SignatureLength]byte

func (s Signature) Bytes() []byte {
	return s[:]
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (s Signature) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Signature) UnmarshalText(text []byte) error {
	raw, err := base58.Decode(string(text))
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	if len(raw) != SignatureLength {
		return fmt.Errorf("invalid signature: expected %d bytes, got %d", SignatureLength, len(raw))
	}
	copy(s[:], raw)
	return nil
}
