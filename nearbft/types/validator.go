package types

import "fmt"

// validatorTrailerBytes is the length of the trailing, fixed-layout part of
// a validator record this system reads: 1-byte key-type tag, 32-byte
// Ed25519 public key, 16-byte little-endian stake (§6.1). Everything before
// that trailer (the borsh-encoded account_id and any other canonical-form
// fields) is opaque to this system — the circuits never read it, so it is
// kept as raw bytes only for native-side accounting (e.g. building the
// canonical record bytes bphash.go hashes).
const validatorTrailerBytes = 1 + PkHashBytes + StakeBytes

// EdKeyType is the key-type tag value for an Ed25519 public key (§6.1).
const EdKeyType = 0

// ValidatorStake is a parsed validator record (§3): account_id, public_key,
// stake, where only public_key and stake are interpreted by this system.
type ValidatorStake struct {
	AccountIDPrefix []byte // opaque bytes preceding the key-type tag
	KeyType         byte
	PublicKey       [32]byte
	Stake           [16]byte // little-endian u128

	Raw []byte // the full canonical record, as supplied
}

// ParseValidatorStake slices a canonical validator record from its tail:
// the last 16 bytes are the stake, the 32 before that the public key, and
// the byte before those the key-type tag.
func ParseValidatorStake(raw []byte) (*ValidatorStake, error) {
	if len(raw) < validatorTrailerBytes {
		return nil, fmt.Errorf("types: validator record too short: %d bytes, need at least %d", len(raw), validatorTrailerBytes)
	}

	v := &ValidatorStake{Raw: raw}
	n := len(raw)

	copy(v.Stake[:], raw[n-StakeBytes:])
	copy(v.PublicKey[:], raw[n-StakeBytes-PkHashBytes:n-StakeBytes])
	v.KeyType = raw[n-StakeBytes-PkHashBytes-1]
	v.AccountIDPrefix = raw[:n-validatorTrailerBytes]

	return v, nil
}

// StakeLE returns the raw little-endian 16-byte stake value.
func (v *ValidatorStake) StakeLE() [16]byte { return v.Stake }
