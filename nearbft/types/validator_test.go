package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildValidatorRecord(prefix []byte, keyType byte, pubKey [32]byte, stakeLE [16]byte) []byte {
	raw := make([]byte, 0, len(prefix)+1+32+16)
	raw = append(raw, prefix...)
	raw = append(raw, keyType)
	raw = append(raw, pubKey[:]...)
	raw = append(raw, stakeLE[:]...)
	return raw
}

func TestParseValidatorStake(t *testing.T) {
	prefix := []byte{0x01, 0x02, 0x03}
	var pubKey [32]byte
	for i := range pubKey {
		pubKey[i] = byte(i + 10)
	}
	var stakeLE [16]byte
	stakeLE[0] = 0x64 // 100 in little-endian

	raw := buildValidatorRecord(prefix, EdKeyType, pubKey, stakeLE)

	v, err := ParseValidatorStake(raw)
	require.NoError(t, err)
	require.Equal(t, prefix, v.AccountIDPrefix)
	require.Equal(t, byte(EdKeyType), v.KeyType)
	require.Equal(t, pubKey, v.PublicKey)
	require.Equal(t, stakeLE, v.StakeLE())
}

func TestParseValidatorStakeTooShort(t *testing.T) {
	_, err := ParseValidatorStake(make([]byte, 10))
	require.Error(t, err)
}
