package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseApprovalNone(t *testing.T) {
	a, err := ParseApproval([]byte{0x00})
	require.NoError(t, err)
	require.False(t, a.Present)
}

func TestParseApprovalSome(t *testing.T) {
	raw := make([]byte, 1+1+64)
	raw[0] = 0x01
	raw[1] = EdKeyType
	for i := range raw[2:] {
		raw[2+i] = byte(i)
	}

	a, err := ParseApproval(raw)
	require.NoError(t, err)
	require.True(t, a.Present)
	require.Equal(t, byte(EdKeyType), a.SigType)
	require.Equal(t, raw[2:], a.Sig[:])
}

func TestParseApprovalBadTag(t *testing.T) {
	_, err := ParseApproval([]byte{0x02})
	require.Error(t, err)
}

func TestParseApprovalSomeWrongLength(t *testing.T) {
	raw := make([]byte, 1+1+63)
	raw[0] = 0x01
	_, err := ParseApproval(raw)
	require.Error(t, err)
}

func TestParseApprovalEmpty(t *testing.T) {
	_, err := ParseApproval(nil)
	require.Error(t, err)
}
