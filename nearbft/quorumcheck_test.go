package nearbft

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kysee/near-bft-zk/nearbft/types"
)

func stakeLE(v uint64) [16]byte {
	var out [16]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(v >> (8 * uint(i)))
	}
	return out
}

func validatorFixture(stakes []uint64) []*types.ValidatorStake {
	out := make([]*types.ValidatorStake, len(stakes))
	for i, s := range stakes {
		out[i] = &types.ValidatorStake{Stake: stakeLE(s)}
	}
	return out
}

func TestCheckQuorumNativeReached(t *testing.T) {
	validators := validatorFixture([]uint64{100, 200, 50})

	validStake, totalStake, err := CheckQuorumNative(validators, []int{0, 1})
	require.NoError(t, err)
	require.Equal(t, int64(300), validStake.Int64())
	require.Equal(t, int64(350), totalStake.Int64())
}

func TestCheckQuorumNativeNotReached(t *testing.T) {
	validators := validatorFixture([]uint64{100, 200, 50})

	_, _, err := CheckQuorumNative(validators, []int{2})
	require.True(t, errors.Is(err, ErrQuorumNotReached))
}

func TestCheckQuorumNativeOutOfRange(t *testing.T) {
	validators := validatorFixture([]uint64{100, 200, 50})

	_, _, err := CheckQuorumNative(validators, []int{5})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrQuorumNotReached))
}

func TestCheckQuorumNativeDuplicateIndex(t *testing.T) {
	validators := validatorFixture([]uint64{100, 200, 50})

	_, _, err := CheckQuorumNative(validators, []int{0, 0, 1})
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrQuorumNotReached))
}

func TestCheckQuorumNativeExactBoundary(t *testing.T) {
	// 2/3 exactly: validStake=200, totalStake=300 -> 3*200 == 2*300
	validators := validatorFixture([]uint64{200, 100})

	_, _, err := CheckQuorumNative(validators, []int{0})
	require.NoError(t, err)
}
