package circuit

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/consensys/gnark/test"
)

func leBytesN(v *big.Int, n int) []byte {
	be := v.Bytes()
	out := make([]byte, n)
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}

func buildQuorumFixture(t *testing.T, signerIdx []int, stakes []int64) *QuorumCircuit {
	t.Helper()

	numValidators := len(stakes)
	pubKeys := make([][32]byte, numValidators)
	for v := range pubKeys {
		for j := range pubKeys[v] {
			pubKeys[v][j] = byte(v*11 + j)
		}
	}

	entries := make([][ApprovalRecordBytes]byte, len(signerIdx))
	for i, idx := range signerIdx {
		entries[i][0] = byte(idx)
		copy(entries[i][1:], pubKeys[idx][:])
	}

	h := sha256.New()
	for _, e := range entries {
		h.Write(e[:])
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))

	validStake := big.NewInt(0)
	totalStake := big.NewInt(0)
	for v, s := range stakes {
		totalStake.Add(totalStake, big.NewInt(s))
		for _, idx := range signerIdx {
			if idx == v {
				validStake.Add(validStake, big.NewInt(s))
			}
		}
	}

	keys := make([][ApprovalRecordBytes]uints.U8, len(entries))
	for i, e := range entries {
		keys[i] = [ApprovalRecordBytes]uints.U8(u8s(e[:]))
	}
	validatorPubKeys := make([][32]uints.U8, numValidators)
	validatorStakeLE := make([][16]uints.U8, numValidators)
	for v := range stakes {
		validatorPubKeys[v] = u8s32(pubKeys[v])
		validatorStakeLE[v] = [16]uints.U8(u8s(leBytesN(big.NewInt(stakes[v]), 16)))
	}

	return &QuorumCircuit{
		NumSigners:       len(entries),
		NumValidators:    numValidators,
		ValidKeys:        keys,
		ValidatorPubKeys: validatorPubKeys,
		ValidatorStakeLE: validatorStakeLE,
		ClaimedDigest:    u8s32(digest),
		ValidStakeLE:     [StakeAccumulatorBytes]uints.U8(u8s(leBytesN(validStake, StakeAccumulatorBytes))),
		TotalStakeLE:     [StakeAccumulatorBytes]uints.U8(u8s(leBytesN(totalStake, StakeAccumulatorBytes))),
	}
}

func quorumPlaceholder(numSigners, numValidators int) *QuorumCircuit {
	return &QuorumCircuit{
		NumSigners:       numSigners,
		NumValidators:    numValidators,
		ValidKeys:        make([][ApprovalRecordBytes]uints.U8, numSigners),
		ValidatorPubKeys: make([][32]uints.U8, numValidators),
		ValidatorStakeLE: make([][16]uints.U8, numValidators),
	}
}

func TestQuorumCircuitReached(t *testing.T) {
	assert := test.NewAssert(t)

	witness := buildQuorumFixture(t, []int{0, 1}, []int64{100, 200, 50})
	placeholder := quorumPlaceholder(witness.NumSigners, witness.NumValidators)

	assert.SolvingSucceeded(placeholder, witness, test.WithCurves(ecc.BLS12_377))
}

func TestQuorumCircuitNotReached(t *testing.T) {
	assert := test.NewAssert(t)

	witness := buildQuorumFixture(t, []int{2}, []int64{100, 200, 50})
	placeholder := quorumPlaceholder(witness.NumSigners, witness.NumValidators)

	assert.SolvingFailed(placeholder, witness, test.WithCurves(ecc.BLS12_377))
}
