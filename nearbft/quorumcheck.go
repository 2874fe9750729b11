// Package nearbft implements the orchestration layer of §2 layer 5: it
// deserializes NEAR block headers and validator lists, decides which blocks
// satisfy which finality role, drives circuit construction through
// nearbft/circuitcache, and recursively composes the inner proofs described
// in circuits/ and recursion/ into the final BFT-finality proof (§4.8).
package nearbft

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/kysee/near-bft-zk/nearbft/types"
)

// ErrQuorumNotReached is returned by CheckQuorumNative when signing stake
// falls short of 2/3 of total stake, letting the orchestrator short-circuit
// before ever invoking the prover (§7: "the orchestrator MAY short-circuit
// with a distinct error before invoking the prover by computing stakes
// natively").
var ErrQuorumNotReached = errors.New("nearbft: quorum not reached")

// CheckQuorumNative recomputes the §4.6.2 stake sums natively (no circuit)
// and returns ErrQuorumNotReached if 3*validStake < 2*totalStake. It is
// grounded on original_source/near_bft_finality/src/prove_block_data/
// keys_stakes.rs's #[cfg(test)] fixture helpers, which validate the same
// inequality outside the prover before ever building a witness.
func CheckQuorumNative(validators []*types.ValidatorStake, signerIdx []int) (validStake, totalStake *big.Int, err error) {
	totalStake = big.NewInt(0)
	for _, v := range validators {
		totalStake.Add(totalStake, stakeToBigInt(v.Stake))
	}

	validStake = big.NewInt(0)
	seen := make(map[int]bool, len(signerIdx))
	for _, idx := range signerIdx {
		if idx < 0 || idx >= len(validators) {
			return nil, nil, fmt.Errorf("nearbft: signer index %d out of range [0,%d)", idx, len(validators))
		}
		if seen[idx] {
			return nil, nil, fmt.Errorf("nearbft: duplicate signer index %d", idx)
		}
		seen[idx] = true
		validStake.Add(validStake, stakeToBigInt(validators[idx].Stake))
	}

	lhs := new(big.Int).Mul(validStake, big.NewInt(3))
	rhs := new(big.Int).Mul(totalStake, big.NewInt(2))
	if lhs.Cmp(rhs) < 0 {
		return validStake, totalStake, ErrQuorumNotReached
	}
	return validStake, totalStake, nil
}

// stakeToBigInt decodes a little-endian 16-byte stake into a big.Int.
func stakeToBigInt(le [16]byte) *big.Int {
	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		be[i] = le[15-i]
	}
	return new(big.Int).SetBytes(be)
}
