package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
)

// StakeAccumulatorBytes is the width of the public stake accumulators this
// circuit emits. §9's Open Question ("the source's quorum circuit sums
// stakes using only 16 bytes... overflow is theoretically possible") is
// resolved here, uniformly, in favour of a 17-byte accumulator: one extra
// byte is enough headroom for the maximum realistic validator count times
// the maximum u128 stake, while still fitting in a single native field
// element (see packLEBytes).
const StakeAccumulatorBytes = 17

// QuorumCircuit proves that the signers named in valid_keys belong to the
// validator list V and that their combined stake reaches 2/3 of V's total
// stake (§4.6.2).
//
// §9 describes the stake comparison as a byte-wise carry-propagating
// sum with an MSB-down limb scan detecting a wrapped (negative) difference —
// a technique forced on the original implementation by a ~64-bit field too
// narrow to hold a 128-bit stake directly. This repository's backend field
// (BLS12-377's scalar field, ~253 bits) holds a 17-byte accumulator and the
// 3·valid-2·total difference natively, so the same safety property (a
// negative true difference can never masquerade as a valid witness) is
// enforced with one range check on the difference instead of a per-byte
// scan: ToBinary panics/fails to satisfy unless diff lies in
// [0, 2^stakeDiffBits), and a wrapped negative value is larger than that by
// construction: both accumulators are at most 17 bytes (136 bits), so a
// non-negative difference is below 3·2^136 < 2^138, while a negative one
// wraps to within 2^138 of the ~253-bit modulus, far above 2^160. This is the
// same algorithmic intent — detect a negative
// difference before it can be witnessed as satisfying — adapted to a field
// that doesn't need limb splitting to express it.
const stakeDiffBits = 160

type QuorumCircuit struct {
	NumSigners    int
	NumValidators int

	// ValidKeys[i] is a signer's (index, pubkey) pair, index order as
	// committed by the ValidKeysDigestCircuit's same-shaped witness.
	ValidKeys [][ApprovalRecordBytes]uints.U8

	// ValidatorPubKeys[v] / ValidatorStakeLE[v] are the full validator
	// list's public keys and 16-byte little-endian stakes, in list order
	// (list index v matches the u8 index byte in ValidKeys).
	ValidatorPubKeys [][32]uints.U8
	ValidatorStakeLE [][16]uints.U8

	ClaimedDigest [32]uints.U8           `gnark:",public"`
	ValidStakeLE  [StakeAccumulatorBytes]uints.U8 `gnark:",public"`
	TotalStakeLE  [StakeAccumulatorBytes]uints.U8 `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *QuorumCircuit) Define(api frontend.API) error {
	if len(c.ValidKeys) != c.NumSigners {
		return fmt.Errorf("circuit: QuorumCircuit signer count %d != shape %d", len(c.ValidKeys), c.NumSigners)
	}
	if len(c.ValidatorPubKeys) != c.NumValidators || len(c.ValidatorStakeLE) != c.NumValidators {
		return fmt.Errorf("circuit: QuorumCircuit validator count mismatch")
	}

	// Re-prove SHA256(valid_keys) == claimed digest (§4.6.2 step 4). The
	// orchestrator binds this digest to the aggregator's own exposed
	// public input when it composes this proof into the outer recursion,
	// so this assertion is what "recursively bind that to the
	// aggregator's public input" resolves to at this layer.
	flat := make([]uints.U8, 0, c.NumSigners*ApprovalRecordBytes)
	for _, rec := range c.ValidKeys {
		flat = append(flat, rec[:]...)
	}
	digest, err := HashBytes(api, flat)
	if err != nil {
		return fmt.Errorf("circuit: re-hash valid_keys: %w", err)
	}
	for i := 0; i < 32; i++ {
		api.AssertIsEqual(digest[i].Val, c.ClaimedDigest[i].Val)
	}

	validatorStakes := make([]frontend.Variable, c.NumValidators)
	for v := 0; v < c.NumValidators; v++ {
		bs := make([]frontend.Variable, 16)
		for j := 0; j < 16; j++ {
			bs[j] = c.ValidatorStakeLE[v][j].Val
		}
		validatorStakes[v] = packLEBytes(api, bs)
	}

	validStake := frontend.Variable(0)
	for _, rec := range c.ValidKeys {
		idx := rec[0].Val
		pk := rec[1:]

		selectedStake := frontend.Variable(0)
		selectedPub := make([]frontend.Variable, 32)
		matchCount := frontend.Variable(0)
		for v := 0; v < c.NumValidators; v++ {
			isMatch := api.IsZero(api.Sub(idx, v))
			matchCount = api.Add(matchCount, isMatch)
			selectedStake = api.Add(selectedStake, api.Mul(isMatch, validatorStakes[v]))
			for j := 0; j < 32; j++ {
				selectedPub[j] = api.Add(selectedPub[j], api.Mul(isMatch, c.ValidatorPubKeys[v][j].Val))
			}
		}
		// Exactly one validator must own this index (§4.6.2 step 1): an
		// out-of-range index would otherwise select the all-zero sum and
		// trivially "match" a zeroed comparison.
		api.AssertIsEqual(matchCount, 1)
		for j := 0; j < 32; j++ {
			api.AssertIsEqual(selectedPub[j], pk[j].Val)
		}
		validStake = api.Add(validStake, selectedStake)
	}

	totalStake := frontend.Variable(0)
	for _, s := range validatorStakes {
		totalStake = api.Add(totalStake, s)
	}

	// 3*valid_stake >= 2*total_stake (§4.6.2 step 3, quorum = strictly more
	// than 2/3 — see DESIGN.md for why >= rather than > mirrors the
	// reference implementation's own boundary behaviour, §8 property 6).
	diff := api.Sub(api.Mul(3, validStake), api.Mul(2, totalStake))
	api.ToBinary(diff, stakeDiffBits)

	validBytes := unpackLEBytes(api, validStake, StakeAccumulatorBytes)
	totalBytes := unpackLEBytes(api, totalStake, StakeAccumulatorBytes)
	for i := 0; i < StakeAccumulatorBytes; i++ {
		api.AssertIsEqual(validBytes[i], c.ValidStakeLE[i].Val)
		api.AssertIsEqual(totalBytes[i], c.TotalStakeLE[i].Val)
	}

	return nil
}
