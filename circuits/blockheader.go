package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/kysee/near-bft-zk/gates"
)

// Fixed byte offsets into the 208-byte inner_lite buffer, per §6.1. These are
// part of the external data contract and are read by plain indexing, never
// by a general-purpose deserializer.
const (
	InnerLiteBytes        = 208
	innerLiteHeightStart  = 1
	innerLiteHeightEnd    = 9
	innerLiteEpochStart   = 33
	innerLiteEpochEnd     = 65
	innerLiteNextEpoStart = 65
	innerLiteNextEpoEnd   = 97
	innerLiteNextBPStart  = 129
	innerLiteNextBPEnd    = 161
)

// BlockHeaderCircuit proves block_hash = SHA256(SHA256(SHA256(inner_lite) ‖
// SHA256(inner_rest)) ‖ prev_hash), composed as
// inner_hash = SHA256(SHA256(inner_lite) ‖ SHA256(inner_rest)) and
// block_hash = SHA256(inner_hash ‖ prev_hash), per §4.4. It also pulls
// Height, EpochID, NextEpochID and NextBpHash out of inner_lite by the fixed
// offsets of §6.1 — indexing only, no field parsing.
//
// §6.1 phrases "which optional fields are exposed is fixed per call-site"
// as a set of differently-shaped circuits. This repository instead always
// exposes the full set; an orchestrator call site that doesn't need, say,
// NextEpochID simply doesn't read that slot back. This
// trades a handful of extra (cheap, fixed-size) public inputs for a single
// circuit shape reusable at every window position, which circuitcache keys
// on InnerRestLen alone rather than on a combinatorial flag set.
//
// Unlike the bit-flavour hashing used elsewhere in this package (bp-hash,
// valid_keys digest), the two inner SHA-256s and the two composition steps
// here all run through the u32-flavour compression loop (Sha256CompressBlocks,
// PadAndBlockifyU8, PadDigestPairBlocks — circuits/sha256u32.go), inline in
// this one circuit rather than as separate recursively-verified proofs.
// §4.2's recursive concatenation primitive assumes both composed digests
// come from prior proofs sharing one circuit shape/VK; that holds for
// inner_lite (always 208 bytes) but not for inner_rest (length varies per
// header) or for prev_hash (plain externally-supplied data for the window's
// first header, not itself the output of a proof this circuit holds). Rather
// than build shape-padding machinery to force a fit, this circuit keeps the
// u32-flavour's actual algebra (the compression loop and the digest-pair
// padding construction) and runs it directly, monolithically, the way the
// bit-flavour composition it replaces already did.
type BlockHeaderCircuit struct {
	// InnerRestLen is a compile-time constant (not a circuit field) fixing
	// the shape; InnerRest's length must equal it.
	InnerRestLen int

	PrevHash  [32]uints.U8
	InnerLite [InnerLiteBytes]uints.U8
	InnerRest []uints.U8

	BlockHash   [32]uints.U8 `gnark:",public"`
	Height      [8]uints.U8  `gnark:",public"`
	EpochID     [32]uints.U8 `gnark:",public"`
	NextEpochID [32]uints.U8 `gnark:",public"`
	NextBpHash  [32]uints.U8 `gnark:",public"`
	PrevHashOut [32]uints.U8 `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *BlockHeaderCircuit) Define(api frontend.API) error {
	if len(c.InnerRest) != c.InnerRestLen {
		return fmt.Errorf("circuit: BlockHeaderCircuit inner_rest length %d != shape %d", len(c.InnerRest), c.InnerRestLen)
	}

	innerLiteDigest := Sha256CompressBlocks(api, sha256H0, PadAndBlockifyU8(api, c.InnerLite[:]))
	innerRestDigest := Sha256CompressBlocks(api, sha256H0, PadAndBlockifyU8(api, c.InnerRest))

	innerHashDigest := Sha256CompressBlocks(api, sha256H0, PadDigestPairBlocks(innerLiteDigest, innerRestDigest))

	var prevHashDigest [8]gates.U32
	copy(prevHashDigest[:], BytesToU32Words(api, c.PrevHash[:]))
	blockHashDigest := Sha256CompressBlocks(api, sha256H0, PadDigestPairBlocks(innerHashDigest, prevHashDigest))

	AssertDigestEqualsBytes(api, blockHashDigest, c.BlockHash[:])
	for i := 0; i < 32; i++ {
		api.AssertIsEqual(c.PrevHash[i].Val, c.PrevHashOut[i].Val)
	}
	for i := 0; i < 8; i++ {
		api.AssertIsEqual(c.InnerLite[innerLiteHeightStart+i].Val, c.Height[i].Val)
	}
	for i := 0; i < 32; i++ {
		api.AssertIsEqual(c.InnerLite[innerLiteEpochStart+i].Val, c.EpochID[i].Val)
		api.AssertIsEqual(c.InnerLite[innerLiteNextEpoStart+i].Val, c.NextEpochID[i].Val)
		api.AssertIsEqual(c.InnerLite[innerLiteNextBPStart+i].Val, c.NextBpHash[i].Val)
	}

	return nil
}
