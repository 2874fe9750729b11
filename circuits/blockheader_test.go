package circuit

import (
	"crypto/sha256"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/consensys/gnark/test"
)

func u8s(b []byte) []uints.U8 {
	out := make([]uints.U8, len(b))
	for i, v := range b {
		out[i] = uints.NewU8(v)
	}
	return out
}

func u8s32(b [32]byte) [32]uints.U8 {
	var out [32]uints.U8
	for i, v := range b {
		out[i] = uints.NewU8(v)
	}
	return out
}

func TestBlockHeaderCircuit(t *testing.T) {
	assert := test.NewAssert(t)

	var prevHash [32]byte
	for i := range prevHash {
		prevHash[i] = byte(i * 3)
	}
	var innerLite [InnerLiteBytes]byte
	for i := range innerLite {
		innerLite[i] = byte(i + 1)
	}
	innerRest := []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee}

	innerLiteHash := sha256.Sum256(innerLite[:])
	innerRestHash := sha256.Sum256(innerRest)
	innerHash := sha256.Sum256(append(append([]byte{}, innerLiteHash[:]...), innerRestHash[:]...))
	blockHash := sha256.Sum256(append(append([]byte{}, innerHash[:]...), prevHash[:]...))

	var height [8]byte
	copy(height[:], innerLite[innerLiteHeightStart:innerLiteHeightEnd])
	var epochID, nextEpochID, nextBpHash [32]byte
	copy(epochID[:], innerLite[innerLiteEpochStart:innerLiteEpochEnd])
	copy(nextEpochID[:], innerLite[innerLiteNextEpoStart:innerLiteNextEpoEnd])
	copy(nextBpHash[:], innerLite[innerLiteNextBPStart:innerLiteNextBPEnd])

	witness := &BlockHeaderCircuit{
		InnerRestLen: len(innerRest),
		PrevHash:     u8s32(prevHash),
		InnerLite:    [InnerLiteBytes]uints.U8(u8s(innerLite[:])),
		InnerRest:    u8s(innerRest),
		BlockHash:    u8s32(blockHash),
		Height:       [8]uints.U8(u8s(height[:])),
		EpochID:      u8s32(epochID),
		NextEpochID:  u8s32(nextEpochID),
		NextBpHash:   u8s32(nextBpHash),
		PrevHashOut:  u8s32(prevHash),
	}

	placeholder := &BlockHeaderCircuit{
		InnerRestLen: len(innerRest),
		InnerRest:    make([]uints.U8, len(innerRest)),
	}

	assert.SolvingSucceeded(placeholder, witness, test.WithCurves(ecc.BLS12_377))

	badWitness := *witness
	badWitness.BlockHash[0] = uints.NewU8(blockHash[0] + 1)
	assert.SolvingFailed(placeholder, &badWitness, test.WithCurves(ecc.BLS12_377))
}
