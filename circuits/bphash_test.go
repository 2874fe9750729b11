package circuit

import (
	"crypto/sha256"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/consensys/gnark/test"
)

func TestBpHashCircuit(t *testing.T) {
	assert := test.NewAssert(t)

	const recordLen = 49
	records := make([][]byte, 3)
	for i := range records {
		rec := make([]byte, recordLen)
		for j := range rec {
			rec[j] = byte(i*7 + j)
		}
		records[i] = rec
	}

	countLE := [4]byte{byte(len(records)), 0, 0, 0}
	h := sha256.New()
	h.Write(countLE[:])
	for _, r := range records {
		h.Write(r)
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))

	recVars := make([][]uints.U8, len(records))
	for i, r := range records {
		recVars[i] = u8s(r)
	}

	witness := &BpHashCircuit{
		NumValidators: len(records),
		RecordLen:     recordLen,
		CountLE:       [4]uints.U8(u8s(countLE[:])),
		Records:       recVars,
		Digest:        u8s32(digest),
	}

	placeholderRecords := make([][]uints.U8, len(records))
	for i := range placeholderRecords {
		placeholderRecords[i] = make([]uints.U8, recordLen)
	}
	placeholder := &BpHashCircuit{
		NumValidators: len(records),
		RecordLen:     recordLen,
		Records:       placeholderRecords,
	}

	assert.SolvingSucceeded(placeholder, witness, test.WithCurves(ecc.BLS12_377))

	badWitness := *witness
	badWitness.Digest[0] = uints.NewU8(digest[0] + 1)
	assert.SolvingFailed(placeholder, &badWitness, test.WithCurves(ecc.BLS12_377))
}
