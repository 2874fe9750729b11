package circuit

import (
	"crypto/sha256"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/std/math/uints"
	"github.com/consensys/gnark/test"
)

func TestValidKeysDigestCircuit(t *testing.T) {
	assert := test.NewAssert(t)

	entries := [][ApprovalRecordBytes]byte{}
	for i := 0; i < 3; i++ {
		var rec [ApprovalRecordBytes]byte
		rec[0] = byte(i)
		for j := 1; j < ApprovalRecordBytes; j++ {
			rec[j] = byte(i*5 + j)
		}
		entries = append(entries, rec)
	}

	h := sha256.New()
	for _, e := range entries {
		h.Write(e[:])
	}
	var digest [32]byte
	copy(digest[:], h.Sum(nil))

	keys := make([][ApprovalRecordBytes]uints.U8, len(entries))
	for i, e := range entries {
		keys[i] = [ApprovalRecordBytes]uints.U8(u8s(e[:]))
	}

	witness := &ValidKeysDigestCircuit{
		NumSigners: len(entries),
		ValidKeys:  keys,
		Digest:     u8s32(digest),
	}
	placeholder := &ValidKeysDigestCircuit{
		NumSigners: len(entries),
		ValidKeys:  make([][ApprovalRecordBytes]uints.U8, len(entries)),
	}

	assert.SolvingSucceeded(placeholder, witness, test.WithCurves(ecc.BLS12_377))

	badWitness := *witness
	badWitness.Digest[0] = uints.NewU8(digest[0] + 1)
	assert.SolvingFailed(placeholder, &badWitness, test.WithCurves(ecc.BLS12_377))
}

func TestSignedMessageEndorsementAndSkip(t *testing.T) {
	var blockHash [32]byte
	for i := range blockHash {
		blockHash[i] = byte(i)
	}

	msg := SignedMessageEndorsement(blockHash, 42)
	if len(msg) != 41 {
		t.Fatalf("endorsement message length = %d, want 41", len(msg))
	}
	if msg[0] != tagEndorsement {
		t.Fatalf("endorsement tag = %d, want %d", msg[0], tagEndorsement)
	}

	skip := SignedMessageSkip(10, 12)
	if len(skip) != 17 {
		t.Fatalf("skip message length = %d, want 17", len(skip))
	}
	if skip[0] != tagSkip {
		t.Fatalf("skip tag = %d, want %d", skip[0], tagSkip)
	}
}
