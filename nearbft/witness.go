package nearbft

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/math/uints"

	circuit "github.com/kysee/near-bft-zk/circuits"
	"github.com/kysee/near-bft-zk/circuits/ed25519"
	"github.com/kysee/near-bft-zk/gates"
	"github.com/kysee/near-bft-zk/nearbft/circuitcache"
	"github.com/kysee/near-bft-zk/nearbft/types"
)

// u8Array converts a native byte slice into a gnark uints.U8 assignment
// slice, the witness-side counterpart of circuits/*.go's byte-array fields.
func u8Array(b []byte) []uints.U8 {
	out := make([]uints.U8, len(b))
	for i, v := range b {
		out[i] = uints.NewU8(v)
	}
	return out
}

func u8Array32(b [32]byte) [32]uints.U8 {
	var out [32]uints.U8
	for i, v := range b {
		out[i] = uints.NewU8(v)
	}
	return out
}

func leBytesU64(v uint64) [8]byte {
	var out [8]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(v >> (8 * uint(i)))
	}
	return out
}

// headerShape derives the compiled-circuit shape a header's inner_rest
// length selects (§6.1 — inner_rest is opaque-length, so circuitcache keys
// header circuits on it).
func headerShape(h *types.BlockHeader) circuitcache.Shape {
	return circuitcache.Shape{Kind: "header", A: len(h.InnerRest)}
}

// headerAssignment builds a fully-witnessed BlockHeaderCircuit for h.
func headerAssignment(h *types.BlockHeader) *circuit.BlockHeaderCircuit {
	blockHash := h.Hash()
	heightBytes := leBytesU64(h.Height())
	epochID := h.EpochID()
	nextEpochID := h.NextEpochID()
	nextBpHash := h.NextBpHash()

	c := &circuit.BlockHeaderCircuit{
		InnerRestLen: len(h.InnerRest),
		PrevHash:     u8Array32(h.PrevHash),
		InnerLite:    [circuit.InnerLiteBytes]uints.U8(u8Array(h.InnerLite[:])),
		InnerRest:    u8Array(h.InnerRest),
		BlockHash:    u8Array32(blockHash),
		Height:       [8]uints.U8(u8Array(heightBytes[:])),
		EpochID:      u8Array32(epochID),
		NextEpochID:  u8Array32(nextEpochID),
		NextBpHash:   u8Array32(nextBpHash),
		PrevHashOut:  u8Array32(h.PrevHash),
	}
	return c
}

// canonicalValidatorRecord re-derives the exact bytes bphash.go's preimage
// expects for one validator: its full raw record, unmodified — NEAR commits
// to next_bp_hash over the validators' own borsh encoding, not a re-derived
// one, so this system never re-serializes it.
func canonicalValidatorRecord(v *types.ValidatorStake) []byte { return v.Raw }

// bpHashShape keys on validator count and the (assumed uniform) per-record
// length.
func bpHashShape(validators []*types.ValidatorStake) (circuitcache.Shape, int) {
	recordLen := 0
	if len(validators) > 0 {
		recordLen = len(validators[0].Raw)
	}
	return circuitcache.Shape{Kind: "bphash", A: len(validators), B: recordLen}, recordLen
}

// bpHashAssignment builds a BpHashCircuit witnessing next_bp_hash = SHA256
// (le_u32(|V|) ‖ serialize(V[0]) ‖ …) per §4.5.
func bpHashAssignment(validators []*types.ValidatorStake, digest [32]byte) (*circuit.BpHashCircuit, error) {
	shape, recordLen := bpHashShape(validators)
	records := make([][]uints.U8, len(validators))
	for i, v := range validators {
		rec := canonicalValidatorRecord(v)
		if len(rec) != recordLen {
			return nil, fmt.Errorf("nearbft: validator %d record length %d != shape %d", i, len(rec), recordLen)
		}
		records[i] = u8Array(rec)
	}

	var countLE [4]byte
	n := uint32(len(validators))
	for i := 0; i < 4; i++ {
		countLE[i] = byte(n >> (8 * uint(i)))
	}

	return &circuit.BpHashCircuit{
		NumValidators: shape.A,
		RecordLen:     shape.B,
		CountLE:       [4]uints.U8(u8Array(countLE[:])),
		Records:       records,
		Digest:        u8Array32(digest),
	}, nil
}

// validKeyEntry pairs a validator's list index with its public key, the
// (index, pubkey) record the approvals aggregation commits to (§4.6.1).
type validKeyEntry struct {
	Index  byte
	PubKey [32]byte
}

// validKeysDigestAssignment builds a ValidKeysDigestCircuit over entries, in
// the order the orchestrator has already sorted them into (index-ascending,
// per §9's arrival-order fix — see nearbft/workerbus).
func validKeysDigestAssignment(entries []validKeyEntry, digest [32]byte) *circuit.ValidKeysDigestCircuit {
	keys := make([][circuit.ApprovalRecordBytes]uints.U8, len(entries))
	for i, e := range entries {
		rec := make([]byte, 0, circuit.ApprovalRecordBytes)
		rec = append(rec, e.Index)
		rec = append(rec, e.PubKey[:]...)
		keys[i] = [circuit.ApprovalRecordBytes]uints.U8(u8Array(rec))
	}
	return &circuit.ValidKeysDigestCircuit{
		NumSigners: len(entries),
		ValidKeys:  keys,
		Digest:     u8Array32(digest),
	}
}

// quorumAssignment builds a QuorumCircuit proving the signers in entries own
// 2/3+ of validators' total stake (§4.6.2).
func quorumAssignment(entries []validKeyEntry, validators []*types.ValidatorStake, claimedDigest [32]byte, validStakeLE, totalStakeLE [circuit.StakeAccumulatorBytes]byte) *circuit.QuorumCircuit {
	keys := make([][circuit.ApprovalRecordBytes]uints.U8, len(entries))
	for i, e := range entries {
		rec := make([]byte, 0, circuit.ApprovalRecordBytes)
		rec = append(rec, e.Index)
		rec = append(rec, e.PubKey[:]...)
		keys[i] = [circuit.ApprovalRecordBytes]uints.U8(u8Array(rec))
	}

	pubKeys := make([][32]uints.U8, len(validators))
	stakes := make([][16]uints.U8, len(validators))
	for i, v := range validators {
		pubKeys[i] = u8Array32(v.PublicKey)
		stakes[i] = [16]uints.U8(u8Array(v.Stake[:]))
	}

	return &circuit.QuorumCircuit{
		NumSigners:       len(entries),
		NumValidators:    len(validators),
		ValidKeys:        keys,
		ValidatorPubKeys: pubKeys,
		ValidatorStakeLE: stakes,
		ClaimedDigest:    u8Array32(claimedDigest),
		ValidStakeLE:     [circuit.StakeAccumulatorBytes]uints.U8(u8Array(validStakeLE[:])),
		TotalStakeLE:     [circuit.StakeAccumulatorBytes]uints.U8(u8Array(totalStakeLE[:])),
	}
}

// equalArrayAssignment builds an EqualArrayCircuit over two equal-length
// byte slices, each byte widened to a frontend.Variable (§4.7).
func equalArrayAssignment(left, right []byte) *circuit.EqualArrayCircuit {
	l := make([]frontend.Variable, len(left))
	r := make([]frontend.Variable, len(right))
	for i, b := range left {
		l[i] = b
	}
	for i, b := range right {
		r[i] = b
	}
	return &circuit.EqualArrayCircuit{Left: l, Right: r}
}

func heightVars(h uint64) [8]frontend.Variable {
	bs := leBytesU64(h)
	var out [8]frontend.Variable
	for i, b := range bs {
		out[i] = b
	}
	return out
}

func consecutivePairAssignment(h1, h2 uint64) *circuit.ConsecutiveHeightsCircuit {
	return &circuit.ConsecutiveHeightsCircuit{H1: heightVars(h1), H2: heightVars(h2)}
}

func consecutiveTripleAssignment(h1, h2, h3 uint64) *circuit.ConsecutiveTripleCircuit {
	return &circuit.ConsecutiveTripleCircuit{H1: heightVars(h1), H2: heightVars(h2), H3: heightVars(h3)}
}

func consecutiveQuadrupleAssignment(h1, h2, h3, h4 uint64) *circuit.ConsecutiveQuadrupleCircuit {
	return &circuit.ConsecutiveQuadrupleCircuit{H1: heightVars(h1), H2: heightVars(h2), H3: heightVars(h3), H4: heightVars(h4)}
}

// padSHA512 applies standard Merkle-Damgard padding (append 0x80, zero-fill
// to 112 mod 128, append a 16-byte big-endian bit length) and splits the
// result into 128-byte blocks of 16 big-endian U64 words each, the preimage
// shape circuits/ed25519.SignatureCircuit's RAMBlocks expects.
func padSHA512(msg []byte) [][16]gates.U64 {
	bitLen := uint64(len(msg)) * 8
	padded := append([]byte{}, msg...)
	padded = append(padded, 0x80)
	for len(padded)%128 != 112 {
		padded = append(padded, 0)
	}
	// 128-bit big-endian length field; messages here never approach 2^64
	// bits, so the high 8 bytes are always zero.
	var lenField [16]byte
	for i := 0; i < 8; i++ {
		lenField[15-i] = byte(bitLen >> (8 * uint(i)))
	}
	padded = append(padded, lenField[:]...)

	blocks := make([][16]gates.U64, len(padded)/128)
	for b := range blocks {
		base := b * 128
		for w := 0; w < 16; w++ {
			var word uint64
			for i := 0; i < 8; i++ {
				word = word<<8 | uint64(padded[base+w*8+i])
			}
			blocks[b][w] = word
		}
	}
	return blocks
}

// signatureAssignment builds an ed25519.SignatureCircuit proving sig is a
// valid Ed25519 signature by pubKey over msg (§4.3), recovering Ax/Rx
// natively via ed25519.DecodeCompressed.
func signatureAssignment(pubKey [32]byte, sig [64]byte, msg []byte) (*ed25519.SignatureCircuit, error) {
	axBig, _, _ := ed25519.DecodeCompressed(pubKey)
	var rEnc [32]byte
	copy(rEnc[:], sig[:32])
	rxBig, _, _ := ed25519.DecodeCompressed(rEnc)

	ax := emulated.ValueOf[ed25519.Ed25519Fp](axBig)
	rx := emulated.ValueOf[ed25519.Ed25519Fp](rxBig)

	var sBits [256]frontend.Variable
	sBytes := sig[32:64]
	for i := 0; i < 256; i++ {
		byteIdx := i / 8
		bitIdx := uint(i % 8)
		// MSB-first across the 256-bit little-endian scalar s.
		srcByte := sBytes[31-byteIdx]
		sBits[i] = (srcByte >> (7 - bitIdx)) & 1
	}

	msgVars := make([]frontend.Variable, len(msg))
	for i, b := range msg {
		msgVars[i] = b
	}

	// RAMBlocks hashes R ‖ A ‖ M, i.e. the signature's R half followed by
	// the public key, followed by the signed message (§4.3).
	preimage := make([]byte, 0, 64+len(msg))
	preimage = append(preimage, sig[:32]...)
	preimage = append(preimage, pubKey[:]...)
	preimage = append(preimage, msg...)

	var pubKeyArr, rArr [32]frontend.Variable
	for i := 0; i < 32; i++ {
		pubKeyArr[i] = pubKey[i]
		rArr[i] = sig[i]
	}

	return &ed25519.SignatureCircuit{
		PubKeyBytes: pubKeyArr,
		RBytes:      rArr,
		Ax:          &ax,
		Rx:          &rx,
		SBits:       sBits,
		Msg:         msgVars,
		RAMBlocks:   padSHA512(preimage),
	}, nil
}

// signatureShape keys on message length, the only dimension that varies
// across call sites (Endorsement messages are 41 bytes, Skip messages 17).
func signatureShape(msgLen int) circuitcache.Shape {
	return circuitcache.Shape{Kind: "ed25519sig", A: msgLen}
}

// bpHashNative recomputes next_bp_hash = SHA256(le_u32(|V|) ‖
// serialize(V[0]) ‖ …) natively, the exact preimage bpHashAssignment hashes
// in-circuit (§4.5), so the orchestrator can check it before building a
// witness.
func bpHashNative(validators []*types.ValidatorStake) [32]byte {
	h := sha256.New()
	var countLE [4]byte
	n := uint32(len(validators))
	for i := 0; i < 4; i++ {
		countLE[i] = byte(n >> (8 * uint(i)))
	}
	h.Write(countLE[:])
	for _, v := range validators {
		h.Write(canonicalValidatorRecord(v))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// validKeysDigestNative recomputes SHA256(valid_keys) natively, matching
// validKeysDigestAssignment's in-circuit preimage (§4.6.1).
func validKeysDigestNative(entries []validKeyEntry) [32]byte {
	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte{e.Index})
		h.Write(e.PubKey[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// bigIntToStakeLE packs a non-negative big.Int into a StakeAccumulatorBytes-
// wide little-endian array, matching unpackLEBytes's in-circuit byte order.
// It panics if v doesn't fit — which would mean accumulated stake overflowed
// the accumulator width chosen in circuits/quorum.go, a configuration error
// rather than a runtime one.
func bigIntToStakeLE(v *big.Int) [circuit.StakeAccumulatorBytes]byte {
	var out [circuit.StakeAccumulatorBytes]byte
	be := v.Bytes()
	if len(be) > circuit.StakeAccumulatorBytes {
		panic(fmt.Sprintf("nearbft: stake accumulator overflow: %d bytes > %d", len(be), circuit.StakeAccumulatorBytes))
	}
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}
