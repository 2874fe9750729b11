package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
)

// ApprovalRecordBytes is the length of one valid_keys entry: a 1-byte
// validator index followed by its 32-byte Ed25519 public key (§4.6.1).
const ApprovalRecordBytes = 33

// ValidKeysDigestCircuit proves Digest = SHA256(valid_keys) where valid_keys
// is the flat byte sequence of (index, pubkey) pairs assembled, in validator
// index order, by the orchestrator's per-signature fold (§4.6.1, §5.1, §9 —
// the source's arrival-order fold is flagged there as a likely bug; this
// repository's orchestrator sorts by index before ever building this
// witness, so the circuit itself only needs to hash whatever byte sequence
// it is handed). This is the one public output of the signature aggregator:
// the circuit commits to which validators signed without re-exposing their
// keys individually as separate public inputs.
type ValidKeysDigestCircuit struct {
	NumSigners int

	ValidKeys [][ApprovalRecordBytes]uints.U8

	Digest [32]uints.U8 `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *ValidKeysDigestCircuit) Define(api frontend.API) error {
	if len(c.ValidKeys) != c.NumSigners {
		return fmt.Errorf("circuit: ValidKeysDigestCircuit signer count %d != shape %d", len(c.ValidKeys), c.NumSigners)
	}

	flat := make([]uints.U8, 0, c.NumSigners*ApprovalRecordBytes)
	for _, rec := range c.ValidKeys {
		flat = append(flat, rec[:]...)
	}

	digest, err := HashBytes(api, flat)
	if err != nil {
		return fmt.Errorf("circuit: valid_keys digest: %w", err)
	}
	for i := 0; i < 32; i++ {
		api.AssertIsEqual(digest[i].Val, c.Digest[i].Val)
	}
	return nil
}

// SignedMessageEndorsement builds the Endorsement-tagged message a validator
// signs when B_{i+1} is the immediate successor of B_i (§4.8.1):
// tag_Endorsement ‖ hash(B_i) ‖ le_u64(B_{i+1}.height), 41 bytes.
func SignedMessageEndorsement(blockIHash [32]byte, nextHeight uint64) []byte {
	msg := make([]byte, 0, 41)
	msg = append(msg, tagEndorsement)
	msg = append(msg, blockIHash[:]...)
	msg = append(msg, leU64(nextHeight)...)
	return msg
}

// SignedMessageSkip builds the Skip-tagged message validators sign when
// B_{i+1} is not the immediate successor of B_i (§4.8.1):
// tag_Skip ‖ le_u64(B_i.height) ‖ le_u64(B_{i+1}.height), 17 bytes.
func SignedMessageSkip(height, nextHeight uint64) []byte {
	msg := make([]byte, 0, 17)
	msg = append(msg, tagSkip)
	msg = append(msg, leU64(height)...)
	msg = append(msg, leU64(nextHeight)...)
	return msg
}

// NEAR's canonical approval-inner enum tags: Endorsement = 0, Skip = 1.
const (
	tagEndorsement byte = 0
	tagSkip        byte = 1
)

func leU64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}
