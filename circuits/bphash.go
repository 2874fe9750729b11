package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/uints"
)

// BpHashCircuit proves next_bp_hash = SHA256(le_u32(|V|) ‖ serialize(V[0]) ‖
// … ‖ serialize(V[|V|-1])) per §4.5. NumValidators and RecordLen are
// compile-time shape parameters (circuitcache keys on the pair); validators
// are hashed in the exact witnessed order, so a permuted validator list
// produces an unsatisfiable proof (§8 Scenario F).
type BpHashCircuit struct {
	NumValidators int
	RecordLen     int

	// CountLE is le_u32(|V|), 4 bytes.
	CountLE [4]uints.U8
	// Records[i] is validator i's canonically-serialized record bytes, in
	// list order.
	Records [][]uints.U8

	Digest [32]uints.U8 `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *BpHashCircuit) Define(api frontend.API) error {
	if len(c.Records) != c.NumValidators {
		return fmt.Errorf("circuit: BpHashCircuit record count %d != shape %d", len(c.Records), c.NumValidators)
	}

	preimage := make([]uints.U8, 0, 4+c.NumValidators*c.RecordLen)
	preimage = append(preimage, c.CountLE[:]...)
	for i, rec := range c.Records {
		if len(rec) != c.RecordLen {
			return fmt.Errorf("circuit: BpHashCircuit record %d length %d != shape %d", i, len(rec), c.RecordLen)
		}
		preimage = append(preimage, rec...)
	}

	digest, err := HashBytes(api, preimage)
	if err != nil {
		return fmt.Errorf("circuit: bp hash: %w", err)
	}
	for i := 0; i < 32; i++ {
		api.AssertIsEqual(digest[i].Val, c.Digest[i].Val)
	}
	return nil
}
