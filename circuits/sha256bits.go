package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/sha2"
	"github.com/consensys/gnark/std/math/uints"
)

// SHA256BitsCircuit is the bit-addressed flavour of SHA-256: it takes and
// emits individual boolean-constrained variables rather than u32 limbs,
// trading a larger public-input footprint (256 public bits for the digest)
// for reuse of gnark's own byte-oriented SHA-256 gadget. Block-header
// hashing does not use this flavour; it runs the u32-flavour compression
// loop in sha256u32.go.
type SHA256BitsCircuit struct {
	// Msg is the raw (unpadded) message, one frontend.Variable per bit, most
	// significant bit first within each byte. len(Msg) must be a multiple of 8.
	Msg []frontend.Variable

	// Digest is the 256-bit SHA-256 output, MSB first.
	Digest [256]frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *SHA256BitsCircuit) Define(api frontend.API) error {
	if len(c.Msg)%8 != 0 {
		return fmt.Errorf("sha256bits: message bit length %d not a multiple of 8", len(c.Msg))
	}

	msgBytes := bitsToU8(api, c.Msg)

	hasher, err := sha2.New(api)
	if err != nil {
		return fmt.Errorf("sha2.New: %w", err)
	}
	hasher.Write(msgBytes)
	digestBytes := hasher.Sum()

	digestBits := u8ToBits(api, digestBytes)
	for i := 0; i < 256; i++ {
		api.AssertIsEqual(digestBits[i], c.Digest[i])
	}
	return nil
}

// bitsToU8 packs a big-endian bitstream into uints.U8 bytes, most significant
// bit first, matching the convention of hashPair's byte-array inputs.
func bitsToU8(api frontend.API, bits []frontend.Variable) []uints.U8 {
	n := len(bits) / 8
	out := make([]uints.U8, n)
	for i := 0; i < n; i++ {
		var v frontend.Variable = 0
		for j := 0; j < 8; j++ {
			v = api.Add(api.Mul(v, 2), bits[i*8+j])
		}
		out[i] = uints.U8{Val: v}
	}
	return out
}

// u8ToBits unpacks bytes into a big-endian bitstream of frontend.Variable.
func u8ToBits(api frontend.API, bs []uints.U8) []frontend.Variable {
	out := make([]frontend.Variable, 0, len(bs)*8)
	for _, b := range bs {
		bits := api.ToBinary(b.Val, 8)
		for i := 7; i >= 0; i-- {
			out = append(out, bits[i])
		}
	}
	return out
}

// HashPairBytes computes SHA-256(left || right) over two fixed-length byte
// arrays with gnark's byte-oriented SHA-256 gadget.
func HashPairBytes(api frontend.API, left, right []uints.U8) ([]uints.U8, error) {
	hasher, err := sha2.New(api)
	if err != nil {
		return nil, fmt.Errorf("sha2.New: %w", err)
	}
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(), nil
}

// HashBytes computes SHA-256 over a single byte slice.
func HashBytes(api frontend.API, msg []uints.U8) ([]uints.U8, error) {
	hasher, err := sha2.New(api)
	if err != nil {
		return nil, fmt.Errorf("sha2.New: %w", err)
	}
	hasher.Write(msg)
	return hasher.Sum(), nil
}
