package ed25519

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/kysee/near-bft-zk/gates"
)

// U64 mirrors gates.U64 (a field element range-checked to 64 bits).
type U64 = gates.U64

// SignatureCircuit verifies a single Ed25519 signature: that
// s·B = R + k·A, where k = SHA-512(R ‖ A ‖ M) mod ℓ, B is the standard
// base point, and A, R are points decompressed (and curve-equation-checked)
// from their 32-byte wire encodings.
//
// The message length is fixed per compiled circuit shape, matching the fixed
// "endorsement" / "skip" messages NEAR validators sign; the caller pads
// R ‖ A ‖ M to a whole number of 128-byte SHA-512 blocks exactly the way
// circuit.SHA256U32Circuit expects its preimage pre-padded, and supplies
// that padded block sequence as RAMBlocks. Define reconstructs R, A, and M's
// own bytes from RAMBlocks and asserts they match the public/witnessed
// values, so a prover cannot hash a different preimage than the one the
// public key and message actually commit to.
type SignatureCircuit struct {
	// PubKeyBytes and RBytes are the standard 32-byte little-endian
	// compressed Ed25519 encodings, each byte a field element in [0,255].
	PubKeyBytes [32]frontend.Variable `gnark:",public"`
	RBytes      [32]frontend.Variable `gnark:",public"`

	// Ax, Rx are the x-coordinates the prover recovers off-circuit via
	// RecoverX/DecodeCompressed; this circuit only checks the curve
	// equation and sign bit, never computes a square root itself.
	Ax *emulated.Element[Ed25519Fp]
	Rx *emulated.Element[Ed25519Fp]

	// SBits is the signature scalar s, MSB-first bit decomposition.
	SBits [256]frontend.Variable

	// Msg is the signed message's own bytes (0-255 each), MSB-first byte
	// order, fixed length for a given compiled shape.
	Msg []frontend.Variable

	// RAMBlocks is the padded R‖A‖M preimage, already split and padded
	// into 128-byte (16xU64) SHA-512 blocks.
	RAMBlocks [][16]U64
}

// Define implements frontend.Circuit.
func (c *SignatureCircuit) Define(api frontend.API) error {
	curve, err := NewCurve(api)
	if err != nil {
		return fmt.Errorf("ed25519: %w", err)
	}
	fp := curve.Field()

	aSign, aMaskedBytes := splitSignBit(api, c.PubKeyBytes)
	ay := packLittleEndianBytes(api, fp, aMaskedBytes)
	curve.AssertSignBit(c.Ax, aSign)
	aPoint := Point{X: c.Ax, Y: ay}
	curve.AssertOnCurve(aPoint)

	rSign, rMaskedBytes := splitSignBit(api, c.RBytes)
	ry := packLittleEndianBytes(api, fp, rMaskedBytes)
	curve.AssertSignBit(c.Rx, rSign)
	rPoint := Point{X: c.Rx, Y: ry}
	curve.AssertOnCurve(rPoint)

	if err := c.assertPreimageMatches(api); err != nil {
		return err
	}

	digest := gates.SHA512CompressBlocks(api, c.RAMBlocks)
	k := reduceDigestModFr(api, digest)
	kBits := frToBits(api, k)

	lhs := curve.ScalarMul(curve.BasePoint(), c.SBits[:])
	kA := curve.ScalarMul(aPoint, kBits)
	rhs := curve.Add(rPoint, kA)
	curve.AssertEqual(lhs, rhs)

	return nil
}

// assertPreimageMatches reconstructs R‖A‖M's own bytes from RAMBlocks and
// checks them against RBytes, PubKeyBytes, and Msg, so the hashed preimage
// cannot diverge from the values the rest of the circuit reasons about.
func (c *SignatureCircuit) assertPreimageMatches(api frontend.API) error {
	total := 64 + len(c.Msg)
	bytes := blocksToBytes(api, c.RAMBlocks, total)
	for i := 0; i < 32; i++ {
		api.AssertIsEqual(bytes[i], c.RBytes[i])
	}
	for i := 0; i < 32; i++ {
		api.AssertIsEqual(bytes[32+i], c.PubKeyBytes[i])
	}
	for i := 0; i < len(c.Msg); i++ {
		api.AssertIsEqual(bytes[64+i], c.Msg[i])
	}
	return nil
}

// splitSignBit decomposes a 32-byte little-endian point encoding into its
// sign bit (the top bit of the last byte) and the masked byte array with
// that bit cleared.
func splitSignBit(api frontend.API, enc [32]frontend.Variable) (sign frontend.Variable, masked [32]frontend.Variable) {
	masked = enc
	bits := api.ToBinary(enc[31], 8)
	sign = bits[7]
	masked[31] = api.FromBinary(bits[:7]...)
	return sign, masked
}

// packLittleEndianBytes builds the non-native field element encoded by a
// 32-byte little-endian byte array via Horner evaluation over the reversed
// (big-endian) byte order, over the custom Ed25519 field parameter.
func packLittleEndianBytes(api frontend.API, fp *emulated.Field[Ed25519Fp], bs [32]frontend.Variable) *emulated.Element[Ed25519Fp] {
	radix := big.NewInt(256)
	res := fp.Zero()
	nbLimbs := len(fp.Modulus().Limbs)
	limbBuf := make([]frontend.Variable, nbLimbs)
	for i := 31; i >= 0; i-- {
		res = fp.MulConst(res, radix)
		for j := range limbBuf {
			limbBuf[j] = 0
		}
		limbBuf[0] = bs[i]
		res = fp.Add(res, fp.NewElement(limbBuf))
	}
	return fp.Reduce(res)
}

// reduceDigestModFr reduces a 64-byte SHA-512 digest, interpreted as a
// little-endian integer per RFC 8032, modulo the curve's subgroup order ℓ.
func reduceDigestModFr(api frontend.API, digest [8]U64) *emulated.Element[Ed25519Fr] {
	fr, err := emulated.NewField[Ed25519Fr](api)
	if err != nil {
		panic(fmt.Sprintf("ed25519: new scalar field: %v", err))
	}

	// Unpack each 64-bit word into 8 bytes, most significant byte first
	// (standard SHA output byte order), then reverse the full 64-byte
	// array so Horner processes the little-endian integer's most
	// significant byte first.
	bytes := make([]frontend.Variable, 0, 64)
	for _, w := range digest {
		wb := api.ToBinary(w, 64)
		for i := 7; i >= 0; i-- {
			bytes = append(bytes, api.FromBinary(wb[i*8:i*8+8]...))
		}
	}
	radix := big.NewInt(256)
	res := fr.Zero()
	nbLimbs := len(fr.Modulus().Limbs)
	limbBuf := make([]frontend.Variable, nbLimbs)
	for i := 63; i >= 0; i-- {
		res = fr.MulConst(res, radix)
		for j := range limbBuf {
			limbBuf[j] = 0
		}
		limbBuf[0] = bytes[i]
		res = fr.Add(res, fr.NewElement(limbBuf))
	}
	return fr.Reduce(res)
}

// frToBits decomposes a reduced Ed25519Fr element into MSB-first bits
// suitable for Curve.ScalarMul.
func frToBits(api frontend.API, k *emulated.Element[Ed25519Fr]) []frontend.Variable {
	fr, err := emulated.NewField[Ed25519Fr](api)
	if err != nil {
		panic(fmt.Sprintf("ed25519: new scalar field: %v", err))
	}
	bits := fr.ToBits(k)
	// ToBits is LSB-first; ScalarMul expects MSB-first.
	out := make([]frontend.Variable, len(bits))
	for i, b := range bits {
		out[len(bits)-1-i] = b
	}
	return out
}

// blocksToBytes flattens a sequence of 16xU64 SHA-512 blocks back into their
// first n bytes, standard big-endian byte order within each word.
func blocksToBytes(api frontend.API, blocks [][16]U64, n int) []frontend.Variable {
	out := make([]frontend.Variable, 0, n)
	for _, block := range blocks {
		for _, w := range block {
			wb := api.ToBinary(w, 64)
			for i := 7; i >= 0 && len(out) < n; i-- {
				out = append(out, api.FromBinary(wb[i*8:i*8+8]...))
			}
		}
	}
	return out[:n]
}
