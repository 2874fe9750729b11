package ed25519

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"
)

// AssertOnCurve constrains p to satisfy the twisted Edwards curve equation
// -x^2 + y^2 = 1 + d*x^2*y^2.
func (c *Curve) AssertOnCurve(p Point) {
	fp := c.fp
	xx := fp.Mul(p.X, p.X)
	yy := fp.Mul(p.Y, p.Y)
	lhs := fp.Sub(yy, xx)
	rhs := fp.Add(fp.One(), fp.Mul(c.d, fp.Mul(xx, yy)))
	fp.AssertIsEqual(lhs, rhs)
}

// AssertSignBit constrains x's least significant bit to equal signBit,
// matching the high bit of a standard 32-byte compressed Ed25519 point
// encoding (the y-coordinate occupies the low 255 bits, and the top bit of
// the last byte records x's parity).
func (c *Curve) AssertSignBit(x *emulated.Element[Ed25519Fp], signBit frontend.Variable) {
	bits := c.fp.ToBits(x)
	c.api.AssertIsEqual(bits[0], signBit)
}

// RecoverX reconstructs the x-coordinate of a decompressed point from its
// y-coordinate and sign bit, for use outside the circuit when building a
// witness from a raw 32-byte compressed public key or signature R value.
// The in-circuit side only re-checks the curve equation and the sign bit; it
// never computes a square root itself.
func RecoverX(y *big.Int, signBitSet bool) *big.Int {
	return recoverXNative(y, signBitSet)
}

// DecodeCompressed splits a little-endian 32-byte compressed point encoding
// into its y-coordinate (low 255 bits) and sign bit (top bit of the last
// byte), and recovers the corresponding x-coordinate natively.
func DecodeCompressed(b [32]byte) (x, y *big.Int, signBit bool) {
	buf := make([]byte, 32)
	copy(buf, b[:])
	signBit = buf[31]&0x80 != 0
	buf[31] &= 0x7f

	// b is little-endian; big.Int.SetBytes wants big-endian.
	rev := make([]byte, 32)
	for i := 0; i < 32; i++ {
		rev[i] = buf[31-i]
	}
	y = new(big.Int).SetBytes(rev)
	x = recoverXNative(y, signBit)
	return x, y, signBit
}
