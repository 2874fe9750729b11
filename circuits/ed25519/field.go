// Package ed25519 implements Ed25519 signature verification as a gnark
// circuit: non-native base-field and scalar-field arithmetic, twisted Edwards
// curve operations, point decompression, and the final signature check
// s·B = R + k·A with k = SHA-512(R ‖ A ‖ M) mod ℓ. None of the example
// circuits in this codebase's surrounding corpus verify Ed25519 (the closest
// relative, an EdDSA-over-BabyJubjub check, runs on a native in-circuit
// curve rather than a foreign one), so the non-native field here is built on
// gnark's emulated-field package with custom Ed25519 parameters, and the
// curve/signature equations follow the reference Ed25519 construction
// directly.
package ed25519

import "math/big"

// Ed25519Fp is the base field of Curve25519: p = 2^255 - 19.
type Ed25519Fp struct{}

func (Ed25519Fp) NbLimbs() uint     { return 4 }
func (Ed25519Fp) BitsPerLimb() uint { return 64 }
func (Ed25519Fp) IsPrime() bool     { return true }
func (Ed25519Fp) Modulus() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 255)
	return p.Sub(p, big.NewInt(19))
}

// Ed25519Fr is the prime order of the curve's main subgroup,
// ℓ = 2^252 + 27742317777372353535851937790883648493. Signature scalars
// (s, and the derived challenge k) live in this field.
type Ed25519Fr struct{}

func (Ed25519Fr) NbLimbs() uint     { return 4 }
func (Ed25519Fr) BitsPerLimb() uint { return 64 }
func (Ed25519Fr) IsPrime() bool     { return true }
func (Ed25519Fr) Modulus() *big.Int {
	tail, ok := new(big.Int).SetString("27742317777372353535851937790883648493", 10)
	if !ok {
		panic("ed25519: bad subgroup-order constant")
	}
	l := new(big.Int).Lsh(big.NewInt(1), 252)
	return l.Add(l, tail)
}

// edD returns the curve equation's d coefficient, -121665/121666 mod p.
func edD() *big.Int {
	p := Ed25519Fp{}.Modulus()
	num := new(big.Int).Mod(big.NewInt(-121665), p)
	den := big.NewInt(121666)
	denInv := new(big.Int).ModInverse(den, p)
	if denInv == nil {
		panic("ed25519: 121666 not invertible mod p")
	}
	return num.Mod(num.Mul(num, denInv), p)
}

// basePointXY returns the standard Ed25519 base point's affine coordinates.
func basePointXY() (x, y *big.Int) {
	p := Ed25519Fp{}.Modulus()
	yNum := big.NewInt(4)
	yDen := big.NewInt(5)
	yDenInv := new(big.Int).ModInverse(yDen, p)
	y = new(big.Int).Mod(new(big.Int).Mul(yNum, yDenInv), p)

	// x is the (even) square root of (y^2-1)/(d*y^2+1) mod p.
	x = recoverXNative(y, false)
	return x, y
}

// recoverXNative computes a candidate x coordinate for a given y on the
// curve -x^2+y^2 = 1+d*x^2*y^2, selecting the root whose least significant
// bit matches signBitSet, using the p ≡ 5 (mod 8) square-root formula.
func recoverXNative(y *big.Int, signBitSet bool) *big.Int {
	p := Ed25519Fp{}.Modulus()
	d := edD()

	ySq := new(big.Int).Mul(y, y)
	ySq.Mod(ySq, p)

	num := new(big.Int).Sub(ySq, big.NewInt(1))
	num.Mod(num, p)

	den := new(big.Int).Mul(d, ySq)
	den.Add(den, big.NewInt(1))
	den.Mod(den, p)
	denInv := new(big.Int).ModInverse(den, p)
	if denInv == nil {
		panic("ed25519: denominator not invertible while recovering x")
	}
	xSq := new(big.Int).Mul(num, denInv)
	xSq.Mod(xSq, p)

	x := sqrtMod(xSq, p)
	if x == nil {
		panic("ed25519: xSq is not a quadratic residue")
	}
	if x.Bit(0) == 1 != signBitSet {
		x.Sub(p, x)
	}
	return x
}

// sqrtMod computes a square root of a modulo p ≡ 5 (mod 8) via the standard
// exponentiation formula, returning nil if a is not a residue.
func sqrtMod(a, p *big.Int) *big.Int {
	// exponent = (p+3)/8
	exp := new(big.Int).Add(p, big.NewInt(3))
	exp.Rsh(exp, 3)
	candidate := new(big.Int).Exp(a, exp, p)

	sq := new(big.Int).Mul(candidate, candidate)
	sq.Mod(sq, p)
	if sq.Cmp(new(big.Int).Mod(a, p)) == 0 {
		return candidate
	}

	// Multiply by sqrt(-1) mod p and try again (the other branch of p≡5 mod 8).
	two := big.NewInt(2)
	exp2 := new(big.Int).Sub(p, big.NewInt(1))
	exp2.Rsh(exp2, 2)
	sqrtMinus1 := new(big.Int).Exp(two, exp2, p)

	candidate.Mul(candidate, sqrtMinus1)
	candidate.Mod(candidate, p)
	sq.Mul(candidate, candidate)
	sq.Mod(sq, p)
	if sq.Cmp(new(big.Int).Mod(a, p)) == 0 {
		return candidate
	}
	return nil
}
