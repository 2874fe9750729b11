package ed25519

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"
)

// Point is an affine point on the twisted Edwards curve
// -x^2 + y^2 = 1 + d*x^2*y^2, with coordinates held as non-native elements
// of Ed25519Fp.
type Point struct {
	X, Y *emulated.Element[Ed25519Fp]
}

// Curve bundles the non-native field used for point arithmetic with the
// curve's d coefficient, precomputed once per circuit.
type Curve struct {
	api frontend.API
	fp  *emulated.Field[Ed25519Fp]
	d   *emulated.Element[Ed25519Fp]
}

// NewCurve builds the Ed25519 point-arithmetic helper for the current
// circuit's API.
func NewCurve(api frontend.API) (*Curve, error) {
	fp, err := emulated.NewField[Ed25519Fp](api)
	if err != nil {
		return nil, fmt.Errorf("ed25519: new base field: %w", err)
	}
	return &Curve{api: api, fp: fp, d: fp.NewElement(edD())}, nil
}

// Field exposes the underlying non-native field, for callers (such as the
// signature circuit) that need to assert equality on recovered coordinates.
func (c *Curve) Field() *emulated.Field[Ed25519Fp] { return c.fp }

// Identity returns the curve's neutral element, (0, 1).
func (c *Curve) Identity() Point {
	return Point{X: c.fp.Zero(), Y: c.fp.One()}
}

// BasePoint returns Ed25519's standard generator B as a circuit constant.
func (c *Curve) BasePoint() Point {
	x, y := basePointXY()
	return Point{X: c.fp.NewElement(x), Y: c.fp.NewElement(y)}
}

// Add computes p1+p2 using the complete twisted-Edwards addition law (valid
// for all inputs, including p1==p2, because a=-1 is a square and d is a
// non-square mod p for Ed25519 — so there is no exceptional input pair and
// no separate point-at-infinity case to special-case in-circuit).
func (c *Curve) Add(p1, p2 Point) Point {
	fp := c.fp
	x1y2 := fp.Mul(p1.X, p2.Y)
	y1x2 := fp.Mul(p1.Y, p2.X)
	y1y2 := fp.Mul(p1.Y, p2.Y)
	x1x2 := fp.Mul(p1.X, p2.X)
	dxxyy := fp.Mul(c.d, fp.Mul(x1x2, y1y2))

	one := fp.One()
	x3 := fp.Div(fp.Add(x1y2, y1x2), fp.Add(one, dxxyy))
	y3 := fp.Div(fp.Add(y1y2, x1x2), fp.Sub(one, dxxyy))
	return Point{X: x3, Y: y3}
}

// Double computes 2p via the same complete addition formula.
func (c *Curve) Double(p Point) Point {
	return c.Add(p, p)
}

// Negate returns -p = (-x, y).
func (c *Curve) Negate(p Point) Point {
	return Point{X: c.fp.Neg(p.X), Y: p.Y}
}

// Select returns p1 if bit=1 else p2, coordinate-wise.
func (c *Curve) Select(bit frontend.Variable, p1, p2 Point) Point {
	return Point{
		X: c.fp.Select(bit, p1.X, p2.X),
		Y: c.fp.Select(bit, p1.Y, p2.Y),
	}
}

// AssertEqual constrains p1 == p2 coordinate-wise.
func (c *Curve) AssertEqual(p1, p2 Point) {
	c.fp.AssertIsEqual(p1.X, p2.X)
	c.fp.AssertIsEqual(p1.Y, p2.Y)
}

// ScalarMul computes [k]P for a scalar given as big-endian bits (MSB first),
// via a double-and-add ladder. The accumulator is initialized to a fixed
// auxiliary point H disjoint from P's subgroup cosets rather than to the
// identity, and H's contribution is subtracted natively-precomputed at the
// end; this keeps every intermediate accumulator an "ordinary" curve point
// throughout the ladder without relying on the completeness of the identity
// representation under repeated doubling, mirroring the fixed-point-offset
// technique used for exactly this purpose in other non-native scalar
// multiplication constructions.
func (c *Curve) ScalarMul(p Point, bits []frontend.Variable) Point {
	h := c.auxOffset()
	acc := h
	for i := 0; i < len(bits); i++ {
		acc = c.Double(acc)
		sum := c.Add(acc, p)
		acc = c.Select(bits[i], sum, acc)
	}
	offsetMultiple := new(big.Int).Lsh(big.NewInt(1), uint(len(bits)))
	offset := c.scalarMulConstPoint(auxOffsetXY, offsetMultiple)
	return c.Add(acc, c.Negate(offset))
}

// auxOffsetXY is a fixed, arbitrarily-chosen auxiliary point used only to
// keep ScalarMul's ladder away from the identity; any point not in the
// prime-order subgroup generated by the signature's A or B works, since it
// is subtracted back out exactly.
var auxOffsetXY = func() (x, y *big.Int) {
	p := Ed25519Fp{}.Modulus()
	y = new(big.Int).Mod(big.NewInt(3), p)
	x = recoverXNative(y, false)
	return x, y
}

func (c *Curve) auxOffset() Point {
	x, y := auxOffsetXY()
	return Point{X: c.fp.NewElement(x), Y: c.fp.NewElement(y)}
}

// scalarMulConstPoint multiplies a circuit-constant point by a
// circuit-constant scalar entirely natively (outside the constraint system),
// embedding only the resulting constant coordinates.
func (c *Curve) scalarMulConstPoint(xy func() (*big.Int, *big.Int), k *big.Int) Point {
	x, y := xy()
	rx, ry := nativeScalarMul(x, y, k)
	return Point{X: c.fp.NewElement(rx), Y: c.fp.NewElement(ry)}
}

// nativeScalarMul performs the same double-and-add over plain big.Int
// arithmetic, used only to precompute circuit constants.
func nativeScalarMul(x, y *big.Int, k *big.Int) (*big.Int, *big.Int) {
	p := Ed25519Fp{}.Modulus()
	d := edD()
	accX, accY := big.NewInt(0), big.NewInt(1)
	addX, addY := new(big.Int).Set(x), new(big.Int).Set(y)

	add := func(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int) {
		x1y2 := new(big.Int).Mul(x1, y2)
		y1x2 := new(big.Int).Mul(y1, x2)
		y1y2 := new(big.Int).Mul(y1, y2)
		x1x2 := new(big.Int).Mul(x1, x2)
		dxxyy := new(big.Int).Mul(d, new(big.Int).Mul(x1x2, y1y2))
		dxxyy.Mod(dxxyy, p)

		one := big.NewInt(1)
		xNum := new(big.Int).Mod(new(big.Int).Add(x1y2, y1x2), p)
		xDen := new(big.Int).Mod(new(big.Int).Add(one, dxxyy), p)
		yNum := new(big.Int).Mod(new(big.Int).Add(y1y2, x1x2), p)
		yDen := new(big.Int).Mod(new(big.Int).Sub(one, dxxyy), p)

		xDenInv := new(big.Int).ModInverse(xDen, p)
		yDenInv := new(big.Int).ModInverse(yDen, p)
		rx := new(big.Int).Mod(new(big.Int).Mul(xNum, xDenInv), p)
		ry := new(big.Int).Mod(new(big.Int).Mul(yNum, yDenInv), p)
		return rx, ry
	}

	for i := k.BitLen() - 1; i >= 0; i-- {
		accX, accY = add(accX, accY, accX, accY)
		if k.Bit(i) == 1 {
			accX, accY = add(accX, accY, addX, addY)
		}
	}
	return accX, accY
}
