package gates

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"
)

type andXorCircuit struct {
	X, Y         frontend.Variable
	WantAnd      frontend.Variable `gnark:",public"`
	WantXor      frontend.Variable `gnark:",public"`
}

func (c *andXorCircuit) Define(api frontend.API) error {
	and, xor := AndXor(api, c.X, c.Y)
	api.AssertIsEqual(and, c.WantAnd)
	api.AssertIsEqual(xor, c.WantXor)
	return nil
}

func TestAndXorMatchesNative(t *testing.T) {
	assert := test.NewAssert(t)

	cases := []struct{ x, y uint32 }{
		{0, 0},
		{0xFFFFFFFF, 0},
		{0xFFFFFFFF, 0xFFFFFFFF},
		{0x0F0F0F0F, 0xF0F0F0F0},
		{0x12345678, 0x9ABCDEF0},
	}

	for _, c := range cases {
		witness := &andXorCircuit{
			X:       c.x,
			Y:       c.y,
			WantAnd: c.x & c.y,
			WantXor: c.x ^ c.y,
		}
		assert.SolvingSucceeded(&andXorCircuit{}, witness, test.WithCurves(ecc.BN254))
	}
}

type xorChainCircuit struct {
	Words   [5]frontend.Variable
	WantXor frontend.Variable `gnark:",public"`
}

func (c *xorChainCircuit) Define(api frontend.API) error {
	got := XorChain(api, c.Words[:]...)
	api.AssertIsEqual(got, c.WantXor)
	return nil
}

func TestXorChainMatchesNative(t *testing.T) {
	assert := test.NewAssert(t)

	words := [5]uint32{0x11111111, 0x22222222, 0x33333333, 0x44444444, 0x55555555}
	want := uint32(0)
	var in [5]frontend.Variable
	for i, w := range words {
		want ^= w
		in[i] = w
	}

	witness := &xorChainCircuit{Words: in, WantXor: want}
	assert.SolvingSucceeded(&xorChainCircuit{}, witness, test.WithCurves(ecc.BN254))
}

type rotateRightCircuit struct {
	X    frontend.Variable
	Want frontend.Variable `gnark:",public"`
	N    int
}

func (c *rotateRightCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(RotateRight(api, c.X, c.N), c.Want)
	return nil
}

func TestRotateRightMatchesNative(t *testing.T) {
	require.Equal(t, uint32(0x80000000), rotr(1, 1))

	assert := test.NewAssert(t)
	cases := []struct {
		x uint32
		n int
	}{
		{3, 1},
		{0x12345678, 7},
		{0x80000001, 31},
	}
	for _, c := range cases {
		witness := &rotateRightCircuit{X: c.x, Want: rotr(c.x, uint(c.n)), N: c.n}
		assert.SolvingSucceeded(&rotateRightCircuit{N: c.n}, witness, test.WithCurves(ecc.BN254))
	}
}

// rotr is a tiny native reference used to compute the expected values for
// RotateRight in TestRotateRightMatchesNative.
func rotr(x uint32, n uint) uint32 {
	n %= 32
	return (x >> n) | (x << (32 - n))
}
