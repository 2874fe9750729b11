package gates

import (
	"github.com/consensys/gnark/frontend"
)

// U64 is a target constrained to [0, 2^64), used by SHA-512. It is
// represented directly as a single field element with a 64-bit range check,
// since both BW6-761 and BLS12-377's scalar fields comfortably hold 64 bits.
// AND/XOR operate bit-by-bit rather than through an interleaved encoding
// like U32's, since SHA-512 only runs once per signature verification and
// the extra constraints of a full bit decomposition are affordable at that
// frequency.
type U64 = frontend.Variable

var sha512K = [80]uint64{
	0x428a2f98d728ae22, 0x7137449123ef65cd, 0xb5c0fbcfec4d3b2f, 0xe9b5dba58189dbbc,
	0x3956c25bf348b538, 0x59f111f1b605d019, 0x923f82a4af194f9b, 0xab1c5ed5da6d8118,
	0xd807aa98a3030242, 0x12835b0145706fbe, 0x243185be4ee4b28c, 0x550c7dc3d5ffb4e2,
	0x72be5d74f27b896f, 0x80deb1fe3b1696b1, 0x9bdc06a725c71235, 0xc19bf174cf692694,
	0xe49b69c19ef14ad2, 0xefbe4786384f25e3, 0x0fc19dc68b8cd5b5, 0x240ca1cc77ac9c65,
	0x2de92c6f592b0275, 0x4a7484aa6ea6e483, 0x5cb0a9dcbd41fbd4, 0x76f988da831153b5,
	0x983e5152ee66dfab, 0xa831c66d2db43210, 0xb00327c898fb213f, 0xbf597fc7beef0ee4,
	0xc6e00bf33da88fc2, 0xd5a79147930aa725, 0x06ca6351e003826f, 0x142929670a0e6e70,
	0x27b70a8546d22ffc, 0x2e1b21385c26c926, 0x4d2c6dfc5ac42aed, 0x53380d139d95b3df,
	0x650a73548baf63de, 0x766a0abb3c77b2a8, 0x81c2c92e47edaee6, 0x92722c851482353b,
	0xa2bfe8a14cf10364, 0xa81a664bbc423001, 0xc24b8b70d0f89791, 0xc76c51a30654be30,
	0xd192e819d6ef5218, 0xd69906245565a910, 0xf40e35855771202a, 0x106aa07032bbd1b8,
	0x19a4c116b8d2d0c8, 0x1e376c085141ab53, 0x2748774cdf8eeb99, 0x34b0bcb5e19b48a8,
	0x391c0cb3c5c95a63, 0x4ed8aa4ae3418acb, 0x5b9cca4f7763e373, 0x682e6ff3d6b2b8a3,
	0x748f82ee5defb2fc, 0x78a5636f43172f60, 0x84c87814a1f0ab72, 0x8cc702081a6439ec,
	0x90befffa23631e28, 0xa4506cebde82bde9, 0xbef9a3f7b2c67915, 0xc67178f2e372532b,
	0xca273eceea26619c, 0xd186b8c721c0c207, 0xeada7dd6cde0eb1e, 0xf57d4f7fee6ed178,
	0x06f067aa72176fba, 0x0a637dc5a2c898a6, 0x113f9804bef90dae, 0x1b710b35131c471b,
	0x28db77f523047d84, 0x32caab7b40c72493, 0x3c9ebe0a15c9bebc, 0x431d67c49c100d4c,
	0x4cc5d4becb3e42b6, 0x597f299cfc657e2a, 0x5fcb6fab3ad6faec, 0x6c44198c4a475817,
}

// Sha512H0 holds the eight initial SHA-512 chaining values.
var Sha512H0 = [8]uint64{
	0x6a09e667f3bcc908, 0xbb67ae8584caa73b, 0x3c6ef372fe94f82b, 0xa54ff53a5f1d36f1,
	0x510e527fade682d1, 0x9b05688c2b3e6c1f, 0x1f83d9abfb41bd6b, 0x5be0cd19137e2179,
}

// SHA512Block runs one 80-round SHA-512 compression over a single 16-word
// (128-byte) message block, returning the updated 8-word chaining value.
func SHA512Block(api frontend.API, h [8]U64, block [16]U64) [8]U64 {
	var w [80]U64
	copy(w[:16], block[:])
	for i := 16; i < 80; i++ {
		s0 := xor64(api, rotr64(api, w[i-15], 1), rotr64(api, w[i-15], 8), shr64(api, w[i-15], 7))
		s1 := xor64(api, rotr64(api, w[i-2], 19), rotr64(api, w[i-2], 61), shr64(api, w[i-2], 6))
		w[i] = add64(api, w[i-16], s0, w[i-7], s1)
	}

	a, b, c, d, e, f, g, hh := h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7]
	for i := 0; i < 80; i++ {
		s1 := xor64(api, rotr64(api, e, 14), rotr64(api, e, 18), rotr64(api, e, 41))
		ch := xor64(api, and64(api, e, f), and64(api, notWord64(api, e), g))
		t1 := add64(api, hh, s1, ch, sha512K[i], w[i])

		s0 := xor64(api, rotr64(api, a, 28), rotr64(api, a, 34), rotr64(api, a, 39))
		maj := xor64(api, xor64(api, and64(api, a, b), and64(api, a, c)), and64(api, b, c))
		t2 := add64(api, s0, maj)

		hh = g
		g = f
		f = e
		e = add64(api, d, t1)
		d = c
		c = b
		b = a
		a = add64(api, t1, t2)
	}

	return [8]U64{
		add64(api, h[0], a), add64(api, h[1], b), add64(api, h[2], c), add64(api, h[3], d),
		add64(api, h[4], e), add64(api, h[5], f), add64(api, h[6], g), add64(api, h[7], hh),
	}
}

// SHA512CompressBlocks runs the full compression loop over a sequence of
// 1024-bit blocks and returns the final 512-bit digest as 8 U64 limbs.
func SHA512CompressBlocks(api frontend.API, blocks [][16]U64) [8]U64 {
	var hv [8]U64
	for i := range Sha512H0 {
		hv[i] = Sha512H0[i]
	}
	for _, block := range blocks {
		hv = SHA512Block(api, hv, block)
	}
	return hv
}

func rotr64(api frontend.API, w U64, n int) U64 {
	n %= 64
	if n == 0 {
		return w
	}
	bits := api.ToBinary(w, 64)
	rotated := make([]frontend.Variable, 64)
	for i := 0; i < 64; i++ {
		rotated[i] = bits[(i+n)%64]
	}
	return api.FromBinary(rotated...)
}

func shr64(api frontend.API, w U64, n int) U64 {
	if n <= 0 {
		return w
	}
	if n >= 64 {
		return frontend.Variable(0)
	}
	bits := api.ToBinary(w, 64)
	shifted := make([]frontend.Variable, 64)
	for i := 0; i < 64; i++ {
		if i+n < 64 {
			shifted[i] = bits[i+n]
		} else {
			shifted[i] = 0
		}
	}
	return api.FromBinary(shifted...)
}

func xor64(api frontend.API, ws ...U64) U64 {
	bitsList := make([][]frontend.Variable, len(ws))
	for i, w := range ws {
		bitsList[i] = api.ToBinary(w, 64)
	}
	out := make([]frontend.Variable, 64)
	for i := 0; i < 64; i++ {
		acc := bitsList[0][i]
		for j := 1; j < len(ws); j++ {
			b := bitsList[j][i]
			prod := api.Mul(acc, b)
			acc = api.Sub(api.Add(acc, b), api.Mul(2, prod))
		}
		out[i] = acc
	}
	return api.FromBinary(out...)
}

func and64(api frontend.API, x, y U64) U64 {
	bx := api.ToBinary(x, 64)
	by := api.ToBinary(y, 64)
	out := make([]frontend.Variable, 64)
	for i := 0; i < 64; i++ {
		out[i] = api.Mul(bx[i], by[i])
	}
	return api.FromBinary(out...)
}

func notWord64(api frontend.API, w U64) U64 {
	bits := api.ToBinary(w, 64)
	out := make([]frontend.Variable, 64)
	for i, b := range bits {
		out[i] = api.Sub(1, b)
	}
	return api.FromBinary(out...)
}

func add64(api frontend.API, ws ...U64) U64 {
	acc := frontend.Variable(0)
	for _, w := range ws {
		acc = api.Add(acc, w)
	}
	bits := api.ToBinary(acc, 72)
	return api.FromBinary(bits[:64]...)
}
