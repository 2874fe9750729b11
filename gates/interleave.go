// Package gates implements the interleaved-u32 bitwise gadgets that the u32
// flavour of SHA-256 builds on (see circuits/sha256u32.go). A 32-bit word with
// bits b31..b0 is represented in "interleaved" form as the 64-bit field value
// Σ bi·4^i — every original bit lands on an even base-4 digit. Summing two
// interleaved words in the field lets AND and XOR fall out of the base-4
// digits of the sum without ever touching individual bits again.
package gates

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
)

// U32 is a target constrained to [0, 2^32). Unlike B32 it is NOT interleaved;
// it is the plain binary encoding used at circuit boundaries (message words,
// round constants, digest limbs).
type U32 = frontend.Variable

// B32 holds the interleaved form of a 32-bit word: value = Σ bi·4^i. Two B32
// values can be added directly in the field and decoded with Uninterleave to
// recover simultaneous AND/XOR — see AndXor.
type B32 struct {
	Val frontend.Variable
}

// maxInterleavedSum is the largest number of interleaved u32 terms that may be
// summed before a mandatory Uninterleave. Each interleaved word is bounded by
// (4^32-1)/3 (all bits set); summing four or more such values lets a base-4
// digit reach 4 and carry into its neighbour, producing a pair of words that
// decode to the wrong AND/XOR. Capping at three keeps every digit at most 3,
// so the running sum stays at most 4^32-1 < 2^64.
const maxInterleavedSum = 3

// Interleave converts a plain 32-bit word (as individual bits, LSB first) into
// its interleaved B32 form: Σ bits[i]·4^i.
func Interleave(api frontend.API, bits []frontend.Variable) B32 {
	if len(bits) != 32 {
		panic("gates: Interleave requires exactly 32 bits")
	}
	pow4 := big.NewInt(1)
	four := big.NewInt(4)
	acc := frontend.Variable(0)
	for i := 0; i < 32; i++ {
		term := api.Mul(bits[i], new(big.Int).Set(pow4))
		acc = api.Add(acc, term)
		pow4 = new(big.Int).Mul(pow4, four)
	}
	return B32{Val: acc}
}

// InterleaveWord interleaves a U32 value by first decomposing it into bits.
func InterleaveWord(api frontend.API, w U32) B32 {
	bits := api.ToBinary(w, 32)
	return Interleave(api, bits)
}

// Uninterleave decodes a base-4 sum of at most maxInterleavedSum interleaved
// words into two plain U32 targets: the even-digit word (the bitwise AND of
// two summed inputs, or more generally the "carry" word) and the odd-parity
// word (the bitwise XOR). It decomposes the 64-bit field value of s into 32
// base-4 digits via bit decomposition, which doubles as the digit's own range
// check.
func Uninterleave(api frontend.API, s frontend.Variable) (and, xor U32) {
	// A sum of up to maxInterleavedSum terms is at most 4^32-1 < 2^64; the
	// 66-bit decomposition leaves two spare high bits above that.
	bits := api.ToBinary(s, 66)

	andBits := make([]frontend.Variable, 32)
	xorBits := make([]frontend.Variable, 32)
	for i := 0; i < 32; i++ {
		lo := bits[2*i]
		hi := bits[2*i+1]
		// digit = lo + 2*hi ∈ {0,1,2,3}; AND-bit = hi (digit>=2 half),
		// XOR-bit = digit's parity, which is just lo.
		andBits[i] = hi
		xorBits[i] = lo
	}
	and = api.FromBinary(andBits...)
	xor = api.FromBinary(xorBits...)
	return and, xor
}

// AndXor returns (x & y, x ^ y) for two plain U32 targets, computed via a
// single interleaved addition plus one Uninterleave.
func AndXor(api frontend.API, x, y U32) (and, xor U32) {
	bx := InterleaveWord(api, x)
	by := InterleaveWord(api, y)
	sum := api.Add(bx.Val, by.Val)
	return Uninterleave(api, sum)
}

// XorMany computes the bitwise XOR of up to maxInterleavedSum plain U32
// values by summing their interleaved forms and uninterleaving once. Callers
// with more than three inputs must chain XorMany over groups of at most three,
// feeding each intermediate XOR back in — never summing more than three
// interleaved terms in one field addition.
func XorMany(api frontend.API, words ...U32) U32 {
	if len(words) == 0 {
		return frontend.Variable(0)
	}
	if len(words) > maxInterleavedSum {
		panic("gates: XorMany called with more than 3 words; chain pairwise instead")
	}
	acc := frontend.Variable(0)
	for _, w := range words {
		acc = api.Add(acc, InterleaveWord(api, w).Val)
	}
	_, xor := Uninterleave(api, acc)
	return xor
}

// XorChain XORs an arbitrary number of U32 values, automatically chaining
// through intermediate Uninterleave calls every maxInterleavedSum terms so the
// running interleaved sum never overflows.
func XorChain(api frontend.API, words ...U32) U32 {
	if len(words) == 0 {
		return frontend.Variable(0)
	}
	acc := words[0]
	rest := words[1:]
	for len(rest) > 0 {
		n := maxInterleavedSum - 1
		if n > len(rest) {
			n = len(rest)
		}
		group := append([]U32{acc}, rest[:n]...)
		acc = XorMany(api, group...)
		rest = rest[n:]
	}
	return acc
}

// RotateRight rotates a 32-bit word right by n bits using a bit decomposition
// with a constant, compile-time-known index permutation.
func RotateRight(api frontend.API, w U32, n int) U32 {
	n = n % 32
	if n == 0 {
		return w
	}
	bits := api.ToBinary(w, 32)
	rotated := make([]frontend.Variable, 32)
	for i := 0; i < 32; i++ {
		rotated[i] = bits[(i+n)%32]
	}
	return api.FromBinary(rotated...)
}

// ShiftRight performs a logical right shift by n bits, zero-filling from the
// top (used by SHA-256's σ0/σ1/Σ0/Σ1 functions).
func ShiftRight(api frontend.API, w U32, n int) U32 {
	if n <= 0 {
		return w
	}
	if n >= 32 {
		return frontend.Variable(0)
	}
	bits := api.ToBinary(w, 32)
	shifted := make([]frontend.Variable, 32)
	for i := 0; i < 32; i++ {
		if i+n < 32 {
			shifted[i] = bits[i+n]
		} else {
			shifted[i] = 0
		}
	}
	return api.FromBinary(shifted...)
}

// Add32 adds two or more U32 values modulo 2^32, discarding carry beyond the
// 32nd bit (SHA-256's word addition is defined mod 2^32).
func Add32(api frontend.API, words ...U32) U32 {
	acc := frontend.Variable(0)
	for _, w := range words {
		acc = api.Add(acc, w)
	}
	// acc fits comfortably in the field; truncate to 32 bits mod 2^32 by
	// re-decomposing and dropping carries above bit 31.
	bits := api.ToBinary(acc, 40)
	return api.FromBinary(bits[:32]...)
}
