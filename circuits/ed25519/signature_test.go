package ed25519

import (
	stded25519 "crypto/ed25519"
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/test"
)

// buildWitness signs msg with a freshly generated Ed25519 keypair and
// assembles a SignatureCircuit witness that should verify successfully.
func buildWitness(t *testing.T, msg []byte) *SignatureCircuit {
	t.Helper()

	pub, priv, err := stded25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	sig := stded25519.Sign(priv, msg)

	var pubArr, rArr [32]byte
	copy(pubArr[:], pub)
	copy(rArr[:], sig[:32])
	sBytes := sig[32:64]

	ax, _, _ := DecodeCompressed(pubArr)
	rx, _, _ := DecodeCompressed(rArr)

	c := &SignatureCircuit{
		Ax:        newElement(ax),
		Rx:        newElement(rx),
		Msg:       make([]frontend.Variable, len(msg)),
		RAMBlocks: padRAM(rArr, pubArr, msg),
	}
	for i, b := range pubArr {
		c.PubKeyBytes[i] = frontend.Variable(uint64(b))
	}
	for i, b := range rArr {
		c.RBytes[i] = frontend.Variable(uint64(b))
	}
	for i, bit := range beBits(leToBigInt(sBytes), 256) {
		c.SBits[i] = bit
	}
	for i, b := range msg {
		c.Msg[i] = frontend.Variable(uint64(b))
	}
	return c
}

// placeholderCircuit returns a shape-only SignatureCircuit for compilation:
// same slice lengths as the witness, zero-valued contents.
func placeholderCircuit(msgLen int, numBlocks int) *SignatureCircuit {
	return &SignatureCircuit{
		Ax:        emulated.ValueOf[Ed25519Fp](0),
		Rx:        emulated.ValueOf[Ed25519Fp](0),
		Msg:       make([]frontend.Variable, msgLen),
		RAMBlocks: make([][16]U64, numBlocks),
	}
}

func TestSignatureCircuitVerifiesRealSignature(t *testing.T) {
	assert := test.NewAssert(t)

	msg := make([]byte, 41) // matches the fixed-length endorsement message size
	for i := range msg {
		msg[i] = byte(i)
	}

	witness := buildWitness(t, msg)
	placeholder := placeholderCircuit(len(msg), len(witness.RAMBlocks))

	assert.SolvingSucceeded(placeholder, witness, test.WithCurves(ecc.BLS12_377))
}

func newElement(x *big.Int) *emulated.Element[Ed25519Fp] {
	return emulated.ValueOf[Ed25519Fp](x)
}

func leToBigInt(b []byte) *big.Int {
	rev := make([]byte, len(b))
	for i, v := range b {
		rev[len(b)-1-i] = v
	}
	return new(big.Int).SetBytes(rev)
}

// beBits returns x's n-bit, most-significant-bit-first expansion.
func beBits(x *big.Int, n int) []frontend.Variable {
	out := make([]frontend.Variable, n)
	for i := 0; i < n; i++ {
		out[i] = frontend.Variable(x.Bit(n - 1 - i))
	}
	return out
}

// padRAM builds the SHA-512-padded R‖A‖M preimage as 16xU64 blocks, matching
// the big-endian in-word byte order SignatureCircuit expects.
func padRAM(r, a [32]byte, msg []byte) [][16]U64 {
	data := make([]byte, 0, 64+len(msg))
	data = append(data, r[:]...)
	data = append(data, a[:]...)
	data = append(data, msg...)

	bitLen := uint64(len(data)) * 8
	data = append(data, 0x80)
	for len(data)%128 != 112 {
		data = append(data, 0x00)
	}
	var lenBytes [16]byte
	for i := 0; i < 8; i++ {
		lenBytes[15-i] = byte(bitLen >> (8 * i))
	}
	data = append(data, lenBytes[:]...)

	numBlocks := len(data) / 128
	blocks := make([][16]U64, numBlocks)
	for b := 0; b < numBlocks; b++ {
		for w := 0; w < 16; w++ {
			var v uint64
			for i := 0; i < 8; i++ {
				v = v<<8 | uint64(data[b*128+w*8+i])
			}
			blocks[b][w] = frontend.Variable(v)
		}
	}
	return blocks
}
