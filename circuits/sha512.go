package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/kysee/near-bft-zk/gates"
)

// U64 re-exports gates.U64 under this package's naming convention. The
// SHA-256 circuits in this package use gates.U32 directly.
type U64 = gates.U64

// SHA512Block runs one 80-round SHA-512 compression over a single 16-word
// message block. Exposed here so callers that already depend on the circuit
// package (rather than gates directly) can reach it without an extra import.
func SHA512Block(api frontend.API, h [8]U64, block [16]U64) [8]U64 {
	return gates.SHA512Block(api, h, block)
}

// SHA512CompressBlocks runs the SHA-512 compression loop over a sequence of
// 1024-bit blocks and returns the final 512-bit digest.
func SHA512CompressBlocks(api frontend.API, blocks [][16]U64) [8]U64 {
	return gates.SHA512CompressBlocks(api, blocks)
}
