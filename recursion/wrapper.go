// Package recursion implements the generic proof-composition primitive of
// this system: a circuit that symbolically verifies one or more inner proofs
// and registers a caller-supplied public-input vector as its own. It is the
// only glue used to turn leaf circuits (SHA-256, Ed25519, block-header,
// approvals, quorum — all compiled over BLS12-377 for cheap inner proving)
// into the single BFT-finality proof the orchestrator ultimately emits.
//
// Composition happens in two hops, following a curve-cycle pattern also used
// elsewhere for BW6-761/BN254 aggregation-then-wrapping pipelines:
//
//  1. LeafAggregator (this file) runs on BW6-761, where verifying a
//     BLS12-377 proof is "native" because BW6-761's base field equals
//     BLS12-377's scalar field. Every recursive join in this system
//     (per-signature folding, the top-level BFT composition) aggregates its leaf proofs through one LeafAggregator call rather than
//     a pairwise binary tree, so dozens of inner proofs compose into one
//     aggregate proof in a single hop.
//  2. FinalWrap (finalwrap.go) runs on BN254 and verifies exactly one
//     BW6-761 LeafAggregator proof. BN254 is the curve with an EVM
//     precompile, so this hop is also where the final proof becomes cheap to
//     verify inside an EVM-style smart contract.
package recursion

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
)

// MaxPublicInputs bounds the explicit public-input vector a LeafAggregator
// can re-expose; it's sized generously above the largest vector any call
// site in this repository needs (the 97-byte, i.e. ≤4-field-element, BFT
// finality output: a 1-byte discriminator plus three 32-byte hashes).
const MaxPublicInputs = 8

// LeafAggregator verifies NumProofs BLS12-377 Groth16 proofs sharing a single
// verifying key and registers an explicit public-input vector as its own
// output. NumProofs is fixed at compile time, so a distinct LeafAggregator
// shape exists per aggregation width the orchestrator needs. nearbft compiles
// and sets up a LeafAggregator afresh on every aggregation; its constraint
// systems and keys are not cached by nearbft/circuitcache.
type LeafAggregator struct {
	NumProofs int

	InnerProofs    []stdgroth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine]
	InnerWitnesses []stdgroth16.Witness[sw_bls12377.ScalarField]
	InnerVK        stdgroth16.VerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT]

	// PublicInputs is the vector this aggregator exposes; it need not equal
	// (and is never required to equal) the inner proofs' own public inputs —
	// callers that want to bind an inner digest into the outer public vector
	// do so explicitly before compiling the witness.
	PublicInputs [MaxPublicInputs]frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *LeafAggregator) Define(api frontend.API) error {
	if c.NumProofs < 1 || c.NumProofs > len(c.InnerProofs) {
		return fmt.Errorf("recursion: NumProofs %d out of range", c.NumProofs)
	}

	verifier, err := stdgroth16.NewVerifier[sw_bls12377.ScalarField, sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](api)
	if err != nil {
		return fmt.Errorf("recursion: new verifier: %w", err)
	}

	for i := 0; i < c.NumProofs; i++ {
		if err := verifier.AssertProof(c.InnerVK, c.InnerProofs[i], c.InnerWitnesses[i], stdgroth16.WithCompleteArithmetic()); err != nil {
			return fmt.Errorf("recursion: inner proof %d: %w", i, err)
		}
	}

	return nil
}

// leafPlaceholderCircuit stands in for "some BLS12-377 leaf circuit" when
// only the constraint-system shape is needed to build placeholder VK/proof/
// witness values ahead of a real inner circuit's compilation.
type leafPlaceholderCircuit struct {
	Dummy frontend.Variable
}

func (c *leafPlaceholderCircuit) Define(api frontend.API) error {
	api.AssertIsDifferent(c.Dummy, 0)
	return nil
}

// CompileLeafPlaceholder compiles a minimal BLS12-377 circuit, used only to
// recover the structure needed for stdgroth16 placeholder generation before
// the real inner CircuitData is available.
func CompileLeafPlaceholder() (constraint.ConstraintSystem, error) {
	return frontend.Compile(ecc.BLS12_377.ScalarField(), r1cs.NewBuilder, &leafPlaceholderCircuit{})
}

// NewLeafAggregator builds a LeafAggregator circuit skeleton (placeholder
// proofs/witnesses/VK) sized for numProofs, suitable for frontend.Compile.
func NewLeafAggregator(innerCCS constraint.ConstraintSystem, numProofs int) (*LeafAggregator, error) {
	if numProofs < 1 {
		return nil, fmt.Errorf("recursion: numProofs must be >= 1")
	}
	c := &LeafAggregator{
		NumProofs:      numProofs,
		InnerProofs:    make([]stdgroth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine], numProofs),
		InnerWitnesses: make([]stdgroth16.Witness[sw_bls12377.ScalarField], numProofs),
	}
	c.InnerVK = stdgroth16.PlaceholderVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](innerCCS)
	for i := 0; i < numProofs; i++ {
		c.InnerProofs[i] = stdgroth16.PlaceholderProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](innerCCS)
		c.InnerWitnesses[i] = stdgroth16.PlaceholderWitness[sw_bls12377.ScalarField](innerCCS)
	}
	return c, nil
}

// LeafAggregatorWitness holds the native-side values assigned into a
// LeafAggregator witness.
type LeafAggregatorWitness struct {
	InnerProofs    []groth16.Proof
	InnerWitnesses []witness.Witness
	InnerVK        groth16.VerifyingKey
	PublicInputs   [MaxPublicInputs]frontend.Variable
}

// ToAssignment converts a LeafAggregatorWitness into a LeafAggregator circuit
// assignment ready for frontend.NewWitness.
func (w *LeafAggregatorWitness) ToAssignment() (*LeafAggregator, error) {
	n := len(w.InnerProofs)
	if n == 0 {
		return nil, fmt.Errorf("recursion: no inner proofs supplied")
	}
	if len(w.InnerWitnesses) != n {
		return nil, fmt.Errorf("recursion: proof/witness count mismatch (%d vs %d)", n, len(w.InnerWitnesses))
	}

	c := &LeafAggregator{
		NumProofs:      n,
		InnerProofs:    make([]stdgroth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine], n),
		InnerWitnesses: make([]stdgroth16.Witness[sw_bls12377.ScalarField], n),
		PublicInputs:   w.PublicInputs,
	}

	vk, err := stdgroth16.ValueOfVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](w.InnerVK)
	if err != nil {
		return nil, fmt.Errorf("recursion: convert VK: %w", err)
	}
	c.InnerVK = vk

	for i := 0; i < n; i++ {
		p, err := stdgroth16.ValueOfProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](w.InnerProofs[i])
		if err != nil {
			return nil, fmt.Errorf("recursion: convert proof %d: %w", i, err)
		}
		c.InnerProofs[i] = p

		iw, err := stdgroth16.ValueOfWitness[sw_bls12377.ScalarField](w.InnerWitnesses[i])
		if err != nil {
			return nil, fmt.Errorf("recursion: convert witness %d: %w", i, err)
		}
		c.InnerWitnesses[i] = iw
	}

	return c, nil
}

// LeafProverOptions returns the prover options for compiling leaf circuits
// whose proofs will be verified inside a LeafAggregator.
func LeafProverOptions() backend.ProverOption {
	return stdgroth16.GetNativeProverOptions(ecc.BW6_761.ScalarField(), ecc.BLS12_377.ScalarField())
}

// LeafVerifierOptions mirrors LeafProverOptions for native verification.
func LeafVerifierOptions() backend.VerifierOption {
	return stdgroth16.GetNativeVerifierOptions(ecc.BW6_761.ScalarField(), ecc.BLS12_377.ScalarField())
}
