package recursion

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/solidity"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/algebra/emulated/sw_bw6761"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
)

// FinalWrap is the outermost circuit: it verifies a single BW6-761
// LeafAggregator proof and re-exposes the BFT public-input vector (a 1-byte
// discriminator plus three 32-byte hashes) as its own BN254 public inputs, so
// the final proof's verifier is the cheap, EVM-precompile-friendly one an
// on-chain light client needs. The BW6-761-verified-in-BN254 hop mirrors the
// wrapping pattern used elsewhere for reducing L1 verification cost.
type FinalWrap struct {
	// PublicInputs mirrors the aggregate proof's own exposed vector:
	// index 0 = discriminator, 1-3 = the three 32-byte hashes packed as
	// field elements (each hash split across as many BN254 scalars as
	// needed by the caller's packing convention; this circuit only asserts
	// equality with the inner witness, it does not define the packing).
	PublicInputs [MaxPublicInputs]frontend.Variable `gnark:",public"`

	AggregateProof   stdgroth16.Proof[sw_bw6761.G1Affine, sw_bw6761.G2Affine]
	AggregateWitness stdgroth16.Witness[sw_bw6761.ScalarField]
	AggregateVK      stdgroth16.VerifyingKey[sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl]
}

// Define implements frontend.Circuit.
func (c *FinalWrap) Define(api frontend.API) error {
	verifier, err := stdgroth16.NewVerifier[sw_bw6761.ScalarField, sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl](api)
	if err != nil {
		return fmt.Errorf("finalwrap: new verifier: %w", err)
	}

	if err := verifier.AssertProof(c.AggregateVK, c.AggregateProof, c.AggregateWitness, stdgroth16.WithCompleteArithmetic()); err != nil {
		return fmt.Errorf("finalwrap: verify aggregate proof: %w", err)
	}

	for i := 0; i < MaxPublicInputs; i++ {
		api.AssertIsEqual(c.AggregateWitness.Public[i].Limbs[0], c.PublicInputs[i])
	}

	return nil
}

// aggregatePlaceholderCircuit stands in for the LeafAggregator's shape when
// only placeholder VK/proof/witness values are needed.
type aggregatePlaceholderCircuit struct {
	PublicInputs [MaxPublicInputs]frontend.Variable `gnark:",public"`
	Dummy        frontend.Variable
}

func (c *aggregatePlaceholderCircuit) Define(api frontend.API) error {
	api.AssertIsDifferent(c.Dummy, 0)
	return nil
}

// CompileAggregatePlaceholder compiles the BW6-761 placeholder used to derive
// FinalWrap's inner shape ahead of a real LeafAggregator compilation.
func CompileAggregatePlaceholder() (constraint.ConstraintSystem, error) {
	return frontend.Compile(ecc.BW6_761.ScalarField(), r1cs.NewBuilder, &aggregatePlaceholderCircuit{})
}

// NewFinalWrap builds a FinalWrap circuit skeleton from a compiled (or
// placeholder) LeafAggregator constraint system.
func NewFinalWrap(aggregateCCS constraint.ConstraintSystem) (*FinalWrap, error) {
	c := &FinalWrap{}
	c.AggregateVK = stdgroth16.PlaceholderVerifyingKey[sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl](aggregateCCS)
	c.AggregateProof = stdgroth16.PlaceholderProof[sw_bw6761.G1Affine, sw_bw6761.G2Affine](aggregateCCS)
	c.AggregateWitness = stdgroth16.PlaceholderWitness[sw_bw6761.ScalarField](aggregateCCS)
	return c, nil
}

// FinalWrapWitness holds the native-side assignment for FinalWrap.
type FinalWrapWitness struct {
	PublicInputs     [MaxPublicInputs]*big.Int
	AggregateProof   groth16.Proof
	AggregateWitness witness.Witness
	AggregateVK      groth16.VerifyingKey
}

// ToAssignment converts a FinalWrapWitness into a FinalWrap circuit
// assignment ready for frontend.NewWitness.
func (w *FinalWrapWitness) ToAssignment() (*FinalWrap, error) {
	c := &FinalWrap{}
	for i, v := range w.PublicInputs {
		if v != nil {
			c.PublicInputs[i] = v
		} else {
			c.PublicInputs[i] = big.NewInt(0)
		}
	}

	vk, err := stdgroth16.ValueOfVerifyingKey[sw_bw6761.G1Affine, sw_bw6761.G2Affine, sw_bw6761.GTEl](w.AggregateVK)
	if err != nil {
		return nil, fmt.Errorf("finalwrap: convert VK: %w", err)
	}
	c.AggregateVK = vk

	proof, err := stdgroth16.ValueOfProof[sw_bw6761.G1Affine, sw_bw6761.G2Affine](w.AggregateProof)
	if err != nil {
		return nil, fmt.Errorf("finalwrap: convert proof: %w", err)
	}
	c.AggregateProof = proof

	wit, err := stdgroth16.ValueOfWitness[sw_bw6761.ScalarField](w.AggregateWitness)
	if err != nil {
		return nil, fmt.Errorf("finalwrap: convert witness: %w", err)
	}
	c.AggregateWitness = wit

	return c, nil
}

// AggregateProverOptions returns the prover options needed to generate a
// LeafAggregator (BW6-761) proof that a BN254 FinalWrap circuit can then
// verify recursively.
func AggregateProverOptions() backend.ProverOption {
	return stdgroth16.GetNativeProverOptions(ecc.BN254.ScalarField(), ecc.BW6_761.ScalarField())
}

// AggregateVerifierOptions mirrors AggregateProverOptions for verification.
func AggregateVerifierOptions() backend.VerifierOption {
	return stdgroth16.GetNativeVerifierOptions(ecc.BN254.ScalarField(), ecc.BW6_761.ScalarField())
}

// ExportSolidity writes a Solidity verifier contract for the given BN254
// verifying key. The hash-to-field function must match what the BN254 proof
// itself was produced with (SHA-256), so the exported verifier and the
// prover agree on Fiat-Shamir challenges.
func ExportSolidity(vk groth16.VerifyingKey) ([]byte, error) {
	var buf bytes.Buffer
	if err := vk.ExportSolidity(&buf, solidity.WithHashToFieldFunction(sha256.New())); err != nil {
		return nil, fmt.Errorf("finalwrap: export solidity: %w", err)
	}
	return buf.Bytes(), nil
}
