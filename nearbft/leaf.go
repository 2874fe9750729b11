package nearbft

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/kysee/near-bft-zk/nearbft/circuitcache"
	"github.com/kysee/near-bft-zk/recursion"
)

// leafProof bundles a proven BLS12-377 leaf circuit's proof, public witness
// and verifying key — everything a LeafAggregator needs to fold it into the
// next recursive hop (§4.9).
type leafProof struct {
	Proof  groth16.Proof
	Public witness.Witness
	VK     groth16.VerifyingKey
	CCS    constraint.ConstraintSystem
}

// buildAndProveLeaf compiles (or reuses, via cache) assignment's shape, runs
// the backend's setup, and proves assignment against it. Every leaf circuit in this repository (SHA-256, header hash,
// bp-hash, Ed25519, approvals digest, quorum) is BLS12-377-compiled so its
// proof is natively verifiable inside a BW6-761 LeafAggregator (§4.9).
//
// Only the compiled constraint system is cached per shape. groth16.Setup
// runs on every call, so each leaf proof carries freshly generated
// proving/verifying keys, even for a shape proved before; the keys are not
// cached. Setup here is not production trusted-setup parameter generation
// (an explicit Non-goal) — Setup/Prove/Verify are treated as a black box
// here (§6.2).
func buildAndProveLeaf(cache *circuitcache.Cache, shape circuitcache.Shape, assignment frontend.Circuit) (*leafProof, error) {
	entry, err := cache.GetOrBuild(shape, ecc.BLS12_377, assignment)
	if err != nil {
		return nil, fmt.Errorf("nearbft: compile %s: %w", shape, err)
	}

	pk, vk, err := groth16.Setup(entry.CCS)
	if err != nil {
		return nil, fmt.Errorf("nearbft: setup %s: %w", shape, err)
	}

	fullWitness, err := frontend.NewWitness(assignment, ecc.BLS12_377.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("nearbft: witness %s: %w", shape, err)
	}

	proof, err := groth16.Prove(entry.CCS, pk, fullWitness, recursion.LeafProverOptions())
	if err != nil {
		return nil, fmt.Errorf("nearbft: prove %s: %w", shape, err)
	}

	pubWitness, err := fullWitness.Public()
	if err != nil {
		return nil, fmt.Errorf("nearbft: public witness %s: %w", shape, err)
	}

	return &leafProof{Proof: proof, Public: pubWitness, VK: vk, CCS: entry.CCS}, nil
}

// aggregate folds a set of same-shaped leaf proofs into one BW6-761
// LeafAggregator proof exposing explicit public inputs (§4.9). Every
// recursive join point this system actually has — per-signature approval
// folding and the top-level BFT composition — goes through this one helper.
// Block-header hash composition (§4.2/§4.4) is the one place the spec
// describes as recursive that isn't: circuits/blockheader.go computes
// inner_hash/block_hash inline with the u32-flavour compression loop instead
// of folding separate SHA-256 proofs, for the reasons documented there.
func aggregate(leaves []*leafProof, publicInputs [recursion.MaxPublicInputs]frontend.Variable) (*leafProof, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("nearbft: aggregate called with no leaves")
	}

	innerCCS := leaves[0].CCS
	skeleton, err := recursion.NewLeafAggregator(innerCCS, len(leaves))
	if err != nil {
		return nil, fmt.Errorf("nearbft: new leaf aggregator: %w", err)
	}

	aggCCS, err := frontend.Compile(ecc.BW6_761.ScalarField(), r1cs.NewBuilder, skeleton)
	if err != nil {
		return nil, fmt.Errorf("nearbft: compile leaf aggregator: %w", err)
	}

	assignment := &recursion.LeafAggregatorWitness{
		InnerVK:      leaves[0].VK,
		PublicInputs: publicInputs,
	}
	for _, l := range leaves {
		assignment.InnerProofs = append(assignment.InnerProofs, l.Proof)
		assignment.InnerWitnesses = append(assignment.InnerWitnesses, l.Public)
	}

	circuitAssignment, err := assignment.ToAssignment()
	if err != nil {
		return nil, fmt.Errorf("nearbft: aggregator assignment: %w", err)
	}

	pk, vk, err := groth16.Setup(aggCCS)
	if err != nil {
		return nil, fmt.Errorf("nearbft: aggregator setup: %w", err)
	}

	fullWitness, err := frontend.NewWitness(circuitAssignment, ecc.BW6_761.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("nearbft: aggregator witness: %w", err)
	}

	proof, err := groth16.Prove(aggCCS, pk, fullWitness, recursion.AggregateProverOptions())
	if err != nil {
		return nil, fmt.Errorf("nearbft: aggregator prove: %w", err)
	}

	pubWitness, err := fullWitness.Public()
	if err != nil {
		return nil, fmt.Errorf("nearbft: aggregator public witness: %w", err)
	}

	return &leafProof{Proof: proof, Public: pubWitness, VK: vk, CCS: aggCCS}, nil
}
