// Command proveblock is the CLI entry point for the BFT-finality prover:
// parse a Config, build one orchestration input, run it, write the result.
// It carries no fetcher of its own — every input is read from local files
// the caller supplies.
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/rs/zerolog"

	"github.com/kysee/near-bft-zk/nearbft"
	"github.com/kysee/near-bft-zk/nearbft/circuitcache"
	"github.com/kysee/near-bft-zk/nearbft/config"
	"github.com/kysee/near-bft-zk/nearbft/types"
	"github.com/kysee/near-bft-zk/recursion"
)

const circuitCacheSize = 64

func main() {
	args := os.Args[1:]

	var (
		headersPath     string
		validatorsPath  string
		approvalsPath   string
		anchorFirstPath string
		anchorLastPath  string
		priorAnchorPath string
		outDir          = "."
		exportSolidity  bool
		pretty          bool
	)

	// config.NewConfig's own scanner unconditionally requires a following
	// value for whatever token it's looking at, so this CLI's own valueless
	// flags are stripped out of its view before forwarding the rest.
	var configArgs []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--headers":
			headersPath = nextArg(args, &i)
		case "--validators":
			validatorsPath = nextArg(args, &i)
		case "--approvals":
			approvalsPath = nextArg(args, &i)
		case "--anchor-prev-epoch-first":
			anchorFirstPath = nextArg(args, &i)
		case "--anchor-prev-prev-epoch-last":
			anchorLastPath = nextArg(args, &i)
		case "--prior-epoch-anchor":
			priorAnchorPath = nextArg(args, &i)
		case "--out":
			outDir = nextArg(args, &i)
		case "--export-solidity":
			exportSolidity = true
		case "--pretty-log":
			pretty = true
		default:
			configArgs = append(configArgs, args[i])
		}
	}
	cfg := config.NewConfig(configArgs...)

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	logger := zerolog.New(out).With().Timestamp().Str("service", "proveblock").Logger()

	if headersPath == "" || validatorsPath == "" || approvalsPath == "" || anchorFirstPath == "" || anchorLastPath == "" {
		logger.Fatal().Msg("missing required flags: --headers --validators --approvals --anchor-prev-epoch-first --anchor-prev-prev-epoch-last")
	}

	headerBlobs, err := readLengthPrefixed(headersPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("read headers")
	}
	if len(headerBlobs) != nearbft.WindowSize {
		logger.Fatal().Int("got", len(headerBlobs)).Int("want", nearbft.WindowSize).Msg("wrong header window size")
	}

	var window nearbft.Window
	for i, blob := range headerBlobs {
		h, err := types.ParseBlockHeader(blob)
		if err != nil {
			logger.Fatal().Err(err).Int("index", i).Msg("parse header")
		}
		window.Headers[i] = h
	}

	validatorBlobs, err := readLengthPrefixed(validatorsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("read validators")
	}
	validators := make([]*types.ValidatorStake, len(validatorBlobs))
	for i, blob := range validatorBlobs {
		v, err := types.ParseValidatorStake(blob)
		if err != nil {
			logger.Fatal().Err(err).Int("index", i).Msg("parse validator")
		}
		validators[i] = v
	}
	window.Validators = validators

	approvals, err := readApprovals(approvalsPath, len(validators))
	if err != nil {
		logger.Fatal().Err(err).Msg("read approvals")
	}
	window.Approvals = approvals

	anchorFirstBlob, err := os.ReadFile(anchorFirstPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("read anchor-prev-epoch-first")
	}
	anchorFirst, err := types.ParseBlockHeader(anchorFirstBlob)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse anchor-prev-epoch-first")
	}
	window.AnchorPrevEpochFirst = anchorFirst

	anchorLastBlob, err := os.ReadFile(anchorLastPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("read anchor-prev-prev-epoch-last")
	}
	anchorLast, err := types.ParseBlockHeader(anchorLastBlob)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse anchor-prev-prev-epoch-last")
	}
	window.AnchorPrevPrevEpochLast = anchorLast

	cache, err := circuitcache.New(circuitCacheSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("create circuit cache")
	}
	ctx := context.Background()

	logger.Info().Uint64("block_height", window.Headers[0].Height()).Msg("proving BFT finality")

	var proof *nearbft.Proof
	if priorAnchorPath != "" {
		priorBlob, err := os.ReadFile(priorAnchorPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("read prior-epoch-anchor")
		}
		prior, err := types.ParseBlockHeader(priorBlob)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse prior-epoch-anchor")
		}
		proof, err = nearbft.ProveEpochBoundary(ctx, cfg, cache, &window, prior)
		if err != nil {
			logger.Fatal().Err(err).Msg("prove epoch boundary")
		}
	} else {
		proof, err = nearbft.ProveBlockBFT(ctx, cfg, cache, &window)
		if err != nil {
			logger.Fatal().Err(err).Msg("prove block BFT")
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("create output directory")
	}

	proofPath := outDir + "/proof.bin"
	if err := os.WriteFile(proofPath, proof.ProofBytes, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write proof")
	}
	vkPath := outDir + "/verifier.bin"
	if err := os.WriteFile(vkPath, proof.VerifierDataBytes, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write verifying key")
	}
	logger.Info().Str("proof", proofPath).Str("verifying_key", vkPath).Msg("proof written")

	if exportSolidity {
		exportSolidityVerifier(&logger, proof, outDir)
	}
}

// exportSolidityVerifier re-parses the just-written verifying key and emits
// a Solidity verifier contract.
func exportSolidityVerifier(logger *zerolog.Logger, proof *nearbft.Proof, outDir string) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(proof.VerifierDataBytes)); err != nil {
		logger.Fatal().Err(err).Msg("decode verifying key for solidity export")
	}
	contract, err := recursion.ExportSolidity(vk)
	if err != nil {
		logger.Fatal().Err(err).Msg("export solidity verifier")
	}
	path := outDir + "/Verifier.sol"
	if err := os.WriteFile(path, contract, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("write solidity verifier")
	}
	logger.Info().Str("contract", path).Msg("solidity verifier written")
}

func nextArg(args []string, i *int) string {
	if *i+1 >= len(args) {
		panic(fmt.Errorf("proveblock: missing argument for %s", args[*i]))
	}
	*i++
	return args[*i]
}

// readLengthPrefixed reads a file holding a sequence of 4-byte-little-endian-
// length-prefixed byte records — the framing this CLI uses for header and
// validator records, neither of which has a fixed wire length (§6.1's
// inner_rest and account_id are both opaque/variable); this framing is a
// local CLI convention, not part of the core's wire format.
func readLengthPrefixed(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("proveblock: %s: truncated length prefix", path)
		}
		n := binary.LittleEndian.Uint32(data[:4])
		data = data[4:]
		if uint64(len(data)) < uint64(n) {
			return nil, fmt.Errorf("proveblock: %s: truncated record of %d bytes", path, n)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out, nil
}

// readApprovals splits a file of n sequential approval entries. Each entry
// is self-delimiting per §6.1: a None entry is the single option-tag byte
// 0x00, a Some entry is the option tag followed by a 1-byte sig-type tag and
// a 64-byte signature (66 bytes total).
func readApprovals(path string, n int) ([]*types.Approval, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Approval, n)
	for i := 0; i < n; i++ {
		if len(data) < 1 {
			return nil, fmt.Errorf("proveblock: %s: truncated at approval %d", path, i)
		}
		entryLen := 1
		if data[0] != 0 {
			entryLen = 1 + 1 + types.SigBytes
		}
		if len(data) < entryLen {
			return nil, fmt.Errorf("proveblock: %s: truncated approval %d", path, i)
		}
		a, err := types.ParseApproval(data[:entryLen])
		if err != nil {
			return nil, fmt.Errorf("proveblock: approval %d: %w", i, err)
		}
		out[i] = a
		data = data[entryLen:]
	}
	return out, nil
}
