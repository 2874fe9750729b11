package types

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildRawHeader(t *testing.T, height uint64, epochID, nextEpochID, nextBpHash [32]byte, innerRest []byte) []byte {
	t.Helper()

	var innerLite [InnerLiteBytes]byte
	var heightLE [8]byte
	for i := 0; i < 8; i++ {
		heightLE[i] = byte(height >> (8 * uint(i)))
	}
	copy(innerLite[offHeightStart:offHeightEnd], heightLE[:])
	copy(innerLite[offEpochStart:offEpochEnd], epochID[:])
	copy(innerLite[offNextEpoStart:offNextEpoEnd], nextEpochID[:])
	copy(innerLite[offNextBPStart:offNextBPEnd], nextBpHash[:])

	raw := make([]byte, 0, minHeaderLen+len(innerRest))
	raw = append(raw, 0x00) // type_tag
	var prevHash [32]byte
	for i := range prevHash {
		prevHash[i] = byte(200 + i)
	}
	raw = append(raw, prevHash[:]...)
	raw = append(raw, innerLite[:]...)
	raw = append(raw, innerRest...)
	raw = append(raw, 0x01) // option_tag (Some)
	var sig [64]byte
	raw = append(raw, sig[:]...)
	return raw
}

func TestParseBlockHeaderFields(t *testing.T) {
	var epochID, nextEpochID, nextBpHash [32]byte
	for i := range epochID {
		epochID[i] = byte(i)
		nextEpochID[i] = byte(i + 1)
		nextBpHash[i] = byte(i + 2)
	}
	raw := buildRawHeader(t, 12345, epochID, nextEpochID, nextBpHash, []byte{1, 2, 3, 4})

	h, err := ParseBlockHeader(raw)
	require.NoError(t, err)
	require.Equal(t, uint64(12345), h.Height())
	require.Equal(t, epochID, h.EpochID())
	require.Equal(t, nextEpochID, h.NextEpochID())
	require.Equal(t, nextBpHash, h.NextBpHash())
	require.Equal(t, []byte{1, 2, 3, 4}, h.InnerRest)
}

func TestParseBlockHeaderTooShort(t *testing.T) {
	_, err := ParseBlockHeader(make([]byte, 10))
	require.Error(t, err)
}

func TestBlockHeaderHashMatchesComposition(t *testing.T) {
	var epochID, nextEpochID, nextBpHash [32]byte
	raw := buildRawHeader(t, 1, epochID, nextEpochID, nextBpHash, []byte{9, 9})
	h, err := ParseBlockHeader(raw)
	require.NoError(t, err)

	innerLiteHash := sha256.Sum256(h.InnerLite[:])
	innerRestHash := sha256.Sum256(h.InnerRest)
	innerHash := sha256.Sum256(append(append([]byte{}, innerLiteHash[:]...), innerRestHash[:]...))
	want := sha256.Sum256(append(append([]byte{}, innerHash[:]...), h.PrevHash[:]...))

	require.Equal(t, want, h.Hash())
}
