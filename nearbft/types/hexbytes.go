// Package types parses the fixed-offset NEAR wire layouts this system
// consumes (§3, §6.1): block headers, validator records, and approvals. It
// is deliberately not a general deserializer — every field is read by a
// constant offset into an already-fetched byte slice; circuits read these
// by fixed offset, with no general-purpose field parsing.
package types

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// HexBytes is a byte slice that marshals to JSON as a 0x-prefixed hex
// string and accepts either hex or base64 on the way back in, for CLI/debug
// output of the types below.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

func (hb HexBytes) MarshalJSON() ([]byte, error) {
	s := "0x" + hex.EncodeToString(hb)
	jbz := make([]byte, len(s)+2)
	jbz[0] = '"'
	copy(jbz[1:], s)
	jbz[len(jbz)-1] = '"'
	return jbz, nil
}

func (hb *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("types: invalid hex string: %s", data)
	}
	val := data[1 : len(data)-1]
	if isHex(string(val)) {
		str := strings.TrimPrefix(string(val), "0x")
		bz, err := hex.DecodeString(str)
		if err != nil {
			return err
		}
		*hb = bz
	} else {
		bz, err := base64.StdEncoding.DecodeString(string(val))
		if err != nil {
			return err
		}
		*hb = bz
	}
	return nil
}

func isHex(s string) bool {
	v := s
	if len(v)%2 != 0 {
		return false
	}
	if strings.HasPrefix(v, "0x") {
		v = v[2:]
	}
	for _, b := range []byte(v) {
		if !(b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F') {
			return false
		}
	}
	return true
}
