package types

import "fmt"

// Borsh Option<T> discriminants: None = 0, Some = 1.
const (
	optionNone byte = 0
	optionSome byte = 1
)

// Approval is a parsed validator approval entry (§6.1):
// 1-byte option_tag ‖ 1-byte sig_type_tag ‖ 64-byte signature, present only
// when option_tag is the Borsh Some discriminant.
//
// §9 flags the source's length-based presence heuristic (any approval whose
// serialised length isn't exactly SIG_BYTES+2) as incidental to the current
// chain encoding; this parser uses the explicit option tag instead and
// verifies the inner sig-type tag separately, per that note.
type Approval struct {
	Present bool
	SigType byte
	Sig     [64]byte
}

// ParseApproval reads one approval entry. A present (Some) entry must be
// exactly 1+1+64 = 66 bytes; a None entry may be as short as a single
// option-tag byte.
func ParseApproval(raw []byte) (*Approval, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("types: empty approval entry")
	}
	optTag := raw[0]
	if optTag == optionNone {
		return &Approval{Present: false}, nil
	}
	if optTag != optionSome {
		return nil, fmt.Errorf("types: approval option_tag %d is neither None nor Some", optTag)
	}
	if len(raw) != 1+1+SigBytes {
		return nil, fmt.Errorf("types: present approval length %d != %d", len(raw), 1+1+SigBytes)
	}
	a := &Approval{Present: true, SigType: raw[1]}
	copy(a.Sig[:], raw[2:])
	return a, nil
}
