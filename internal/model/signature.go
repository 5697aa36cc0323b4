package model

import "strings"

// SignatureKind tags a stored structural hash by the grid it was computed at.
// Records from before the 16×16 upgrade carry 64-bit hashes and must keep
// being compared at 8×8.
type SignatureKind int

const (
	SignatureNone SignatureKind = iota
	SignatureLegacy
	SignatureFull
)

// Grid sizes for each signature kind.
const (
	LegacyGrid = 8
	FullGrid   = 16
)

// KindOf derives the signature kind from a hash's length.
func KindOf(hash string) SignatureKind {
	switch len(hash) {
	case 0:
		return SignatureNone
	case FullGrid * FullGrid:
		return SignatureFull
	default:
		return SignatureLegacy
	}
}

// Grid returns the grid size hashes of this kind are computed at.
func (k SignatureKind) Grid() int {
	switch k {
	case SignatureFull:
		return FullGrid
	case SignatureLegacy:
		return LegacyGrid
	}
	return 0
}

// MaxDistance is the largest possible Hamming distance for this kind.
func (k SignatureKind) MaxDistance() int {
	g := k.Grid()
	return g * g
}

func (k SignatureKind) String() string {
	switch k {
	case SignatureFull:
		return "full"
	case SignatureLegacy:
		return "legacy"
	}
	return "none"
}

// ValidHash reports whether h consists only of '0' and '1'.
func ValidHash(h string) bool {
	return h != "" && strings.Trim(h, "01") == ""
}
