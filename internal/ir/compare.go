package ir

import (
	"cmp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// kindRank fixes the relative order of values of different kinds so that
// Compare is a total order. Null sorts after every present value, matching
// the relation codec where an absent sort-key value is the largest byte.
func kindRank(v IRValue) int {
	switch v.(type) {
	case IRBool:
		return 0
	case IRInt:
		return 1
	case IRString:
		return 2
	case IRArray:
		return 3
	case IRObject:
		return 4
	default:
		return 5
	}
}

// Compare returns -1, 0 or +1 ordering a before, equal to, or after b.
//
// Values of the same comparable kind compare naturally (strings by NFC byte
// order). Values of different kinds compare by kind rank. Arrays and objects
// compare by their JSON rendering, which is stable but carries no meaning.
func Compare(a, b IRValue) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch av := a.(type) {
	case IRBool:
		bv := b.(IRBool)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case IRInt:
		return cmp.Compare(av, b.(IRInt))
	case IRString:
		return strings.Compare(Normalize(string(av)), Normalize(string(b.(IRString))))
	case IRArray, IRObject:
		ja, _ := MarshalIRValue(a)
		jb, _ := MarshalIRValue(b)
		return strings.Compare(string(ja), string(jb))
	default:
		return 0
	}
}

// Equal reports whether a and b are the same value.
func Equal(a, b IRValue) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	return Compare(a, b) == 0
}

// Normalize returns the NFC form of s. All stored and compared strings go
// through it so that canonically equivalent inputs match.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// NormalizeValue NFC-normalizes string values, recursing into arrays.
func NormalizeValue(v IRValue) IRValue {
	switch val := v.(type) {
	case IRString:
		return IRString(Normalize(string(val)))
	case IRArray:
		out := make(IRArray, len(val))
		for i, elem := range val {
			out[i] = NormalizeValue(elem)
		}
		return out
	default:
		return v
	}
}
