// Package lower converts CIR modules into LLVM IR modules.  It owns the two
// term word encodings (tagged pointers and nanboxing) and the runtime
// intrinsic surface the generated code links against.
package lower

// Term type tags.  The same tag values are used by both encodings so that
// typeof results are stable regardless of how a module was compiled.
const (
	TagBoxed  = 0 // heap pointer to a boxed object
	TagFixnum = 1 // small signed integer
	TagAtom   = 2 // atom table index
	TagNil    = 3 // the empty list
	TagFloat  = 4 // reported by typeof only; floats are never tagged
)

// Tagged-pointer encoding: the low 3 bits of the term word carry the tag and
// the payload is shifted above them.  Floats do not fit and are boxed on the
// heap behind a TagBoxed pointer.
const (
	taggedTagBits = 3
	taggedTagMask = uint64(1)<<taggedTagBits - 1

	// TaggedFixnumBits is the payload width of a tagged-pointer fixnum.
	TaggedFixnumBits = 64 - taggedTagBits
)

// Nanbox encoding: every non-float term lives in the negative quiet-NaN
// space of an IEEE 754 double.  Bit 63 is the sign, bits 62-52 are the
// all-ones exponent, bit 51 is the quiet bit, bits 50-48 carry the type tag
// and bits 47-0 the payload.  Any word outside that space is a float stored
// as itself; the runtime canonicalizes computed NaNs to the positive quiet
// NaN so they can never alias a tagged term.
const (
	NanboxBase uint64 = 0xFFF8_0000_0000_0000

	nanboxTagShift        = 48
	nanboxTagMask  uint64 = 0x7 << nanboxTagShift

	// NanboxPayloadBits is the payload width of a nanboxed immediate.
	NanboxPayloadBits        = 48
	nanboxPayloadMask uint64 = uint64(1)<<NanboxPayloadBits - 1
)

// -----------------------------------------------------------------------------

// EncodeFixnum encodes a small integer as a term word under the given
// encoding.  It reports false if v does not fit the encoding's payload.
func EncodeFixnum(v int64, nanbox bool) (uint64, bool) {
	if nanbox {
		if !fits(v, NanboxPayloadBits) {
			return 0, false
		}

		return NanboxBase | TagFixnum<<nanboxTagShift | uint64(v)&nanboxPayloadMask, true
	}

	if !fits(v, TaggedFixnumBits) {
		return 0, false
	}

	return uint64(v)<<taggedTagBits | TagFixnum, true
}

// EncodeAtom encodes an atom table index as a term word.
func EncodeAtom(id int64, nanbox bool) (uint64, bool) {
	if id < 0 {
		return 0, false
	}

	if nanbox {
		if !fits(id, NanboxPayloadBits) {
			return 0, false
		}

		return NanboxBase | TagAtom<<nanboxTagShift | uint64(id), true
	}

	if !fits(id, TaggedFixnumBits) {
		return 0, false
	}

	return uint64(id)<<taggedTagBits | TagAtom, true
}

// EncodeNil encodes the empty list.
func EncodeNil(nanbox bool) uint64 {
	if nanbox {
		return NanboxBase | TagNil<<nanboxTagShift
	}

	return TagNil
}

// -----------------------------------------------------------------------------

// DecodeTag returns the type tag of a term word.  Under nanboxing, a word
// outside the boxed NaN space is a float.
func DecodeTag(word uint64, nanbox bool) int {
	if nanbox {
		if word&NanboxBase != NanboxBase {
			return TagFloat
		}

		return int((word & nanboxTagMask) >> nanboxTagShift)
	}

	return int(word & taggedTagMask)
}

// DecodeFixnum recovers the signed payload of a fixnum term word.
func DecodeFixnum(word uint64, nanbox bool) int64 {
	if nanbox {
		// Sign-extend the 48-bit payload.
		return int64(word<<(64-NanboxPayloadBits)) >> (64 - NanboxPayloadBits)
	}

	return int64(word) >> taggedTagBits
}

// DecodeAtom recovers the atom table index of an atom term word.
func DecodeAtom(word uint64, nanbox bool) int64 {
	if nanbox {
		return int64(word & nanboxPayloadMask)
	}

	return int64(word >> taggedTagBits)
}

// fits reports whether v is representable as a signed integer of the given
// bit width.
func fits(v int64, bits int) bool {
	limit := int64(1) << (bits - 1)
	return -limit <= v && v < limit
}
