package lower

import (
	"math"
	"testing"
)

func TestFixnumRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 42, -42, 1 << 30, -(1 << 30), 1<<47 - 1, -(1 << 47)}

	for _, nanbox := range []bool{false, true} {
		for _, v := range values {
			word, ok := EncodeFixnum(v, nanbox)
			if !ok {
				t.Errorf("nanbox=%v: fixnum %d did not encode", nanbox, v)
				continue
			}

			if tag := DecodeTag(word, nanbox); tag != TagFixnum {
				t.Errorf("nanbox=%v: fixnum %d decoded with tag %d", nanbox, v, tag)
			}

			if got := DecodeFixnum(word, nanbox); got != v {
				t.Errorf("nanbox=%v: fixnum %d round-tripped to %d", nanbox, v, got)
			}
		}
	}
}

func TestFixnumRange(t *testing.T) {
	testCases := []struct {
		v      int64
		nanbox bool
		fits   bool
	}{
		{1<<47 - 1, true, true},
		{1 << 47, true, false},
		{-(1 << 47), true, true},
		{-(1<<47 + 1), true, false},
		{1<<60 - 1, false, true},
		{1 << 60, false, false},
		{-(1 << 60), false, true},
		{-(1<<60 + 1), false, false},
	}

	for _, tc := range testCases {
		if _, ok := EncodeFixnum(tc.v, tc.nanbox); ok != tc.fits {
			t.Errorf("nanbox=%v: expected fits=%v for %d", tc.nanbox, tc.fits, tc.v)
		}
	}
}

func TestAtomRoundTrip(t *testing.T) {
	for _, nanbox := range []bool{false, true} {
		for _, id := range []int64{0, 1, 1000} {
			word, ok := EncodeAtom(id, nanbox)
			if !ok {
				t.Errorf("nanbox=%v: atom %d did not encode", nanbox, id)
				continue
			}

			if tag := DecodeTag(word, nanbox); tag != TagAtom {
				t.Errorf("nanbox=%v: atom %d decoded with tag %d", nanbox, id, tag)
			}

			if got := DecodeAtom(word, nanbox); got != id {
				t.Errorf("nanbox=%v: atom %d round-tripped to %d", nanbox, id, got)
			}
		}

		if _, ok := EncodeAtom(-1, nanbox); ok {
			t.Errorf("nanbox=%v: negative atom ID encoded", nanbox)
		}
	}
}

func TestNilTag(t *testing.T) {
	for _, nanbox := range []bool{false, true} {
		if tag := DecodeTag(EncodeNil(nanbox), nanbox); tag != TagNil {
			t.Errorf("nanbox=%v: nil decoded with tag %d", nanbox, tag)
		}
	}
}

func TestNanboxFloatsAreUnboxed(t *testing.T) {
	// Any word outside the boxed NaN space is a float stored as itself.
	floats := []float64{0, 1.5, -2.5, math.MaxFloat64, math.Inf(1), math.Inf(-1)}

	for _, f := range floats {
		word := math.Float64bits(f)
		if tag := DecodeTag(word, true); tag != TagFloat {
			t.Errorf("float %g decoded with tag %d", f, tag)
		}
	}

	// The positive quiet NaN is the canonical computed NaN; it must not
	// alias a tagged term.
	if tag := DecodeTag(math.Float64bits(math.NaN()), true); tag != TagFloat {
		t.Errorf("canonical NaN decoded with tag %d", tag)
	}
}

func TestEncodingsShareTags(t *testing.T) {
	taggedWord, _ := EncodeFixnum(7, false)
	nanboxWord, _ := EncodeFixnum(7, true)

	if DecodeTag(taggedWord, false) != DecodeTag(nanboxWord, true) {
		t.Errorf("the two encodings disagree on the fixnum tag")
	}
}
