package spelling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Classify(t *testing.T) {
	testCases := []struct {
		name      string
		input     string
		expectOK  bool
		expectKnd Kind
	}{
		{name: "simple grapheme ref", input: "grapheme-1", expectOK: true, expectKnd: GraphemeRef},
		{name: "multi-digit grapheme ref", input: "grapheme-42", expectOK: true, expectKnd: GraphemeRef},
		{name: "grapheme-0 is rejected", input: "grapheme-0", expectOK: true, expectKnd: IPAChar},
		{name: "grapheme--1 is rejected", input: "grapheme--1", expectOK: true, expectKnd: IPAChar},
		{name: "empty string is invalid", input: "", expectOK: false},
		{name: "plain IPA char", input: "a", expectOK: true, expectKnd: IPAChar},
		{name: "IPA string that merely contains the word grapheme", input: "grapheme-abc", expectOK: true, expectKnd: IPAChar},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			e, ok := Classify(tc.input)
			assert.Equal(tc.expectOK, ok)
			if tc.expectOK {
				assert.Equal(tc.expectKnd, e.Kind)
			}
		})
	}
}

func Test_EncodeDecode_RoundTrip(t *testing.T) {
	testCases := []struct {
		name  string
		input []Entry
	}{
		{name: "empty", input: nil},
		{name: "single grapheme ref", input: []Entry{NewGraphemeRef(1)}},
		{name: "mixed", input: []Entry{NewGraphemeRef(1), NewIPAChar("a"), NewGraphemeRef(2)}},
		{name: "repeated grapheme ref", input: []Entry{NewGraphemeRef(3), NewGraphemeRef(3)}},
		{name: "unicode IPA", input: []Entry{NewIPAChar("ʃ"), NewIPAChar("ʒ")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			encoded := Encode(tc.input)
			decoded := Decode(encoded)

			if len(tc.input) == 0 {
				assert.Empty(decoded)
			} else {
				assert.Equal(tc.input, decoded)
			}
		})
	}
}

func Test_Decode_TolerantOfMalformedInput(t *testing.T) {
	testCases := []string{"", "null", "not json", "{}", `["grapheme-0", "", "grapheme--5"]`, `[1,2,3]`}

	for _, raw := range testCases {
		t.Run(raw, func(t *testing.T) {
			assert := assert.New(t)
			assert.NotPanics(func() {
				got := Decode(raw)
				assert.Empty(got)
			})
		})
	}
}

func Test_GraphemeIDSet_FirstAppearanceOrder(t *testing.T) {
	assert := assert.New(t)

	entries := []Entry{
		NewGraphemeRef(5),
		NewIPAChar("a"),
		NewGraphemeRef(2),
		NewGraphemeRef(5),
		NewGraphemeRef(9),
	}

	assert.Equal([]int64{5, 2, 9}, GraphemeIDSet(entries))
}

func Test_HasIPAFallbacks(t *testing.T) {
	assert := assert.New(t)

	assert.False(HasIPAFallbacks([]Entry{NewGraphemeRef(1)}))
	assert.True(HasIPAFallbacks([]Entry{NewGraphemeRef(1), NewIPAChar("x")}))
	assert.False(HasIPAFallbacks(nil))
}
