package phonemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Build_TieBreakSmallestGraphemeID(t *testing.T) {
	assert := assert.New(t)

	tbl := Build([]Phoneme{
		{GraphemeID: 5, Text: "a"},
		{GraphemeID: 2, Text: "a"},
		{GraphemeID: 9, Text: "a"},
		{GraphemeID: 3, Text: "b"},
	})

	id, ok := tbl.Lookup("a")
	assert.True(ok)
	assert.Equal(int64(2), id)

	id, ok = tbl.Lookup("b")
	assert.True(ok)
	assert.Equal(int64(3), id)

	_, ok = tbl.Lookup("c")
	assert.False(ok)
}

func Test_Build_Empty(t *testing.T) {
	assert := assert.New(t)

	tbl := Build(nil)
	assert.True(tbl.Empty())
	assert.Empty(tbl.Mappings())
}

func Test_SortedByLengthDesc(t *testing.T) {
	assert := assert.New(t)

	tbl := Build([]Phoneme{
		{GraphemeID: 1, Text: "AB"},
		{GraphemeID: 2, Text: "ABC"},
		{GraphemeID: 3, Text: "A"},
	})

	sorted := tbl.SortedByLengthDesc()
	var texts []string
	for _, m := range sorted {
		texts = append(texts, m.Phoneme)
	}
	assert.Equal([]string{"ABC", "AB", "A"}, texts)
}

func Test_Mappings_FirstAppearanceOrder(t *testing.T) {
	assert := assert.New(t)

	tbl := Build([]Phoneme{
		{GraphemeID: 1, Text: "z"},
		{GraphemeID: 2, Text: "a"},
		{GraphemeID: 3, Text: "z"}, // ignored: z already has a winner and 1 < 3
	})

	var texts []string
	for _, m := range tbl.Mappings() {
		texts = append(texts, m.Phoneme)
	}
	assert.Equal([]string{"z", "a"}, texts)
}
