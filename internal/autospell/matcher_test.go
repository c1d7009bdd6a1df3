package autospell

import (
	"errors"
	"testing"

	"github.com/etymolog/etymolog/internal/phonemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioDTable() phonemap.Table {
	return phonemap.Build([]phonemap.Phoneme{
		{GraphemeID: 1, Text: "ABC"},
		{GraphemeID: 2, Text: "AB"},
		{GraphemeID: 3, Text: "CD"},
	})
}

func Test_Match_GreedyVsOptimal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	res, err := Match("ABCD", scenarioDTable(), Strict)
	require.NoError(err)

	require.Len(res.Segments, 2)
	assert.False(res.Segments[0].IsVirtual)
	assert.Equal(int64(2), res.Segments[0].GraphemeID)
	assert.Equal("AB", res.Segments[0].Text)
	assert.False(res.Segments[1].IsVirtual)
	assert.Equal(int64(3), res.Segments[1].GraphemeID)
	assert.Equal("CD", res.Segments[1].Text)
	assert.Equal(4, res.Coverage)
	assert.Equal(2, res.Count)
}

func Test_Match_Strict_NoCoverage(t *testing.T) {
	assert := assert.New(t)

	tbl := phonemap.Build([]phonemap.Phoneme{{GraphemeID: 1, Text: "a"}})
	_, err := Match("xyz", tbl, Strict)

	var ncErr *NoCoverageError
	assert.True(errors.As(err, &ncErr))
	assert.Equal(0, ncErr.MatchedPrefixLen)
	assert.Equal("xyz", ncErr.Unmatched)
}

func Test_Match_Strict_NoPhonemesAtAll(t *testing.T) {
	assert := assert.New(t)

	_, err := Match("hello", phonemap.Table{}, Strict)

	var ncErr *NoCoverageError
	assert.True(errors.As(err, &ncErr))
	assert.Equal(0, ncErr.MatchedPrefixLen)
	assert.Equal("hello", ncErr.Unmatched)
}

func Test_Match_Fallback_AllVirtual(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	res, err := Match("xyz", phonemap.Table{}, Fallback)
	require.NoError(err)

	require.Len(res.Segments, 3)
	want := []rune("xyz")
	for i, seg := range res.Segments {
		assert.True(seg.IsVirtual)
		assert.Equal(string(want[i]), seg.Text)
	}
	assert.Equal(0, res.Coverage)
	assert.Equal(3, res.Count)
}

func Test_Match_Fallback_FillsGaps(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	tbl := phonemap.Build([]phonemap.Phoneme{{GraphemeID: 1, Text: "a"}, {GraphemeID: 2, Text: "t"}})

	res, err := Match("kat", tbl, Fallback)
	require.NoError(err)

	require.Len(res.Segments, 3)
	assert.True(res.Segments[0].IsVirtual)
	assert.Equal("k", res.Segments[0].Text)
	assert.False(res.Segments[1].IsVirtual)
	assert.Equal(int64(1), res.Segments[1].GraphemeID)
	assert.False(res.Segments[2].IsVirtual)
	assert.Equal(int64(2), res.Segments[2].GraphemeID)
	assert.Equal(2, res.Coverage)
	assert.Equal(3, res.Count)
}

func Test_Match_EmptyInput(t *testing.T) {
	assert := assert.New(t)

	_, err := Match("", scenarioDTable(), Strict)
	assert.ErrorIs(err, ErrEmptyInput)

	_, err = Match("", scenarioDTable(), Fallback)
	assert.ErrorIs(err, ErrEmptyInput)
}

func Test_Match_Deterministic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	tbl := phonemap.Build([]phonemap.Phoneme{
		{GraphemeID: 1, Text: "th"},
		{GraphemeID: 2, Text: "t"},
		{GraphemeID: 3, Text: "h"},
		{GraphemeID: 4, Text: "e"},
	})

	var prev Result
	for i := 0; i < 20; i++ {
		res, err := Match("the", tbl, Fallback)
		require.NoError(err)
		if i > 0 {
			assert.Equal(prev, res)
		}
		prev = res
	}
}

func Test_VirtualID_Stable(t *testing.T) {
	assert := assert.New(t)

	a := VirtualID("x")
	b := VirtualID("x")
	assert.Equal(a, b)
	assert.True(a < 0)

	c := VirtualID("y")
	assert.NotEqual(a, c)
}
