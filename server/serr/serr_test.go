package serr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Error_Is_MatchesCause(t *testing.T) {
	assert := assert.New(t)

	err := NotFound("glyph 5 not found")
	assert.True(errors.Is(err, ErrNotFound))
}

func Test_Error_Code(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(CodeValidationError, Validation("bad input").Code())
	assert.Equal(CodeCycle, CycleDetected("would cycle").Code())
	assert.Equal(CodeUnknown, Error{}.Code())
}

func Test_NoCoverage_CarriesDetail(t *testing.T) {
	assert := assert.New(t)

	err := NoCoverage("xyz")
	assert.Equal("xyz", err.Detail())
	assert.Equal(CodeNoCoverage, err.Code())
}

func Test_OperationFailed_WrapsDB(t *testing.T) {
	assert := assert.New(t)

	underlying := errors.New("disk full")
	err := OperationFailed("write failed", underlying)

	assert.True(errors.Is(err, ErrDB))
	assert.True(errors.Is(err, underlying))
}
