package foldcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Equal(t *testing.T) {
	assert := assert.New(t)

	assert.True(Equal("Hello", "hello"))
	assert.True(Equal("CAFÉ", "café"))
	assert.False(Equal("hello", "world"))
}

func Test_Contains(t *testing.T) {
	assert := assert.New(t)

	assert.True(Contains("Hello World", "WORLD"))
	assert.True(Contains("kat", "A"))
	assert.False(Contains("kat", "z"))
}

func Test_Fold_Idempotent(t *testing.T) {
	assert := assert.New(t)

	s := "MiXeD CaSe"
	assert.Equal(Fold(s), Fold(Fold(s)))
}
