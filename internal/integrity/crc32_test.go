package integrity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_CRC32_KnownVectors(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint32(0x00000000), CRC32(nil))
	assert.Equal(uint32(0xE8B7BE43), CRC32([]byte("a")))
	assert.Equal(uint32(0xCBF43926), CRC32([]byte("123456789")))
}
