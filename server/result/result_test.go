package result

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/etymolog/etymolog/server/serr"
)

func Test_OK_Success(t *testing.T) {
	assert := assert.New(t)

	r := OK(42)
	assert.True(r.Success)
	assert.Equal(42, r.Data)
	assert.Nil(r.Error)
}

func Test_Fail_CarriesCode(t *testing.T) {
	assert := assert.New(t)

	r := Fail[string](serr.NotFound("entry 1 not found"))
	assert.False(r.Success)
	assert.Equal(serr.CodeNotFound, r.Error.Code)
}

func Test_Fail_NonSerrError_OperationFailed(t *testing.T) {
	assert := assert.New(t)

	r := Fail[string](assert.AnError)
	assert.Equal(serr.CodeOperationFailed, r.Error.Code)
}

func Test_Write_SetsStatusFromCode(t *testing.T) {
	assert := assert.New(t)

	rec := httptest.NewRecorder()
	WriteErr[string](rec, serr.NotFound("nope"))
	assert.Equal(404, rec.Code)

	rec2 := httptest.NewRecorder()
	WriteOK(rec2, "hi")
	assert.Equal(200, rec2.Code)
}
