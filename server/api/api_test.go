package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	etymolog "github.com/etymolog/etymolog"
	"github.com/etymolog/etymolog/server/dao/inmem"
	"github.com/etymolog/etymolog/server/result"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	engine := etymolog.NewEngine(inmem.NewDatastore())
	require.NoError(t, <-engine.Init(context.Background()))
	return &API{Engine: engine}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult[T any](t *testing.T, rec *httptest.ResponseRecorder) result.Result[T] {
	t.Helper()
	var out result.Result[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func Test_CreateGlyph_Success(t *testing.T) {
	assert := assert.New(t)
	a := newTestAPI(t)
	h := a.Router()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/glyphs", etymolog.GlyphInput{Name: "circle", SVGData: "<svg/>"})
	assert.Equal(http.StatusOK, rec.Code)

	out := decodeResult[struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}](t, rec)
	assert.True(out.Success)
	assert.Equal("circle", out.Data.Name)
	assert.NotZero(out.Data.ID)
}

func Test_CreateGlyph_ValidationErrorMapsTo400(t *testing.T) {
	assert := assert.New(t)
	a := newTestAPI(t)
	h := a.Router()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/glyphs", etymolog.GlyphInput{Name: "", SVGData: "<svg/>"})
	assert.Equal(http.StatusBadRequest, rec.Code)

	out := decodeResult[any](t, rec)
	assert.False(out.Success)
	require.NotNil(t, out.Error)
	assert.Equal("VALIDATION_ERROR", string(out.Error.Code))
}

func Test_GetGlyph_NotFoundMapsTo404(t *testing.T) {
	assert := assert.New(t)
	a := newTestAPI(t)
	h := a.Router()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/glyphs/999", nil)
	assert.Equal(http.StatusNotFound, rec.Code)
}

func Test_GetGlyph_MalformedIdIsA500ViaRecoverMiddleware(t *testing.T) {
	assert := assert.New(t)
	a := newTestAPI(t)
	h := a.Router()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/glyphs/not-a-number", nil)
	assert.Equal(http.StatusInternalServerError, rec.Code)
}

func Test_CreateLexiconEntry_ThenTranslate(t *testing.T) {
	assert := assert.New(t)
	a := newTestAPI(t)
	h := a.Router()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/lexicon", etymolog.LexiconInput{
		Lemma: "kat", Pronunciation: "kat", IsNative: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/translate", struct {
		Text string `json:"text"`
	}{Text: "kat"})
	assert.Equal(http.StatusOK, rec.Code)

	out := decodeResult[map[string]any](t, rec)
	assert.True(out.Success)
}

func Test_Database_ExportImport_BypassesResultEnvelope(t *testing.T) {
	assert := assert.New(t)
	a := newTestAPI(t)
	h := a.Router()

	doJSON(t, h, http.MethodPost, "/api/v1/glyphs", etymolog.GlyphInput{Name: "square", SVGData: "<svg/>"})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/database/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal("application/json", rec.Header().Get("Content-Type"))
	assert.Contains(rec.Header().Get("Content-Disposition"), "attachment")

	// the export body is the raw envelope, not a result.Result wrapper:
	// it has "magic"/"tables" keys, not "success"/"data".
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(raw, "magic")
	assert.Contains(raw, "tables")
	assert.NotContains(raw, "success")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/database/import", bytes.NewReader(rec.Body.Bytes()))
	importRec := httptest.NewRecorder()
	h.ServeHTTP(importRec, req)
	assert.Equal(http.StatusOK, importRec.Code)

	glyphsRec := doJSON(t, h, http.MethodGet, "/api/v1/glyphs", nil)
	out := decodeResult[[]etymolog.GlyphInput](t, glyphsRec)
	assert.True(out.Success)
}
