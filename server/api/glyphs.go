package api

import (
	"net/http"

	etymolog "github.com/etymolog/etymolog"
)

func (a *API) listGlyphs(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("usage") {
		data, err := a.Engine.GetAllGlyphsWithUsage(r.Context())
		write(w, data, err)
		return
	}
	data, err := a.Engine.GetAllGlyphs(r.Context())
	write(w, data, err)
}

func (a *API) createGlyph(w http.ResponseWriter, r *http.Request) {
	var in etymolog.GlyphInput
	if err := parseJSON(r, &in); err != nil {
		write[etymolog.GlyphInput](w, in, err)
		return
	}
	data, err := a.Engine.CreateGlyph(r.Context(), in)
	write(w, data, err)
}

func (a *API) searchGlyphs(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.SearchGlyphs(r.Context(), queryParam(r, "q"))
	write(w, data, err)
}

func (a *API) checkGlyphNameExists(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.CheckGlyphNameExists(r.Context(), queryParam(r, "name"))
	write(w, data, err)
}

func (a *API) getGlyph(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetGlyph(r.Context(), idParam(r, "id"))
	write(w, data, err)
}

func (a *API) updateGlyph(w http.ResponseWriter, r *http.Request) {
	var in etymolog.GlyphInput
	if err := parseJSON(r, &in); err != nil {
		write[etymolog.GlyphInput](w, in, err)
		return
	}
	data, err := a.Engine.UpdateGlyph(r.Context(), idParam(r, "id"), in)
	write(w, data, err)
}

func (a *API) deleteGlyph(w http.ResponseWriter, r *http.Request) {
	err := a.Engine.DeleteGlyph(r.Context(), idParam(r, "id"))
	write[any](w, nil, err)
}

func (a *API) forceDeleteGlyph(w http.ResponseWriter, r *http.Request) {
	err := a.Engine.ForceDeleteGlyph(r.Context(), idParam(r, "id"))
	write[any](w, nil, err)
}

func (a *API) cascadeDeleteGlyph(w http.ResponseWriter, r *http.Request) {
	err := a.Engine.CascadeDeleteGlyph(r.Context(), idParam(r, "id"))
	write[any](w, nil, err)
}
