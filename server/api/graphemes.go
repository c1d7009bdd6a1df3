package api

import (
	"net/http"

	etymolog "github.com/etymolog/etymolog"
)

type createGraphemeRequest struct {
	Grapheme etymolog.GraphemeInput         `json:"grapheme"`
	Glyphs   []etymolog.GlyphComposition    `json:"glyphs"`
	Phonemes []etymolog.PhonemeComposition  `json:"phonemes"`
}

func (a *API) listGraphemes(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("complete") {
		data, err := a.Engine.GetAllGraphemesComplete(r.Context())
		write(w, data, err)
		return
	}
	data, err := a.Engine.GetAllGraphemes(r.Context())
	write(w, data, err)
}

func (a *API) createGrapheme(w http.ResponseWriter, r *http.Request) {
	var in createGraphemeRequest
	if err := parseJSON(r, &in); err != nil {
		write[createGraphemeRequest](w, in, err)
		return
	}
	data, err := a.Engine.CreateGrapheme(r.Context(), in.Grapheme, in.Glyphs, in.Phonemes)
	write(w, data, err)
}

func (a *API) searchGraphemes(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.SearchGraphemes(r.Context(), queryParam(r, "q"))
	write(w, data, err)
}

func (a *API) graphemesByPhoneme(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetGraphemesByPhoneme(r.Context(), queryParam(r, "phoneme"))
	write(w, data, err)
}

func (a *API) phonemeMap(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetPhonemeMap(r.Context())
	write(w, data.Mappings(), err)
}

func (a *API) getGrapheme(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	if r.URL.Query().Has("complete") {
		data, err := a.Engine.GetGraphemeComplete(r.Context(), id)
		write(w, data, err)
		return
	}
	data, err := a.Engine.GetGrapheme(r.Context(), id)
	write(w, data, err)
}

func (a *API) updateGrapheme(w http.ResponseWriter, r *http.Request) {
	var in etymolog.GraphemeInput
	if err := parseJSON(r, &in); err != nil {
		write[etymolog.GraphemeInput](w, in, err)
		return
	}
	data, err := a.Engine.UpdateGrapheme(r.Context(), idParam(r, "id"), in)
	write(w, data, err)
}

func (a *API) updateGraphemeGlyphs(w http.ResponseWriter, r *http.Request) {
	var in []etymolog.GlyphComposition
	if err := parseJSON(r, &in); err != nil {
		write[[]etymolog.GlyphComposition](w, in, err)
		return
	}
	data, err := a.Engine.UpdateGraphemeGlyphs(r.Context(), idParam(r, "id"), in)
	write(w, data, err)
}

func (a *API) deleteGrapheme(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.DeleteGrapheme(r.Context(), idParam(r, "id"))
	write(w, data, err)
}

func (a *API) addPhoneme(w http.ResponseWriter, r *http.Request) {
	var in etymolog.PhonemeComposition
	if err := parseJSON(r, &in); err != nil {
		write[etymolog.PhonemeComposition](w, in, err)
		return
	}
	data, err := a.Engine.AddPhoneme(r.Context(), etymolog.PhonemeInput{
		GraphemeID: idParam(r, "id"), Phoneme: in.Phoneme, UseInAutoSpelling: in.UseInAutoSpelling, Context: in.Context,
	})
	write(w, data, err)
}

func (a *API) phonemesByGrapheme(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetPhonemesByGrapheme(r.Context(), idParam(r, "id"))
	write(w, data, err)
}

func (a *API) deleteAllPhonemesForGrapheme(w http.ResponseWriter, r *http.Request) {
	err := a.Engine.DeleteAllPhonemesForGrapheme(r.Context(), idParam(r, "id"))
	write[any](w, nil, err)
}
