package api

import (
	"net/http"
	"strconv"

	etymolog "github.com/etymolog/etymolog"
)

func (a *API) listLexicon(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Query().Has("usage"):
		data, err := a.Engine.GetAllLexiconEntriesWithUsage(r.Context())
		write(w, data, err)
	case r.URL.Query().Has("complete"):
		data, err := a.Engine.GetAllLexiconEntriesComplete(r.Context())
		write(w, data, err)
	default:
		data, err := a.Engine.GetAllLexiconEntries(r.Context())
		write(w, data, err)
	}
}

func (a *API) createLexiconEntry(w http.ResponseWriter, r *http.Request) {
	var in etymolog.LexiconInput
	if err := parseJSON(r, &in); err != nil {
		write[etymolog.LexiconInput](w, in, err)
		return
	}
	data, err := a.Engine.CreateLexiconEntry(r.Context(), in)
	write(w, data, err)
}

func (a *API) searchLexicon(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.SearchLexicon(r.Context(), queryParam(r, "q"))
	write(w, data, err)
}

func (a *API) lexiconByNative(w http.ResponseWriter, r *http.Request) {
	isNative, _ := strconv.ParseBool(queryParam(r, "value"))
	data, err := a.Engine.GetLexiconByNative(r.Context(), isNative)
	write(w, data, err)
}

func (a *API) getLexiconEntry(w http.ResponseWriter, r *http.Request) {
	id := idParam(r, "id")
	if r.URL.Query().Has("complete") {
		data, err := a.Engine.GetLexiconEntryComplete(r.Context(), id)
		write(w, data, err)
		return
	}
	data, err := a.Engine.GetLexiconEntry(r.Context(), id)
	write(w, data, err)
}

func (a *API) updateLexiconEntry(w http.ResponseWriter, r *http.Request) {
	var in etymolog.LexiconUpdateInput
	if err := parseJSON(r, &in); err != nil {
		write[etymolog.LexiconUpdateInput](w, in, err)
		return
	}
	data, err := a.Engine.UpdateLexiconEntry(r.Context(), idParam(r, "id"), in)
	write(w, data, err)
}

func (a *API) deleteLexiconEntry(w http.ResponseWriter, r *http.Request) {
	err := a.Engine.DeleteLexiconEntry(r.Context(), idParam(r, "id"))
	write[any](w, nil, err)
}

func (a *API) setLexiconSpelling(w http.ResponseWriter, r *http.Request) {
	var in etymolog.LexiconSpellingInput
	if err := parseJSON(r, &in); err != nil {
		write[etymolog.LexiconSpellingInput](w, in, err)
		return
	}
	data, err := a.Engine.SetLexiconSpelling(r.Context(), idParam(r, "id"), in)
	write(w, data, err)
}

type pronunciationRequest struct {
	Pronunciation string `json:"pronunciation"`
}

func (a *API) generateAutoSpelling(w http.ResponseWriter, r *http.Request) {
	var in pronunciationRequest
	if err := parseJSON(r, &in); err != nil {
		write[pronunciationRequest](w, in, err)
		return
	}
	data, err := a.Engine.GenerateAutoSpelling(r.Context(), in.Pronunciation)
	write(w, data, err)
}

func (a *API) previewAutoSpelling(w http.ResponseWriter, r *http.Request) {
	var in pronunciationRequest
	if err := parseJSON(r, &in); err != nil {
		write[pronunciationRequest](w, in, err)
		return
	}
	data, err := a.Engine.PreviewAutoSpelling(r.Context(), in.Pronunciation)
	write(w, data, err)
}

func (a *API) applyAutoSpelling(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.ApplyAutoSpelling(r.Context(), idParam(r, "id"))
	write(w, data, err)
}

func (a *API) updateAncestry(w http.ResponseWriter, r *http.Request) {
	var in []etymolog.AncestryEdgeInput
	if err := parseJSON(r, &in); err != nil {
		write[[]etymolog.AncestryEdgeInput](w, in, err)
		return
	}
	data, err := a.Engine.UpdateAncestry(r.Context(), idParam(r, "id"), in)
	write(w, data, err)
}

func (a *API) ancestryTree(w http.ResponseWriter, r *http.Request) {
	maxDepth, _ := strconv.Atoi(queryParam(r, "maxDepth"))
	data, err := a.Engine.GetAncestryTree(r.Context(), idParam(r, "id"), maxDepth)
	write(w, data, err)
}

func (a *API) ancestorIds(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetAllAncestorIds(r.Context(), idParam(r, "id"))
	write(w, data, err)
}

func (a *API) descendantIds(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetAllDescendantIds(r.Context(), idParam(r, "id"))
	write(w, data, err)
}

func (a *API) wouldCreateCycle(w http.ResponseWriter, r *http.Request) {
	ancestorID, _ := strconv.ParseInt(queryParam(r, "ancestorId"), 10, 64)
	data, err := a.Engine.WouldCreateCycle(r.Context(), idParam(r, "id"), ancestorID)
	write(w, data, err)
}
