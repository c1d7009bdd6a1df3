package api

import (
	"net/http"

	etymolog "github.com/etymolog/etymolog"
)

func (a *API) getPhoneme(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetPhoneme(r.Context(), idParam(r, "phonemeId"))
	write(w, data, err)
}

func (a *API) updatePhoneme(w http.ResponseWriter, r *http.Request) {
	var in etymolog.PhonemeInput
	if err := parseJSON(r, &in); err != nil {
		write[etymolog.PhonemeInput](w, in, err)
		return
	}
	data, err := a.Engine.UpdatePhoneme(r.Context(), idParam(r, "phonemeId"), in)
	write(w, data, err)
}

func (a *API) deletePhoneme(w http.ResponseWriter, r *http.Request) {
	err := a.Engine.DeletePhoneme(r.Context(), idParam(r, "phonemeId"))
	write[any](w, nil, err)
}
