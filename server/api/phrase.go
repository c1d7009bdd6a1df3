package api

import "net/http"

type translateRequest struct {
	Text string `json:"text"`
}

func (a *API) translate(w http.ResponseWriter, r *http.Request) {
	var in translateRequest
	if err := parseJSON(r, &in); err != nil {
		write[translateRequest](w, in, err)
		return
	}
	data, err := a.Engine.Translate(r.Context(), in.Text)
	write(w, data, err)
}
