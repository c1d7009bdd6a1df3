package api

import (
	"io"
	"net/http"

	etymolog "github.com/etymolog/etymolog"
	"github.com/etymolog/etymolog/server/result"
	"github.com/etymolog/etymolog/server/serr"
)

func (a *API) getStatus(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetStatus(r.Context())
	write(w, data, err)
}

func (a *API) clearDatabase(w http.ResponseWriter, r *http.Request) {
	err := a.Engine.Clear(r.Context())
	write[any](w, nil, err)
}

func (a *API) resetDatabase(w http.ResponseWriter, r *http.Request) {
	err := a.Engine.Reset(r.Context())
	write[any](w, nil, err)
}

func exportFormat(r *http.Request) etymolog.ExportFormat {
	if queryParam(r, "format") == string(etymolog.FormatBinary) {
		return etymolog.FormatBinary
	}
	return etymolog.FormatJSON
}

// export streams the raw export blob rather than wrapping it in the
// uniform result envelope, since the payload is the file being
// downloaded, not an operation outcome.
func (a *API) export(w http.ResponseWriter, r *http.Request) {
	format := exportFormat(r)
	data, err := a.Engine.Export(r.Context(), format)
	if err != nil {
		result.WriteErr[any](w, err)
		return
	}
	if format == etymolog.FormatBinary {
		w.Header().Set("Content-Type", "application/octet-stream")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\"etymolog-export."+string(format)+"\"")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (a *API) import_(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		write[any](w, nil, serr.Validation("could not read import body"))
		return
	}
	defer r.Body.Close()
	err = a.Engine.Import(r.Context(), exportFormat(r), data)
	write[any](w, nil, err)
}
