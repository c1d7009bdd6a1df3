package api

import (
	"net/http"

	"github.com/etymolog/etymolog/internal/settings"
)

func (a *API) getSettings(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.GetSettings()
	write(w, data, err)
}

func (a *API) updateSettings(w http.ResponseWriter, r *http.Request) {
	var in settings.Settings
	if err := parseJSON(r, &in); err != nil {
		write[settings.Settings](w, in, err)
		return
	}
	data, err := a.Engine.UpdateSettings(r.Context(), func(settings.Settings) settings.Settings { return in })
	write(w, data, err)
}

func (a *API) resetSettings(w http.ResponseWriter, r *http.Request) {
	data, err := a.Engine.ResetSettings(r.Context())
	write(w, data, err)
}
