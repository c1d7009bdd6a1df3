// Package api provides HTTP endpoints for the workbench engine.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	etymolog "github.com/etymolog/etymolog"
	"github.com/etymolog/etymolog/server/result"
	"github.com/etymolog/etymolog/server/serr"
)

// PathPrefix is the prefix of all paths in the API. Routers should mount
// a sub-router that routes all requests to the API at this path.
const PathPrefix = "/api/v1"

// API holds the engine that every endpoint calls into. Use Router to
// obtain an http.Handler wired with every endpoint.
type API struct {
	Engine *etymolog.Engine

	// UnauthDelay is slept before the recover middleware writes the
	// HTTP-500 for a panicking handler, to deprioritize failing requests
	// from hogging I/O during a retry storm. HTTP-500 responses built
	// from a returned error are written without this delay.
	UnauthDelay time.Duration
}

// Router returns an http.Handler serving every endpoint under
// PathPrefix.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(a.recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Route(PathPrefix, func(r chi.Router) {
		r.Route("/glyphs", func(r chi.Router) {
			r.Get("/", a.listGlyphs)
			r.Post("/", a.createGlyph)
			r.Get("/search", a.searchGlyphs)
			r.Get("/name-exists", a.checkGlyphNameExists)
			r.Get("/{id}", a.getGlyph)
			r.Put("/{id}", a.updateGlyph)
			r.Delete("/{id}", a.deleteGlyph)
			r.Delete("/{id}/force", a.forceDeleteGlyph)
			r.Delete("/{id}/cascade", a.cascadeDeleteGlyph)
		})

		r.Route("/graphemes", func(r chi.Router) {
			r.Get("/", a.listGraphemes)
			r.Post("/", a.createGrapheme)
			r.Get("/search", a.searchGraphemes)
			r.Get("/by-phoneme", a.graphemesByPhoneme)
			r.Get("/phoneme-map", a.phonemeMap)
			r.Get("/{id}", a.getGrapheme)
			r.Put("/{id}", a.updateGrapheme)
			r.Put("/{id}/glyphs", a.updateGraphemeGlyphs)
			r.Delete("/{id}", a.deleteGrapheme)

			r.Post("/{id}/phonemes", a.addPhoneme)
			r.Get("/{id}/phonemes", a.phonemesByGrapheme)
			r.Delete("/{id}/phonemes", a.deleteAllPhonemesForGrapheme)
		})

		r.Route("/phonemes/{phonemeId}", func(r chi.Router) {
			r.Get("/", a.getPhoneme)
			r.Put("/", a.updatePhoneme)
			r.Delete("/", a.deletePhoneme)
		})

		r.Route("/lexicon", func(r chi.Router) {
			r.Get("/", a.listLexicon)
			r.Post("/", a.createLexiconEntry)
			r.Get("/search", a.searchLexicon)
			r.Get("/by-native", a.lexiconByNative)
			r.Get("/{id}", a.getLexiconEntry)
			r.Put("/{id}", a.updateLexiconEntry)
			r.Delete("/{id}", a.deleteLexiconEntry)
			r.Put("/{id}/spelling", a.setLexiconSpelling)
			r.Post("/{id}/auto-spell/generate", a.generateAutoSpelling)
			r.Post("/{id}/auto-spell/preview", a.previewAutoSpelling)
			r.Post("/{id}/auto-spell/apply", a.applyAutoSpelling)
			r.Put("/{id}/ancestry", a.updateAncestry)
			r.Get("/{id}/ancestry/tree", a.ancestryTree)
			r.Get("/{id}/ancestry/ancestors", a.ancestorIds)
			r.Get("/{id}/ancestry/descendants", a.descendantIds)
			r.Get("/{id}/ancestry/would-cycle", a.wouldCreateCycle)
		})

		r.Post("/translate", a.translate)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", a.getSettings)
			r.Put("/", a.updateSettings)
			r.Post("/reset", a.resetSettings)
		})

		r.Route("/database", func(r chi.Router) {
			r.Get("/status", a.getStatus)
			r.Post("/clear", a.clearDatabase)
			r.Post("/reset", a.resetDatabase)
			r.Get("/export", a.export)
			r.Post("/import", a.import_)
		})
	})

	return r
}

// write sends a success envelope for data, or an error envelope derived
// from err's serr.Code when err is non-nil.
func write[T any](w http.ResponseWriter, data T, err error) {
	if err != nil {
		result.WriteErr[T](w, err)
		return
	}
	result.WriteOK(w, data)
}

// idParam parses a chi URL param as an int64. It panics (caught by
// recoverMiddleware as a 500) on a malformed route: an id this route's
// pattern accepted but can't parse means the router mapping itself is
// broken, not a client error.
func idParam(r *http.Request, name string) int64 {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("route param %q is not a valid id: %s", name, raw))
	}
	return id
}

func queryParam(r *http.Request, name string) string {
	return r.URL.Query().Get(name)
}

// parseJSON decodes the request body into v, restoring the body
// afterward so later middleware can still read it.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(contentType), "application/json") {
		return serr.Validation("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return serr.Validation("could not read request body")
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.Validation("malformed JSON in request body")
	}
	return nil
}

func (a *API) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer a.panicTo500(w, req)
		next.ServeHTTP(w, req)
	})
}

func (a *API) panicTo500(w http.ResponseWriter, req *http.Request) {
	if panicVal := recover(); panicVal != nil {
		logHttpResponse("ERROR", req, http.StatusInternalServerError, fmt.Sprintf("panic: %v", panicVal))
		log.Printf("STACK TRACE: %s", string(debug.Stack()))
		time.Sleep(a.UnauthDelay)
		result.WriteErr[any](w, serr.OperationFailed("an internal server error occurred"))
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		level := "INFO"
		if rec.status >= 400 {
			level = "ERROR"
		}
		logHttpResponse(level, req, rec.status, "")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func logHttpResponse(level string, req *http.Request, respStatus int, msg string) {
	for len(level) < 5 {
		level += " "
	}
	remoteIP := strings.SplitN(req.RemoteAddr, ":", 2)[0]
	if msg == "" {
		log.Printf("%s %s %s %s: HTTP-%d", level, remoteIP, req.Method, req.URL.Path, respStatus)
		return
	}
	log.Printf("%s %s %s %s: HTTP-%d %s", level, remoteIP, req.Method, req.URL.Path, respStatus, msg)
}
