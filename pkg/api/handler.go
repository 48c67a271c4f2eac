package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hazyhaar/textprep/pkg/kit"
	"github.com/hazyhaar/textprep/pkg/mask"
	"github.com/hazyhaar/textprep/pkg/modelstore"
	"github.com/hazyhaar/textprep/pkg/normalize"
)

// maxBody bounds request bodies.
const maxBody = 8 << 20

// NewRouter returns an http.Handler with all textprep API routes. When
// mcp is non-nil it is mounted at /mcp.
func NewRouter(s *Service, mcp http.Handler) http.Handler {
	mux := http.NewServeMux()
	h := &handler{svc: s, ep: s.endpoints()}

	mux.HandleFunc("POST /v1/normalize", h.handleNormalize)
	mux.HandleFunc("POST /v1/tokenize", h.handleTokenize)
	mux.HandleFunc("POST /v1/detokenize", h.handleDetokenize)
	mux.HandleFunc("POST /v1/truecase", h.handleTruecase)
	mux.HandleFunc("POST /v1/detruecase", h.handleDetruecase)
	mux.HandleFunc("GET /v1/models", h.handleListModels)
	mux.HandleFunc("DELETE /v1/models/{name}", h.handleDeleteModel)
	mux.HandleFunc("GET /v1/languages", h.handleListLanguages)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	if mcp != nil {
		mux.Handle("/mcp", mcp)
	}

	return cors(requestID(mux))
}

type handler struct {
	svc *Service
	ep  endpoints
}

// --- line operations ---

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeReq
	if !decode(w, r, &req) {
		return
	}
	h.serve(w, r, h.ep.normalize, &req)
}

func (h *handler) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeReq
	if !decode(w, r, &req) {
		return
	}
	h.serve(w, r, h.ep.tokenize, &req)
}

func (h *handler) handleDetokenize(w http.ResponseWriter, r *http.Request) {
	var req detokenizeReq
	if !decode(w, r, &req) {
		return
	}
	h.serve(w, r, h.ep.detokenize, &req)
}

func (h *handler) handleTruecase(w http.ResponseWriter, r *http.Request) {
	var req truecaseReq
	if !decode(w, r, &req) {
		return
	}
	h.serve(w, r, h.ep.truecase, &req)
}

func (h *handler) handleDetruecase(w http.ResponseWriter, r *http.Request) {
	var req detruecaseReq
	if !decode(w, r, &req) {
		return
	}
	h.serve(w, r, h.ep.detruecase, &req)
}

// --- listings ---

func (h *handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.listModels, nil)
}

func (h *handler) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.deleteModel, &deleteModelReq{Name: r.PathValue("name")})
}

func (h *handler) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.ep.listLanguages, nil)
}

// --- health ---

type healthResponse struct {
	Status    string `json:"status"`
	Languages int    `json:"languages"`
	Workers   int    `json:"workers"`
	Models    bool   `json:"models"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Languages: len(h.svc.langs.Codes()),
		Workers:   h.svc.pool.Size(),
		Models:    h.svc.models != nil,
	})
}

// --- helpers ---

func (h *handler) serve(w http.ResponseWriter, r *http.Request, e kit.Endpoint, req any) {
	ctx := r.Context()
	if code := languageOf(req); code != "" {
		ctx = kit.WithLanguage(ctx, code)
	}
	resp, err := e(ctx, req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, mask.ErrInvalidPattern),
		errors.Is(err, normalize.ErrUnicodeForm):
		return http.StatusBadRequest
	case errors.Is(err, modelstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoModelStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// requestID tags every request with an id, taken from X-Request-ID when
// the client sends one, and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = kit.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
