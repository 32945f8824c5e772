package rest

import (
	"encoding/json"
	"net/http"

	"github.com/italolelis/fetch_nodes/internal/logctx"
)

// Router is the part of a host-owned router needed to attach GET handlers.
// chi.Router satisfies it.
type Router interface {
	Get(pattern string, h http.HandlerFunc)
}

// RegisterHello attaches GET /hello to r.
func RegisterHello(r Router) {
	r.Get("/hello", HandleHello)
}

// HandleHello responds with the JSON string "hello", ignoring the request.
func HandleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, "hello")
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logctx.LoggerFromContext(r.Context()).Error("failed to encode response", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}
