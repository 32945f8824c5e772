package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/italolelis/fetch_nodes/internal/logctx"
	"github.com/italolelis/fetch_nodes/internal/node"
	"github.com/italolelis/fetch_nodes/internal/storage"
)

const maxRequestBody = 1 << 20 // 1MB

type ObjectInfoResponse struct {
	Nodes        []node.Definition `json:"nodes"`
	DisplayNames map[string]string `json:"display_names"`
}

type ExecuteRequest struct {
	Inputs node.Inputs `json:"inputs"`
}

type ExecuteResponse struct {
	NodeID      string         `json:"node_id"`
	ExecutionID string         `json:"execution_id"`
	Outputs     map[string]any `json:"outputs"`
}

type FetchesResponse struct {
	Fetches []storage.FetchRecord `json:"fetches"`
}

// NodeHandler exposes the node registry over HTTP so a host scheduler can
// discover and run nodes.
type NodeHandler struct {
	registry *node.Registry
	history  storage.FetchRepository
}

// NewNodeHandler creates a new node handler. history may be nil, in which case
// the fetch history route answers 404.
func NewNodeHandler(registry *node.Registry, history storage.FetchRepository) *NodeHandler {
	return &NodeHandler{registry: registry, history: history}
}

func (h *NodeHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/object_info", h.HandleObjectInfo)
	r.Post("/nodes/{id}/execute", h.HandleExecute)
	r.Get("/fetches", h.HandleFetches)

	return r
}

// HandleObjectInfo lists every registered node with its display label.
func (h *NodeHandler) HandleObjectInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, ObjectInfoResponse{
		Nodes:        h.registry.Definitions(),
		DisplayNames: h.registry.DisplayNameMappings(),
	})
}

// HandleExecute runs one node with the inputs in the request body.
func (h *NodeHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	executionID := uuid.New().String()

	ctx := logctx.WithExecutionID(r.Context(), executionID)
	logger := logctx.LoggerFromContext(ctx)

	n, ok := h.registry.Lookup(id)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown node "+id)

		return
	}

	var req ExecuteRequest

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		logger.WarnContext(ctx, "failed to decode request", "err", err)
		writeError(w, r, http.StatusBadRequest, "invalid request body")

		return
	}

	out, err := h.registry.Execute(ctx, id, req.Inputs)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, node.ErrInvalidInput) {
			status = http.StatusBadRequest
		}

		writeError(w, r, status, err.Error())

		return
	}

	writeJSON(w, r, http.StatusOK, ExecuteResponse{
		NodeID:      id,
		ExecutionID: executionID,
		Outputs:     out.Named(n.Definition()),
	})
}

// HandleFetches returns the most recent fetches, newest first.
func (h *NodeHandler) HandleFetches(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, r, http.StatusNotFound, "fetch history is disabled")

		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid limit")

			return
		}

		limit = v
	}

	fetches, err := h.history.GetFetches(r.Context(), limit)
	if err != nil {
		logctx.LoggerFromContext(r.Context()).ErrorContext(r.Context(), "failed to get fetches", "err", err)
		writeError(w, r, http.StatusInternalServerError, "failed to get fetches")

		return
	}

	if fetches == nil {
		fetches = []storage.FetchRecord{}
	}

	writeJSON(w, r, http.StatusOK, FetchesResponse{Fetches: fetches})
}
