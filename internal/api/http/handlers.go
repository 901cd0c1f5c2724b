package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/propgrid/propgrid/internal/dataset"
	gerrors "github.com/propgrid/propgrid/internal/errors"
	"github.com/propgrid/propgrid/internal/observability"
	"github.com/propgrid/propgrid/internal/session"
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; view requests are tiny.
const maxBodyBytes = 1 << 20

// Options configures a Handler.
type Options struct {
	Registry *dataset.Registry
	Sessions *session.Manager
	Memo     *view.Memo
	Stats    *observability.ViewStats

	// DefaultPageSize applies to resolve requests that omit page_size.
	DefaultPageSize int

	Logger *zap.Logger
}

// Handler serves the propgrid JSON API.
type Handler struct {
	registry        *dataset.Registry
	sessions        *session.Manager
	memo            *view.Memo
	stats           *observability.ViewStats
	defaultPageSize int
	logger          *zap.Logger
}

// NewHandler creates an API handler. Registry and Sessions are required.
func NewHandler(opts Options) *Handler {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = view.DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{
		registry:        opts.Registry,
		sessions:        opts.Sessions,
		memo:            opts.Memo,
		stats:           opts.Stats,
		defaultPageSize: opts.DefaultPageSize,
		logger:          opts.Logger,
	}
}

// Routes returns the API mux wrapped in the default middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /v1/datasets", h.handleListDatasets)
	mux.HandleFunc("POST /v1/datasets/{name}/resolve", h.handleResolve)
	mux.HandleFunc("POST /v1/sessions", h.handleCreateSession)
	mux.HandleFunc("GET /v1/sessions/{id}", h.handleGetSession)
	mux.HandleFunc("POST /v1/sessions/{id}/events", h.handleSessionEvent)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.handleCloseSession)
	mux.HandleFunc("GET /v1/stats", h.handleStats)
	return DefaultMiddleware(h.logger)(mux)
}

// ResolveRequest is the body of a stateless resolve.
type ResolveRequest struct {
	Search        string `json:"search"`
	SortField     string `json:"sort_field"`
	SortDirection string `json:"sort_direction"`
	PageSize      *int   `json:"page_size"`
	Page          int    `json:"page"`

	// Display adds formatted cells to the response.
	Display bool `json:"display"`
}

// ViewResponse is one resolved page.
type ViewResponse struct {
	Dataset         string          `json:"dataset"`
	SessionID       string          `json:"session_id,omitempty"`
	State           types.ViewState `json:"state"`
	PageSizeOptions []int           `json:"page_size_options,omitempty"`
	Result          *view.Result    `json:"result"`
	Headers         []string        `json:"headers,omitempty"`
	Display         [][]string      `json:"display,omitempty"`
	RequestID       string          `json:"request_id"`
}

// CreateSessionRequest opens a session over a dataset.
type CreateSessionRequest struct {
	Dataset string `json:"dataset"`
	Display bool   `json:"display"`
}

// EventRequest is a user event applied to a session.
type EventRequest struct {
	session.Event
	Display bool `json:"display"`
}

// StatsResponse reports usage and cache counters.
type StatsResponse struct {
	Views    observability.Snapshot `json:"views"`
	Memo     view.MemoStats         `json:"memo"`
	Sessions int                    `json:"sessions"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	list := h.registry.List()
	infos := make([]dataset.Info, len(list))
	for i, ds := range list {
		infos[i] = ds.Info()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"datasets":   infos,
		"request_id": GetRequestID(r.Context()),
	})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	name := r.PathValue("name")

	var req ResolveRequest
	if !decodeBody(w, r, &req, requestID) {
		return
	}

	ds, err := h.registry.Get(name)
	if err != nil {
		writeGridError(w, err, requestID)
		return
	}

	state, err := req.state(h.defaultPageSize)
	if err != nil {
		h.recordError(name)
		writeGridError(w, err, requestID)
		return
	}

	var res *view.Result
	if h.memo != nil {
		res, err = h.memo.Resolve(ds.Version, ds.Rows, ds.Definition, state)
	} else {
		res, err = view.ResolveView(ds.Rows, ds.Definition, state)
	}
	if err != nil {
		h.recordError(name)
		writeGridError(w, err, requestID)
		return
	}
	if h.stats != nil {
		h.stats.RecordResolve(name, state)
	}

	state.CurrentPage = res.CurrentPage
	resp := ViewResponse{
		Dataset:   name,
		State:     state,
		Result:    res,
		RequestID: requestID,
	}
	if req.Display {
		resp.Headers = view.Headers(ds.Definition.Columns)
		resp.Display = view.Display(res.Rows, ds.Definition.Columns)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (req ResolveRequest) state(defaultPageSize int) (types.ViewState, error) {
	dir, err := types.ParseSortDirection(req.SortDirection)
	if err != nil {
		return types.ViewState{}, gerrors.NewValidationError(gerrors.CodeInvalidConfiguration, err.Error())
	}

	state := types.NewViewState(defaultPageSize)
	if req.PageSize != nil {
		state.PageSize = *req.PageSize
	}
	if req.Page != 0 {
		state.CurrentPage = req.Page
	}
	state.SearchQuery = req.Search
	state.SortField = req.SortField
	state.SortDirection = dir
	return state, nil
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateSessionRequest
	if !decodeBody(w, r, &req, requestID) {
		return
	}
	if req.Dataset == "" {
		writeError(w, http.StatusBadRequest, "dataset is required", gerrors.CodeInvalidConfiguration, requestID)
		return
	}

	page, err := h.sessions.Create(req.Dataset)
	if err != nil {
		writeGridError(w, err, requestID)
		return
	}
	h.logger.Debug("session opened", zap.String("session", page.SessionID), zap.String("request_id", requestID))
	h.writePage(w, http.StatusCreated, page, req.Display, requestID)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	page, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeGridError(w, err, requestID)
		return
	}
	display, _ := strconv.ParseBool(r.URL.Query().Get("display"))
	h.writePage(w, http.StatusOK, page, display, requestID)
}

func (h *Handler) handleSessionEvent(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req EventRequest
	if !decodeBody(w, r, &req, requestID) {
		return
	}

	page, err := h.sessions.Apply(r.PathValue("id"), req.Event)
	if err != nil {
		writeGridError(w, err, requestID)
		return
	}
	h.writePage(w, http.StatusOK, page, req.Display, requestID)
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if err := h.sessions.Close(r.PathValue("id")); err != nil {
		writeGridError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Sessions: h.sessions.Len()}
	if h.stats != nil {
		resp.Views = h.stats.Snapshot(10)
	}
	if h.memo != nil {
		resp.Memo = h.memo.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writePage(w http.ResponseWriter, status int, page *session.Page, display bool, requestID string) {
	resp := ViewResponse{
		Dataset:         page.Dataset,
		SessionID:       page.SessionID,
		State:           page.State,
		PageSizeOptions: page.PageSizeOptions,
		Result:          page.Result,
		RequestID:       requestID,
	}
	if display {
		if ds, err := h.registry.Get(page.Dataset); err == nil {
			resp.Headers = view.Headers(ds.Definition.Columns)
			resp.Display = view.Display(page.Result.Rows, ds.Definition.Columns)
		}
	}
	writeJSON(w, status, resp)
}

func (h *Handler) recordError(name string) {
	if h.stats != nil {
		h.stats.RecordError(name)
	}
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, requestID string) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		// Chunked requests carry no length, so emptiness shows up here.
		if errors.Is(err, io.EOF) {
			return true
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), gerrors.CodeInvalidConfiguration, requestID)
		return false
	}
	return true
}
