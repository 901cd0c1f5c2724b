package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/propgrid/propgrid/internal/dataset"
	gerrors "github.com/propgrid/propgrid/internal/errors"
	"github.com/propgrid/propgrid/internal/observability"
	"github.com/propgrid/propgrid/internal/session"
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Options configures a ViewServer.
type Options struct {
	Registry        *dataset.Registry
	Sessions        *session.Manager
	Memo            *view.Memo
	Stats           *observability.ViewStats
	DefaultPageSize int
	Logger          *zap.Logger
}

// ViewServer implements ViewServiceServer.
type ViewServer struct {
	registry        *dataset.Registry
	sessions        *session.Manager
	memo            *view.Memo
	stats           *observability.ViewStats
	defaultPageSize int
	logger          *zap.Logger
}

// NewViewServer creates a gRPC view server.
func NewViewServer(opts Options) *ViewServer {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = view.DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &ViewServer{
		registry:        opts.Registry,
		sessions:        opts.Sessions,
		memo:            opts.Memo,
		stats:           opts.Stats,
		defaultPageSize: opts.DefaultPageSize,
		logger:          opts.Logger,
	}
}

type resolveRequest struct {
	Dataset       string `json:"dataset"`
	Search        string `json:"search"`
	SortField     string `json:"sort_field"`
	SortDirection string `json:"sort_direction"`
	PageSize      *int   `json:"page_size"`
	Page          int    `json:"page"`
}

type viewResponse struct {
	Dataset         string          `json:"dataset"`
	SessionID       string          `json:"session_id,omitempty"`
	State           types.ViewState `json:"state"`
	PageSizeOptions []int           `json:"page_size_options,omitempty"`
	Result          *view.Result    `json:"result"`
	Display         [][]string      `json:"display"`
	RequestID       string          `json:"request_id"`
}

type sessionRequest struct {
	Dataset   string `json:"dataset"`
	SessionID string `json:"session_id"`
	session.Event
}

// Resolve implements ViewServiceServer.
func (s *ViewServer) Resolve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req resolveRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}

	ds, err := s.registry.Get(req.Dataset)
	if err != nil {
		return nil, toStatus(err)
	}

	dir, err := types.ParseSortDirection(req.SortDirection)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	state := types.NewViewState(s.defaultPageSize)
	if req.PageSize != nil {
		state.PageSize = *req.PageSize
	}
	if req.Page != 0 {
		state.CurrentPage = req.Page
	}
	state.SearchQuery = req.Search
	state.SortField = req.SortField
	state.SortDirection = dir

	var res *view.Result
	if s.memo != nil {
		res, err = s.memo.Resolve(ds.Version, ds.Rows, ds.Definition, state)
	} else {
		res, err = view.ResolveView(ds.Rows, ds.Definition, state)
	}
	if err != nil {
		if s.stats != nil {
			s.stats.RecordError(ds.Name)
		}
		return nil, toStatus(err)
	}
	if s.stats != nil {
		s.stats.RecordResolve(ds.Name, state)
	}

	state.CurrentPage = res.CurrentPage
	return toStruct(viewResponse{
		Dataset:   ds.Name,
		State:     state,
		Result:    res,
		Display:   view.Display(res.Rows, ds.Definition.Columns),
		RequestID: requestIDFrom(ctx),
	})
}

// ListDatasets implements ViewServiceServer.
func (s *ViewServer) ListDatasets(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	list := s.registry.List()
	infos := make([]dataset.Info, len(list))
	for i, ds := range list {
		infos[i] = ds.Info()
	}
	return toStruct(map[string]interface{}{
		"datasets":   infos,
		"request_id": requestIDFrom(ctx),
	})
}

// CreateSession implements ViewServiceServer.
func (s *ViewServer) CreateSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req sessionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if req.Dataset == "" {
		return nil, status.Error(codes.InvalidArgument, "dataset is required")
	}

	page, err := s.sessions.Create(req.Dataset)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.pageStruct(ctx, page)
}

// ApplyEvent implements ViewServiceServer.
func (s *ViewServer) ApplyEvent(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req sessionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if req.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}

	page, err := s.sessions.Apply(req.SessionID, req.Event)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.pageStruct(ctx, page)
}

// CloseSession implements ViewServiceServer.
func (s *ViewServer) CloseSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req sessionRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	if err := s.sessions.Close(req.SessionID); err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{
		"session_id": req.SessionID,
		"request_id": requestIDFrom(ctx),
	})
}

func (s *ViewServer) pageStruct(ctx context.Context, page *session.Page) (*structpb.Struct, error) {
	resp := viewResponse{
		Dataset:         page.Dataset,
		SessionID:       page.SessionID,
		State:           page.State,
		PageSizeOptions: page.PageSizeOptions,
		Result:          page.Result,
		RequestID:       requestIDFrom(ctx),
	}
	if ds, err := s.registry.Get(page.Dataset); err == nil {
		resp.Display = view.Display(page.Result.Rows, ds.Definition.Columns)
	}
	return toStruct(resp)
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case gerrors.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case gerrors.IsInvalidInput(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func fromStruct(in *structpb.Struct, v interface{}) error {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return extractRequestID(ctx)
}

// extractRequestID extracts or generates a request ID from the gRPC context.
func extractRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 {
			return ids[0]
		}
	}
	return uuid.New().String()
}

// UnaryInterceptor assigns request ids and logs every call.
func UnaryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		requestID := extractRequestID(ctx)
		ctx = context.WithValue(ctx, requestIDKey{}, requestID)

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("grpc handler panic",
					zap.String("method", info.FullMethod),
					zap.Any("panic", rec),
					zap.String("request_id", requestID))
				err = status.Error(codes.Internal, fmt.Sprintf("internal error (request %s)", requestID))
			}
		}()

		resp, err = handler(ctx, req)
		logger.Info("rpc",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.String("request_id", requestID))
		return resp, err
	}
}
