// Package grpc exposes views over gRPC as propgrid.v1.ViewService.
//
// Messages are google.protobuf.Struct values carrying the same JSON shapes
// as the HTTP API, so the service needs no generated code: the service
// descriptor below is declared by hand.
package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "propgrid.v1.ViewService"

// Full method names.
const (
	ResolveMethod       = "/" + ServiceName + "/Resolve"
	ListDatasetsMethod  = "/" + ServiceName + "/ListDatasets"
	CreateSessionMethod = "/" + ServiceName + "/CreateSession"
	ApplyEventMethod    = "/" + ServiceName + "/ApplyEvent"
	CloseSessionMethod  = "/" + ServiceName + "/CloseSession"
)

// ViewServiceServer is the server API of propgrid.v1.ViewService.
type ViewServiceServer interface {
	Resolve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDatasets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structCall func(ViewServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ViewServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ViewServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc is the grpc.ServiceDesc for propgrid.v1.ViewService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ViewServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Resolve", Handler: unaryHandler(ResolveMethod, ViewServiceServer.Resolve)},
		{MethodName: "ListDatasets", Handler: unaryHandler(ListDatasetsMethod, ViewServiceServer.ListDatasets)},
		{MethodName: "CreateSession", Handler: unaryHandler(CreateSessionMethod, ViewServiceServer.CreateSession)},
		{MethodName: "ApplyEvent", Handler: unaryHandler(ApplyEventMethod, ViewServiceServer.ApplyEvent)},
		{MethodName: "CloseSession", Handler: unaryHandler(CloseSessionMethod, ViewServiceServer.CloseSession)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "propgrid/v1/view.proto",
}

// RegisterViewServiceServer registers srv with s.
func RegisterViewServiceServer(s grpc.ServiceRegistrar, srv ViewServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client is a ViewService client.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve resolves one page of a dataset without a session.
func (c *Client) Resolve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResolveMethod, in, opts...)
}

// ListDatasets lists the served datasets.
func (c *Client) ListDatasets(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListDatasetsMethod, in, opts...)
}

// CreateSession opens a view session.
func (c *Client) CreateSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CreateSessionMethod, in, opts...)
}

// ApplyEvent applies a user event to a session.
func (c *Client) ApplyEvent(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ApplyEventMethod, in, opts...)
}

// CloseSession ends a session.
func (c *Client) CloseSession(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, CloseSessionMethod, in, opts...)
}
