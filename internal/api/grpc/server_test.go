package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/propgrid/propgrid/internal/dataset"
	"github.com/propgrid/propgrid/internal/observability"
	"github.com/propgrid/propgrid/internal/session"
	"github.com/propgrid/propgrid/internal/view"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	reg := dataset.NewRegistry(nil)
	if err := reg.Add(dataset.Properties()); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	memo := view.NewMemo(16)
	stats := observability.NewViewStats(time.Hour)
	sessions := session.NewManager(reg, memo, stats, session.Options{PageSizeOptions: view.DefaultPageSizeOptions}, nil)

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryInterceptor(zap.NewNop())))
	RegisterViewServiceServer(srv, NewViewServer(Options{
		Registry: reg,
		Sessions: sessions,
		Memo:     memo,
		Stats:    stats,
	}))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial bufnet: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return NewClient(conn)
}

func mustStruct(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct failed: %v", err)
	}
	return s
}

func result(t *testing.T, s *structpb.Struct) map[string]interface{} {
	t.Helper()
	res, ok := s.AsMap()["result"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no result: %v", s.AsMap())
	}
	return res
}

func TestResolve(t *testing.T) {
	client := newTestClient(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-request-id", "grpc-req-1")

	resp, err := client.Resolve(ctx, mustStruct(t, map[string]interface{}{
		"dataset":    "properties",
		"search":     "Portland",
		"sort_field": "leaseCount",
		"page_size":  5,
	}))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	res := result(t, resp)
	if res["total_filtered"] != float64(7) || res["total_pages"] != float64(2) {
		t.Errorf("unexpected metadata %v", res)
	}
	rows := res["rows"].([]interface{})
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	first := rows[0].(map[string]interface{})
	if first["leaseCount"] != float64(1) {
		t.Errorf("expected ascending lease counts, got first %v", first["leaseCount"])
	}
	if resp.AsMap()["request_id"] != "grpc-req-1" {
		t.Errorf("expected propagated request id, got %v", resp.AsMap()["request_id"])
	}
	display := resp.AsMap()["display"].([]interface{})
	if len(display) != 5 {
		t.Errorf("expected 5 display rows, got %d", len(display))
	}
}

func TestResolve_Errors(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  map[string]interface{}
		code codes.Code
	}{
		{"zero page size", map[string]interface{}{"dataset": "properties", "page_size": 0}, codes.InvalidArgument},
		{"unsortable column", map[string]interface{}{"dataset": "properties", "sort_field": "address.street"}, codes.InvalidArgument},
		{"bad direction", map[string]interface{}{"dataset": "properties", "sort_field": "name", "sort_direction": "down"}, codes.InvalidArgument},
		{"fractional page size", map[string]interface{}{"dataset": "properties", "page_size": 2.5}, codes.InvalidArgument},
		{"unknown dataset", map[string]interface{}{"dataset": "tenants"}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Resolve(ctx, mustStruct(t, tt.req))
			if status.Code(err) != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestListDatasets(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.ListDatasets(context.Background(), &structpb.Struct{})
	if err != nil {
		t.Fatalf("ListDatasets failed: %v", err)
	}
	list := resp.AsMap()["datasets"].([]interface{})
	if len(list) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(list))
	}
	info := list[0].(map[string]interface{})
	if info["name"] != "properties" || info["row_count"] != float64(12) {
		t.Errorf("unexpected dataset info %v", info)
	}
}

func TestSessions(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	resp, err := client.CreateSession(ctx, mustStruct(t, map[string]interface{}{"dataset": "properties"}))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	id, _ := resp.AsMap()["session_id"].(string)
	if id == "" {
		t.Fatal("expected a session id")
	}

	resp, err = client.ApplyEvent(ctx, mustStruct(t, map[string]interface{}{
		"session_id": id,
		"type":       "page",
		"page":       7,
	}))
	if err != nil {
		t.Fatalf("ApplyEvent failed: %v", err)
	}
	if got := result(t, resp)["current_page"]; got != float64(2) {
		t.Errorf("expected clamped page 2, got %v", got)
	}

	_, err = client.ApplyEvent(ctx, mustStruct(t, map[string]interface{}{
		"session_id": id,
		"type":       "page_size",
		"page_size":  7,
	}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for page size outside options, got %v", err)
	}

	if _, err := client.CloseSession(ctx, mustStruct(t, map[string]interface{}{"session_id": id})); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	_, err = client.ApplyEvent(ctx, mustStruct(t, map[string]interface{}{"session_id": id, "type": "search"}))
	if status.Code(err) != codes.NotFound {
		t.Errorf("expected NotFound after close, got %v", err)
	}

	if _, err := client.CreateSession(ctx, &structpb.Struct{}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument without dataset, got %v", err)
	}
}
