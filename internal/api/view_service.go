package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tourbook/internal/calendar"
	"tourbook/internal/service"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	viewServiceName = "tourbook.views.v1.ViewService"

	methodGetReservationList = "/" + viewServiceName + "/GetReservationList"
	methodGetPaymentReceipt  = "/" + viewServiceName + "/GetPaymentReceipt"
	methodGetMapView         = "/" + viewServiceName + "/GetMapView"
	methodSelectDate         = "/" + viewServiceName + "/SelectDate"
)

// ViewServiceServer serves the views over gRPC. Requests and responses are
// google.protobuf.Struct carrying the same fields as the HTTP JSON.
type ViewServiceServer interface {
	GetReservationList(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetPaymentReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetMapView(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SelectDate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type viewCall func(srv ViewServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call viewCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ViewServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ViewServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ViewServiceDesc registers ViewServiceServer on a grpc.Server.
var ViewServiceDesc = grpc.ServiceDesc{
	ServiceName: viewServiceName,
	HandlerType: (*ViewServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetReservationList", Handler: unaryHandler(methodGetReservationList, ViewServiceServer.GetReservationList)},
		{MethodName: "GetPaymentReceipt", Handler: unaryHandler(methodGetPaymentReceipt, ViewServiceServer.GetPaymentReceipt)},
		{MethodName: "GetMapView", Handler: unaryHandler(methodGetMapView, ViewServiceServer.GetMapView)},
		{MethodName: "SelectDate", Handler: unaryHandler(methodSelectDate, ViewServiceServer.SelectDate)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tourbook/views/v1/views.proto",
}

// ViewServiceClient calls ViewService.
type ViewServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewViewServiceClient(cc grpc.ClientConnInterface) *ViewServiceClient {
	return &ViewServiceClient{cc: cc}
}

func (c *ViewServiceClient) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ViewServiceClient) GetReservationList(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetReservationList, req, opts...)
}

func (c *ViewServiceClient) GetPaymentReceipt(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetPaymentReceipt, req, opts...)
}

func (c *ViewServiceClient) GetMapView(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetMapView, req, opts...)
}

func (c *ViewServiceClient) SelectDate(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodSelectDate, req, opts...)
}

// ViewService adapts Services to ViewServiceServer.
type ViewService struct {
	svc Services
}

func NewViewService(svc Services) *ViewService {
	return &ViewService{svc: svc}
}

func (s *ViewService) GetReservationList(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	view, err := s.svc.Reservations.List(ctx, stringField(req, "user_id"), stringField(req, "post_id"))
	if err != nil {
		return nil, statusFromError(err)
	}
	return toStruct(view)
}

func (s *ViewService) GetPaymentReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	view, err := s.svc.Payments.Receipt(ctx, stringField(req, "payment_id"))
	if err != nil {
		return nil, statusFromError(err)
	}
	return toStruct(view)
}

func (s *ViewService) GetMapView(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	day := 0
	if v, ok := req.GetFields()["day"]; ok {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue != float64(int(n.NumberValue)) {
			return nil, status.Error(codes.InvalidArgument, "day must be an integer")
		}
		day = int(n.NumberValue)
	}

	view, err := s.svc.Maps.View(ctx, stringField(req, "post_id"), day)
	if err != nil {
		return nil, statusFromError(err)
	}
	return toStruct(view)
}

// SelectDate applies one calendar click. A request without session_id
// starts a new session; the id comes back in the response.
func (s *ViewService) SelectDate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	day, err := calendar.ParseDate(stringField(req, "date"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	sessionID := stringField(req, "session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	view, err := s.svc.Selection.Click(ctx, sessionID, day)
	if err != nil {
		return nil, statusFromError(err)
	}
	return toStruct(view)
}

func stringField(req *structpb.Struct, name string) string {
	v, ok := req.GetFields()[name]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(k.StringValue)
	case *structpb.Value_NumberValue:
		return fmt.Sprintf("%.0f", k.NumberValue)
	default:
		return ""
	}
}

// toStruct converts a view through its JSON form so both transports emit
// the same field names.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode view")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode view")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode view")
	}
	return out, nil
}

func statusFromError(err error) error {
	var viewErr *service.ViewError
	switch {
	case errors.As(err, &viewErr):
		return status.Error(codes.Unavailable, viewErr.Message)
	case errors.Is(err, service.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, service.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
