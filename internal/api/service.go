package api

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "chatguard.v1.ContactFilter"

// Full method names.
const (
	MethodEvaluate = "/" + ServiceName + "/Evaluate"
	MethodRecord   = "/" + ServiceName + "/Record"
	MethodReset    = "/" + ServiceName + "/Reset"
)

// ContactFilterServer is implemented by the gRPC host. Messages travel as
// google.protobuf.Struct carrying the JSON shapes in types.go.
type ContactFilterServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Record(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the ContactFilter service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ContactFilterServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unary(MethodEvaluate, ContactFilterServer.Evaluate)},
		{MethodName: "Record", Handler: unary(MethodRecord, ContactFilterServer.Record)},
		{MethodName: "Reset", Handler: unary(MethodReset, ContactFilterServer.Reset)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chatguard/v1/contact_filter.proto",
}

// RegisterContactFilterServer registers srv on s.
func RegisterContactFilterServer(s grpc.ServiceRegistrar, srv ContactFilterServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type call func(ContactFilterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn call) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(ContactFilterServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(ContactFilterServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ContactFilterClient calls the service over a gRPC connection.
type ContactFilterClient struct {
	cc grpc.ClientConnInterface
}

// NewContactFilterClient wraps cc.
func NewContactFilterClient(cc grpc.ClientConnInterface) *ContactFilterClient {
	return &ContactFilterClient{cc: cc}
}

// Evaluate calls the Evaluate RPC.
func (c *ContactFilterClient) Evaluate(ctx context.Context, req EvalRequest, opts ...grpc.CallOption) (EvalResponse, error) {
	var resp EvalResponse
	err := c.invoke(ctx, MethodEvaluate, req, &resp, opts...)
	return resp, err
}

// Record calls the Record RPC.
func (c *ContactFilterClient) Record(ctx context.Context, req RecordRequest, opts ...grpc.CallOption) error {
	return c.invoke(ctx, MethodRecord, req, &Ack{}, opts...)
}

// Reset calls the Reset RPC.
func (c *ContactFilterClient) Reset(ctx context.Context, req ResetRequest, opts ...grpc.CallOption) error {
	return c.invoke(ctx, MethodReset, req, &Ack{}, opts...)
}

func (c *ContactFilterClient) invoke(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return err
	}
	return Decode(out, resp)
}

// Encode converts a JSON-tagged value into a Struct.
func Encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	s := new(structpb.Struct)
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return s, nil
}

// Decode fills v from a Struct using v's JSON tags.
func Decode(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
