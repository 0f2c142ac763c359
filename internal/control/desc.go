// Package control exposes the engine to CLI front-ends: a gRPC service
// (smartclip.v1.Control) and an HTTP/JSON gateway, multiplexed on the local
// IPC socket.
//
// Messages are protobuf well-known types (Struct, wrappers, Empty, HttpBody),
// so the service is described by hand rather than generated from a .proto.
package control

import (
	"context"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "smartclip.v1.Control"

// ControlServer is the server API of smartclip.v1.Control.
type ControlServer interface {
	// History lists entries. Request: {query, fuzzy, limit}.
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Select commits an entry. Request: {index, paste}.
	Select(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Copy(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// Paste returns the most recent entry as text/plain.
	Paste(context.Context, *emptypb.Empty) (*httpbody.HttpBody, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetSettings(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// ApplySettings merges the given keys into the current settings.
	ApplySettings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cancel(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	// Watch streams engine events. Request: {kinds: [...]}.
	Watch(*structpb.Struct, grpc.ServerStream) error
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary builds a MethodDesc whose handler decodes a *Req and calls call.
func unary[Req any, Resp any](name string, call func(ControlServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, ic grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if ic == nil {
				resp, err := call(srv.(ControlServer), ctx, in)
				return resp, err
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return ic(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				resp, err := call(srv.(ControlServer), ctx, req.(*Req))
				return resp, err
			})
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ControlServer).Watch(in, stream)
}

// ServiceDesc describes smartclip.v1.Control for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("History", ControlServer.History),
		unary("Select", ControlServer.Select),
		unary("Copy", ControlServer.Copy),
		unary("Paste", ControlServer.Paste),
		unary("Status", ControlServer.Status),
		unary("GetSettings", ControlServer.GetSettings),
		unary("ApplySettings", ControlServer.ApplySettings),
		unary("Cancel", ControlServer.Cancel),
	},
	Streams: []grpc.StreamDesc{{
		StreamName:    "Watch",
		Handler:       watchHandler,
		ServerStreams: true,
	}},
	Metadata: "smartclip/v1/control",
}
