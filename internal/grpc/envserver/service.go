package envserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gymenv.v1.EnvService"

// Method names of EnvService.
const (
	MethodMake   = "Make"
	MethodReset  = "Reset"
	MethodStep   = "Step"
	MethodRender = "Render"
	MethodClose  = "Close"
)

// EnvServiceServer is the server API for EnvService. Every method takes
// and returns a google.protobuf.Struct; the field layout of each message
// is documented on the Server methods.
type EnvServiceServer interface {
	Make(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Step(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Render(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Close(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterEnvServiceServer registers srv on s.
func RegisterEnvServiceServer(s grpc.ServiceRegistrar, srv EnvServiceServer) {
	s.RegisterService(&EnvService_ServiceDesc, srv)
}

// EnvService_ServiceDesc is the grpc.ServiceDesc for EnvService.
var EnvService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EnvServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodMake, EnvServiceServer.Make),
		unaryMethod(MethodReset, EnvServiceServer.Reset),
		unaryMethod(MethodStep, EnvServiceServer.Step),
		unaryMethod(MethodRender, EnvServiceServer.Render),
		unaryMethod(MethodClose, EnvServiceServer.Close),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gymenv/v1/env.proto",
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type unaryCall func(EnvServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EnvServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(EnvServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
