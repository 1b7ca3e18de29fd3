package dispatchv1

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

const Notifier_PushOffer_FullMethodName = "/dispatch.v1.Notifier/PushOffer"

// NotifierClient is the client API for the Notifier service.
type NotifierClient interface {
	PushOffer(ctx context.Context, in *OfferPush, opts ...grpc.CallOption) (*PushAck, error)
}

type notifierClient struct {
	cc grpc.ClientConnInterface
}

func NewNotifierClient(cc grpc.ClientConnInterface) NotifierClient {
	return &notifierClient{cc}
}

func (c *notifierClient) PushOffer(ctx context.Context, in *OfferPush, opts ...grpc.CallOption) (*PushAck, error) {
	out := new(PushAck)
	// The JSON codec is this service's wire format, not a per-call choice.
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	err := c.cc.Invoke(ctx, Notifier_PushOffer_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NotifierServer is the server API for the Notifier service. All
// implementations must embed UnimplementedNotifierServer.
type NotifierServer interface {
	PushOffer(context.Context, *OfferPush) (*PushAck, error)
	mustEmbedUnimplementedNotifierServer()
}

// UnimplementedNotifierServer must be embedded for forward compatibility.
type UnimplementedNotifierServer struct{}

func (UnimplementedNotifierServer) PushOffer(context.Context, *OfferPush) (*PushAck, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PushOffer not implemented")
}
func (UnimplementedNotifierServer) mustEmbedUnimplementedNotifierServer() {}

func RegisterNotifierServer(s grpc.ServiceRegistrar, srv NotifierServer) {
	s.RegisterService(&Notifier_ServiceDesc, srv)
}

func _Notifier_PushOffer_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(OfferPush)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NotifierServer).PushOffer(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Notifier_PushOffer_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(NotifierServer).PushOffer(ctx, req.(*OfferPush))
	}
	return interceptor(ctx, in, info, handler)
}

// Notifier_ServiceDesc is the grpc.ServiceDesc for the Notifier service.
var Notifier_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "dispatch.v1.Notifier",
	HandlerType: (*NotifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PushOffer",
			Handler:    _Notifier_PushOffer_Handler,
		},
	},
	Streams: []grpc.StreamDesc{},
}
