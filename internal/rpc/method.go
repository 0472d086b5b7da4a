package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// unaryMethod builds the grpc.MethodDesc that generated code would emit for one
// unary RPC. call is a method expression such as FeedServer.GetFeed.
func unaryMethod[S, Req, Resp any](
	service, method string,
	call func(S, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method

	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Invoke calls service/method on cc with the JSON codec and decodes the reply into a new Resp.
//
// Example:
//
//	reply, err := rpc.Invoke[rpc.FeedReply](ctx, conn, rpc.FeedServiceName, "GetFeed", &rpc.GetFeedRequest{UserID: id})
func Invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, "/"+service+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
