package rpc_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oggyb/spark/internal/rpc"
)

type fakeFeed struct{}

func (fakeFeed) GetFeed(_ context.Context, req *rpc.GetFeedRequest) (*rpc.FeedReply, error) {
	if req.UserID == "" {
		return nil, status.Error(codes.InvalidArgument, "userId is required")
	}
	return &rpc.FeedReply{
		Candidates: []rpc.UserView{{ID: "c1", FirstName: "Ana"}},
		Total:      3,
	}, nil
}

type fakeNotifications struct {
	marked string
}

func (f *fakeNotifications) ListNotifications(context.Context, *rpc.ListNotificationsRequest) (*rpc.NotificationsReply, error) {
	return &rpc.NotificationsReply{}, nil
}

func (f *fakeNotifications) MarkAllNotificationsRead(_ context.Context, req *rpc.UserIDRequest) (*emptypb.Empty, error) {
	f.marked = req.UserID
	return &emptypb.Empty{}, nil
}

func (f *fakeNotifications) CountUnreadNotifications(context.Context, *rpc.UserIDRequest) (*rpc.CountReply, error) {
	return &rpc.CountReply{Count: 4}, nil
}

func dial(t *testing.T, register func(s *grpc.Server), opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	register(s)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		rpc.DialOption(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestJSONCodec_UnaryCall(t *testing.T) {
	conn := dial(t, func(s *grpc.Server) { rpc.RegisterFeedServer(s, fakeFeed{}) })

	reply, err := rpc.Invoke[rpc.FeedReply](context.Background(), conn, rpc.FeedServiceName, "GetFeed",
		&rpc.GetFeedRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), reply.Total)
	require.Len(t, reply.Candidates, 1)
	assert.Equal(t, "Ana", reply.Candidates[0].FirstName)
}

func TestJSONCodec_StatusErrorsPropagate(t *testing.T) {
	conn := dial(t, func(s *grpc.Server) { rpc.RegisterFeedServer(s, fakeFeed{}) })

	_, err := rpc.Invoke[rpc.FeedReply](context.Background(), conn, rpc.FeedServiceName, "GetFeed",
		&rpc.GetFeedRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestJSONCodec_EmptyReply(t *testing.T) {
	fake := &fakeNotifications{}
	conn := dial(t, func(s *grpc.Server) { rpc.RegisterNotificationServer(s, fake) })

	_, err := rpc.Invoke[emptypb.Empty](context.Background(), conn, rpc.NotificationServiceName,
		"MarkAllNotificationsRead", &rpc.UserIDRequest{UserID: "u9"})
	require.NoError(t, err)
	assert.Equal(t, "u9", fake.marked)

	count, err := rpc.Invoke[rpc.CountReply](context.Background(), conn, rpc.NotificationServiceName,
		"CountUnreadNotifications", &rpc.UserIDRequest{UserID: "u9"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), count.Count)
}

func TestUnaryMethod_RunsInterceptor(t *testing.T) {
	var seen string
	interceptor := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return h(ctx, req)
	}
	conn := dial(t, func(s *grpc.Server) { rpc.RegisterFeedServer(s, fakeFeed{}) }, grpc.UnaryInterceptor(interceptor))

	_, err := rpc.Invoke[rpc.FeedReply](context.Background(), conn, rpc.FeedServiceName, "GetFeed",
		&rpc.GetFeedRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "/spark.v1.FeedService/GetFeed", seen)
}
