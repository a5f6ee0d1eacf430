package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/cTHE0/restaurant/pkg/errorbank"
)

func TestHealthOverBufconn(t *testing.T) {
	hs := NewHealth()
	server := NewServer(zap.NewNop(), hs)
	hs.SetServingStatus(OrderingService, healthpb.HealthCheckResponse_SERVING)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: OrderingService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	_, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestToStatusMapsAppErrors(t *testing.T) {
	assert.NoError(t, toStatus(nil))

	err := toStatus(errorbank.NotFound("order not found"))
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, "order not found", status.Convert(err).Message())

	err = toStatus(errorbank.Validation("bad"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	passthrough := status.Error(codes.Unavailable, "down")
	assert.Equal(t, passthrough, toStatus(passthrough))

	err = toStatus(errors.New("dsn=secret"))
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, err.Error(), "secret")
}
