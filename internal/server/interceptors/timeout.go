package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// TimeoutUnary returns a unary server interceptor that bounds each RPC by d unless the
// caller already set an earlier deadline. d <= 0 disables it.
func TimeoutUnary(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if d <= 0 {
			return handler(ctx, req)
		}
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= d {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return handler(ctx, req)
	}
}
