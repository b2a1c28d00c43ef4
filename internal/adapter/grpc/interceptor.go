package grpc

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// healthPrefix is left open so orchestrators can probe without a token
const healthPrefix = "/grpc.health.v1.Health/"

// AuthInterceptor returns a gRPC unary server interceptor that validates
// the authorization token from request metadata.
// If the token is missing or invalid, it returns status.Unauthenticated.
// If valid, it calls the handler with the original context.
// Health checks skip validation.
func AuthInterceptor(validToken string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, healthPrefix) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		token := strings.TrimPrefix(authHeaders[0], "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(validToken)) != 1 {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		return handler(ctx, req)
	}
}

// LoggingInterceptor returns a gRPC unary server interceptor that logs every
// call with its status code and duration. Server-side failures log at error
// level, client mistakes at warn level.
func LoggingInterceptor(logger logrus.FieldLogger) grpc.UnaryServerInterceptor {
	logger = logger.WithField("component", "grpc")

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		entry := logger.WithFields(logrus.Fields{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": time.Since(start).Milliseconds(),
		})

		switch code {
		case codes.OK:
			entry.Debug("rpc handled")
		case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
			entry.WithError(err).Error("rpc failed")
		default:
			entry.WithError(err).Warn("rpc rejected")
		}

		return resp, err
	}
}
