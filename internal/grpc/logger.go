package grpc

import (
	"context"
	"fmt"

	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	grpclog "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
)

// InterceptorLogger adapts ports.LoggerPort to interceptor logger.
func InterceptorLogger(l ports.LoggerPort) grpclog.Logger {
	return grpclog.LoggerFunc(func(ctx context.Context, lvl grpclog.Level, msg string, fields ...any) {
		//Fields to map
		fieldsMap := make(map[string]interface{})
		for i := 0; i < len(fields); i += 2 {
			if i+1 < len(fields) {
				key := fmt.Sprintf("%v", fields[i])
				fieldsMap[key] = fields[i+1]
			}
		}

		switch lvl {
		case grpclog.LevelInfo:
			l.InfoGRPC(ctx, msg, fieldsMap)
		case grpclog.LevelWarn:
			l.WarnGRPC(ctx, msg, fieldsMap)
		case grpclog.LevelError:
			l.ErrorGRPC(ctx, msg, fieldsMap)
		default:
			l.DebugGRPC(ctx, msg, fieldsMap)
		}
	})
}
