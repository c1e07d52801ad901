package ports

import "context"

type LoggerPort interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})

	DebugGRPC(ctx context.Context, msg string, fields map[string]interface{})
	InfoGRPC(ctx context.Context, msg string, fields map[string]interface{})
	WarnGRPC(ctx context.Context, msg string, fields map[string]interface{})
	ErrorGRPC(ctx context.Context, msg string, fields map[string]interface{})
}
