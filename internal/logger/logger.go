package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	ctxRequestID contextKey = "request_id"
	ctxUserID    contextKey = "user_id"
)

// Logger wraps zap.SugaredLogger so services depend on one concrete type
type Logger struct {
	*zap.SugaredLogger
}

// New builds a production logger, or a development one when level is "debug"
func New(level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// WithRequestID stores the request id for later log enrichment
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestID, requestID)
}

// WithUserID stores the authenticated user id for later log enrichment
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserID, userID)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxUserID).(string)
	return id
}

// WithContext returns a child logger carrying request_id and user_id when present
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var fields []interface{}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, "request_id", id)
	}
	if id := UserID(ctx); id != "" {
		fields = append(fields, "user_id", id)
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

// ginWriter adapts the logger to gin's io.Writer based debug output
type ginWriter struct {
	logger *Logger
}

// GinWriter returns an io.Writer for gin.DefaultWriter
func (l *Logger) GinWriter() *ginWriter {
	return &ginWriter{logger: l}
}

func (g *ginWriter) Write(p []byte) (int, error) {
	g.logger.Debug(string(p))
	return len(p), nil
}

// retryableHTTPLogger adapts the logger to go-retryablehttp's Logger interface
type retryableHTTPLogger struct {
	logger *Logger
}

// RetryableHTTPLogger returns a logger for retryablehttp.Client.Logger
func (l *Logger) RetryableHTTPLogger() *retryableHTTPLogger {
	return &retryableHTTPLogger{logger: l}
}

func (r *retryableHTTPLogger) Printf(format string, v ...interface{}) {
	r.logger.Debugf(format, v...)
}
