package middleware

import (
	"context"
	"time"

	"github.com/waveofmymind/simple-db/core"
	"github.com/waveofmymind/simple-db/logger"
	"github.com/waveofmymind/simple-db/pool"
)

type traceKey struct{}

// WithRequestID tags statements run under ctx with id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// TracingMiddleware logs every statement at debug level together with the
// request id and pool owner found on the context.
type TracingMiddleware struct {
	logger logger.Logger
}

func NewTracing() *TracingMiddleware {
	return &TracingMiddleware{}
}

func (m *TracingMiddleware) Name() string {
	return "Tracing"
}

func (m *TracingMiddleware) Init(db *core.DB) error {
	if m.logger == nil {
		m.logger = db.Logger()
	}
	return nil
}

func (m *TracingMiddleware) Shutdown() error {
	return nil
}

// SetLogger overrides the DB logger.
func (m *TracingMiddleware) SetLogger(l logger.Logger) {
	m.logger = l
}

func (m *TracingMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.Handler) (*core.Result, error) {
	if !m.logger.Enabled(logger.LogLevelDebug) {
		return next(ctx, stmt)
	}

	fields := map[string]any{"kind": stmt.Kind.String()}
	if id, ok := ctx.Value(traceKey{}).(string); ok {
		fields["request_id"] = id
	}
	if owner, ok := pool.OwnerFrom(ctx); ok {
		fields["owner"] = string(owner)
	}
	if stmt.Conn != nil {
		fields["conn"] = stmt.Conn.ID()
	}

	start := time.Now()
	res, err := next(ctx, stmt)
	fields["duration"] = time.Since(start).String()
	if err != nil {
		fields["error"] = err.Error()
	}
	m.logger.WithFields(fields).Debug("%s", stmt.SQL)
	return res, err
}
