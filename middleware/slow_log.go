package middleware

import (
	"context"
	"io"
	"time"

	"github.com/waveofmymind/simple-db/core"
	"github.com/waveofmymind/simple-db/logger"
)

// SlowLogMiddleware logs statements that take longer than Threshold.
type SlowLogMiddleware struct {
	Threshold time.Duration
	// File, when set, sends slow statements to a rotated file instead of
	// the DB logger.
	File logger.Rotation

	logger logger.Logger
	closer io.Closer
}

// NewSlowLog creates a new SlowLogMiddleware.
func NewSlowLog(threshold time.Duration, file logger.Rotation) *SlowLogMiddleware {
	return &SlowLogMiddleware{
		Threshold: threshold,
		File:      file,
	}
}

// SetOutput sends slow statements to w as JSON lines.
func (m *SlowLogMiddleware) SetOutput(w io.Writer) {
	m.logger = logger.New(w, logger.LogLevelWarn, logger.LogFormatJSON)
}

func (m *SlowLogMiddleware) Name() string {
	return "SlowLog"
}

func (m *SlowLogMiddleware) Init(db *core.DB) error {
	if m.logger != nil {
		return nil
	}
	if w := m.File.Writer(); w != nil {
		m.closer = w
		m.logger = logger.New(w, logger.LogLevelWarn, logger.LogFormatJSON)
		return nil
	}
	m.logger = db.Logger()
	return nil
}

func (m *SlowLogMiddleware) Shutdown() error {
	if m.closer != nil {
		return m.closer.Close()
	}
	return nil
}

func (m *SlowLogMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.Handler) (*core.Result, error) {
	start := time.Now()
	res, err := next(ctx, stmt)
	duration := time.Since(start)

	if duration > m.Threshold {
		fields := map[string]any{
			"kind":     stmt.Kind.String(),
			"duration": duration.String(),
			"args":     stmt.Args,
		}
		if res != nil {
			fields["rows"] = res.RowsAffected + int64(len(res.Rows))
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		m.logger.WithFields(fields).Warn("slow sql: %s", stmt.SQL)
	}
	return res, err
}
