package core

import (
	"io"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/waveofmymind/simple-db/dialect"
	"github.com/waveofmymind/simple-db/logger"
	"github.com/waveofmymind/simple-db/pool"
)

// LogOptions configure the logger built by Open when none is injected.
type LogOptions struct {
	Level           string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=silent error warn info debug"`
	Format          string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
	logger.Rotation `mapstructure:",squash" yaml:",inline"`
}

// Options defines the configuration of a DB.
type Options struct {
	Driver   string            `mapstructure:"driver" yaml:"driver" validate:"required,oneof=mysql postgres pgx sqlite3"`
	Host     string            `mapstructure:"host" yaml:"host" validate:"required_unless=Driver sqlite3"`
	Port     int               `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
	User     string            `mapstructure:"user" yaml:"user"`
	Password string            `mapstructure:"password" yaml:"password"`
	Database string            `mapstructure:"database" yaml:"database" validate:"required"`
	Params   map[string]string `mapstructure:"params" yaml:"params"`

	// PoolSize is the fixed number of sessions kept open.
	PoolSize      int           `mapstructure:"pool_size" yaml:"pool_size" validate:"gte=1"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"gt=0"`
	CheckInterval time.Duration `mapstructure:"check_interval" yaml:"check_interval" validate:"gt=0"`
	// KeyColumn is the generated key read back by inserts.
	KeyColumn string `mapstructure:"key_column" yaml:"key_column" validate:"required"`
	// DevMode logs every statement before it runs.
	DevMode bool `mapstructure:"dev_mode" yaml:"dev_mode"`

	Log LogOptions `mapstructure:"log" yaml:"log"`

	Clock  clockwork.Clock `mapstructure:"-" yaml:"-" validate:"-"`
	Logger logger.Logger   `mapstructure:"-" yaml:"-" validate:"-"`
}

// DefaultOptions returns options with every optional field filled in.
func DefaultOptions() *Options {
	return &Options{
		Driver:        "mysql",
		Host:          "localhost",
		PoolSize:      10,
		IdleTimeout:   pool.DefaultIdleTimeout,
		CheckInterval: pool.DefaultCheckInterval,
		KeyColumn:     "id",
		Log: LogOptions{
			Level:  "info",
			Format: string(logger.LogFormatText),
		},
	}
}

func (o *Options) params() dialect.Params {
	return dialect.Params{
		Host:     o.Host,
		Port:     o.Port,
		User:     o.User,
		Password: o.Password,
		Database: o.Database,
		Extra:    o.Params,
	}
}

// buildLogger returns the injected logger or one built from Log. The
// closer, when not nil, owns the log file.
func (o *Options) buildLogger() (logger.Logger, io.Closer, error) {
	if o.Logger != nil {
		return o.Logger, nil, nil
	}
	level, err := logger.ParseLevel(o.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	format := logger.LogFormat(o.Log.Format)
	if format == "" {
		format = logger.LogFormatText
	}
	l := logger.NewStdLogger()
	l.SetLevel(level)
	l.SetFormat(format)
	w := o.Log.Writer()
	if w == nil {
		return l, nil, nil
	}
	l.SetOutput(w)
	return l, w, nil
}
