package logger

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation configures a size-rotated log file.
type Rotation struct {
	Filename   string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Writer opens the rotated file. Nil when no file name is set.
func (r Rotation) Writer() io.WriteCloser {
	if r.Filename == "" {
		return nil
	}
	size := r.MaxSizeMB
	if size == 0 {
		size = 100
	}
	return &lumberjack.Logger{
		Filename:   r.Filename,
		MaxSize:    size,
		MaxBackups: r.MaxBackups,
		MaxAge:     r.MaxAgeDays,
		Compress:   r.Compress,
		LocalTime:  true,
	}
}
