// Package config loads DB options from YAML files, environment variables
// and .env files.
package config

import (
	"io"
	"io/fs"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/waveofmymind/simple-db/core"
)

// EnvPrefix prefixes every environment override, e.g. SIMPLEDB_POOL_SIZE
// or SIMPLEDB_LOG_LEVEL.
const EnvPrefix = "SIMPLEDB"

// keys lists every option key so that environment variables apply even
// when no file mentions them.
var keys = []string{
	"driver", "host", "port", "user", "password", "database",
	"pool_size", "idle_timeout", "check_interval", "key_column", "dev_mode",
	"log.level", "log.format", "log.file", "log.max_size_mb", "log.max_backups",
	"log.max_age_days", "log.compress",
}

var ErrConfigNotFound = errors.New("config file not found")

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads path, applies SIMPLEDB_* environment overrides on top of the
// defaults and validates the result. An empty path loads from the
// environment only.
func Load(path string) (*core.Options, error) {
	opts, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// Read is Load without validation, for callers that apply further
// overrides first.
func Read(path string) (*core.Options, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				return nil, errors.Wrapf(ErrConfigNotFound, "%s", path)
			}
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	opts := core.DefaultOptions()
	if err := v.Unmarshal(opts); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return opts, nil
}

// FromEnv is Load without a file.
func FromEnv() (*core.Options, error) {
	return Load("")
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "load %s", f)
		}
	}
	return nil
}

// Write renders opts as YAML with the password masked.
func Write(w io.Writer, opts *core.Options) error {
	masked := *opts
	if masked.Password != "" {
		masked.Password = "******"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&masked); err != nil {
		return errors.Wrap(err, "encode config")
	}
	return enc.Close()
}
