package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Viper is a Config implementation backed by github.com/spf13/viper.
//
// Every key can be overridden from the environment by upper-casing it and
// replacing dots with underscores (client.gateway.base_url becomes
// CLIENT_GATEWAY_BASE_URL).
type Viper struct {
	v *viper.Viper
}

// Option customises NewViper.
type Option func(*options)

type options struct {
	defaults map[string]any
	optional bool
}

// WithDefaults registers fallback values for keys absent from the file.
func WithDefaults(defaults map[string]any) Option {
	return func(o *options) {
		o.defaults = defaults
	}
}

// WithOptionalFile tolerates a missing config file; defaults and the
// environment are used instead.
func WithOptionalFile() Option {
	return func(o *options) {
		o.optional = true
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewViper loads configuration from the given file path and watches it for changes.
//
// The config file type is inferred by Viper from the filename extension.
func NewViper(pathFile string, opts ...Option) (*Viper, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	for key, value := range o.defaults {
		v.SetDefault(key, value)
	}

	filename := path.Base(pathFile)
	v.AddConfigPath(path.Dir(pathFile))
	v.SetConfigName(strings.TrimSuffix(filename, path.Ext(filename)))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.optional && errors.As(err, &notFound) {
			return &Viper{v: v}, nil
		}
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		if err := v.ReadInConfig(); err != nil {
			slog.Error("config reload failed", "path", pathFile, "error", err)
			return
		}
		slog.Info("config success reloaded", "path", pathFile)
	})
	v.WatchConfig()

	return &Viper{v: v}, nil
}

// NewViperFromBytes loads configuration from memory and returns a Viper-backed Config.
// configType should be a format supported by Viper (e.g. "yaml", "json", "toml").
func NewViperFromBytes(configType string, data []byte) (*Viper, error) {
	if strings.TrimSpace(configType) == "" {
		return nil, errors.New("config type is required")
	}

	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &Viper{v: v}, nil
}

// GetBool returns the value for key as bool.
func (vc *Viper) GetBool(key string) bool {
	return vc.v.GetBool(key)
}

// GetInt returns the value for key as int.
func (vc *Viper) GetInt(key string) int {
	return vc.v.GetInt(key)
}

// GetInt64 returns the value for key as int64.
func (vc *Viper) GetInt64(key string) int64 {
	return vc.v.GetInt64(key)
}

// GetFloat64 returns the value for key as float64.
func (vc *Viper) GetFloat64(key string) float64 {
	return vc.v.GetFloat64(key)
}

// GetString returns the value for key as string.
func (vc *Viper) GetString(key string) string {
	return vc.v.GetString(key)
}

// GetSecond returns the value for key as seconds.
func (vc *Viper) GetSecond(key string) time.Duration {
	return time.Duration(vc.v.GetInt64(key)) * time.Second
}

// GetBinary returns the value for key decoded from base64.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}

	return data
}

// GetArray returns the value for key as a trimmed list without empty elements.
func (vc *Viper) GetArray(key string) []string {
	var items []string
	switch vc.v.Get(key).(type) {
	case nil:
		return nil
	case []any, []string:
		items = vc.v.GetStringSlice(key)
	default:
		items = strings.Split(vc.v.GetString(key), ",")
	}

	return lo.Compact(lo.Map(items, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}

// Close implements io.Closer for interface compatibility.
func (vc *Viper) Close() error {
	return nil
}
