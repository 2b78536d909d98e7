// Package config provides the layered key/value configuration used by tinyioc contexts.
// Values are looked up in order: environment, .env files, config file, defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andriiyaremenko/tinyioc"
)

var ErrKeyNotFound = errors.New("config key not found")

var _ tinyioc.ConfigProvider = new(Provider)

type options struct {
	defaults  map[string]any
	file      string
	envPrefix string
	envFiles  []string
}

type Option func(*options)

var (
	// Config file, format is taken from its extension (yaml, json, toml, ...).
	WithFile = func(path string) Option {
		return func(o *options) { o.file = path }
	}

	// .env files loaded into process environment. Missing files are skipped,
	// variables already set in the environment are kept.
	WithEnvFiles = func(paths ...string) Option {
		return func(o *options) { o.envFiles = append(o.envFiles, paths...) }
	}

	WithDefaults = func(defaults map[string]any) Option {
		return func(o *options) { o.defaults = defaults }
	}

	// Prefix of environment variables, "APP" makes "APP_WEB_ADDR" override "web.addr".
	WithEnvPrefix = func(prefix string) Option {
		return func(o *options) { o.envPrefix = prefix }
	}
)

// Provider is a configuration source backed by viper.
type Provider struct {
	v *viper.Viper
}

func New(opts ...Option) (*Provider, error) {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()

	for key, value := range o.defaults {
		v.SetDefault(key, value)
	}

	for _, file := range o.envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}

	if o.envPrefix != "" {
		v.SetEnvPrefix(o.envPrefix)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.file != "" {
		v.SetConfigFile(o.file)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", o.file, err)
		}
	}

	return &Provider{v: v}, nil
}

// Get returns value of key or defaultValue if key is not set.
func (p *Provider) Get(key string, defaultValue any) any {
	if !p.v.IsSet(key) {
		return defaultValue
	}

	return p.v.Get(key)
}

func (p *Provider) Has(key string) bool {
	return p.v.IsSet(key)
}

func (p *Provider) String(key, defaultValue string) string {
	if !p.v.IsSet(key) {
		return defaultValue
	}

	return p.v.GetString(key)
}

// Set overrides key for the lifetime of Provider.
func (p *Provider) Set(key string, value any) {
	p.v.Set(key, value)
}

// Decode decodes section key into target, string values are converted to target field types.
func (p *Provider) Decode(key string, target any) error {
	if !p.v.IsSet(key) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if err := p.v.UnmarshalKey(key, target, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return fmt.Errorf("unable to decode %s: %w", key, err)
	}

	return nil
}

func (p *Provider) AllSettings() map[string]any {
	return p.v.AllSettings()
}

// Path of the config file in use, empty without WithFile.
func (p *Provider) ConfigFileUsed() string {
	return p.v.ConfigFileUsed()
}
