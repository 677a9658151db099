package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/healthz/secret"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HEALTHZ"

// Load reads the file at path (none when empty), applies environment
// overrides, resolves secrets relative to the file's directory and
// validates the result.
func Load(ctx context.Context, path string) (Config, error) {
	cfg := Default()
	dir := ""

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrLoad, err)
		}
		if cfg, err = Parse(data); err != nil {
			return Config{}, err
		}
		dir = filepath.Dir(path)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Resolve(ctx, secret.DefaultResolver(dir)); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from HEALTHZ_* environment variables. Unset
// variables leave fields untouched.
func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return nil
}

// Resolve expands and resolves every credential and URL field.
func (c *Config) Resolve(ctx context.Context, r *secret.Resolver) error {
	var err error
	if c.Auth.JWTSecret, err = r.ResolveValue(ctx, c.Auth.JWTSecret); err != nil {
		return fmt.Errorf("%w: auth.jwt_secret: %w", ErrInvalidConfig, err)
	}
	if c.Auth.APIKeys, err = r.ResolveSlice(ctx, c.Auth.APIKeys); err != nil {
		return fmt.Errorf("%w: auth.api_keys: %w", ErrInvalidConfig, err)
	}
	for i := range c.Downstreams {
		d := &c.Downstreams[i]
		if d.URL, err = r.ResolveValue(ctx, d.URL); err != nil {
			return fmt.Errorf("%w: downstreams[%s].url: %w", ErrInvalidConfig, d.Name, err)
		}
		if d.BearerToken, err = r.ResolveValue(ctx, d.BearerToken); err != nil {
			return fmt.Errorf("%w: downstreams[%s].bearer_token: %w", ErrInvalidConfig, d.Name, err)
		}
	}
	return nil
}
