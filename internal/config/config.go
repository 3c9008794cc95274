// File: internal/config/config.go
// Brief: Workflow input resolution for the komodo-action CLI.

// Package config translates flag values, the process environment, and an
// optional config file into the validated inputs one run needs. Resolution
// order per field is flag > environment > file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Environment variables consulted when the matching flag is empty.
const (
	EnvURL        = "KOMODO_URL"
	EnvAPIKey     = "KOMODO_API_KEY"
	EnvAPISecret  = "KOMODO_API_SECRET"
	EnvConfigFile = "KOMODO_CONFIG"
)

// ErrMissingConnection is returned when any of the three connection settings
// is absent on a non-dry run. It fires before any network activity.
var ErrMissingConnection = errors.New(
	"missing komodo connection settings: provide --komodo-url, --api-key, and --api-secret " +
		"(or KOMODO_URL, KOMODO_API_KEY, KOMODO_API_SECRET)")

// Options holds all CLI configuration for one run.
type Options struct {
	Kind       string
	Patterns   string
	DryRunRaw  string
	URL        string
	APIKey     string
	APISecret  string
	ConfigFile string

	LogLevel     string
	PollInterval time.Duration
	Timeout      time.Duration

	// Derived by Resolve.
	Targets []string
	DryRun  bool
}

// NewOptions returns Options with defaults applied.
func NewOptions() *Options {
	return &Options{
		LogLevel:     "info",
		PollInterval: 2 * time.Second,
	}
}

// BindFlags attaches the run flags to the given FlagSet.
func (o *Options) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Kind, "kind", "", "Operation kind: stack or procedure (validated at dispatch time)")
	fs.StringVar(&o.Patterns, "patterns", "", "JSON-encoded array of target names, e.g. '[\"web\",\"worker\"]'")
	fs.StringVar(&o.DryRunRaw, "dry-run", "", "Resolve inputs without calling the orchestrator (\"true\" enables)")
	fs.StringVar(&o.URL, "komodo-url", "", "Base URL of the Komodo instance (falls back to "+EnvURL+")")
	fs.StringVar(&o.APIKey, "api-key", "", "Komodo API key (falls back to "+EnvAPIKey+")")
	fs.StringVar(&o.APISecret, "api-secret", "", "Komodo API secret (falls back to "+EnvAPISecret+")")
	fs.StringVar(&o.ConfigFile, "config", "", "Optional JSON or YAML file with connection settings (falls back to "+EnvConfigFile+")")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level (debug, info, warn, error)")
	fs.DurationVar(&o.PollInterval, "poll-interval", o.PollInterval, "Delay between update status polls")
	fs.DurationVar(&o.Timeout, "timeout", 0, "Overall run deadline; 0 waits indefinitely")
}

// NewEnvSnapshot builds the read-only environment view Resolve consults.
func NewEnvSnapshot() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// Resolve fills the derived fields and applies the per-field fallback chain.
// The kind value is accepted as-is here; the dispatcher rejects unsupported
// kinds when the first target is dispatched.
func (o *Options) Resolve(env *viper.Viper) error {
	file, err := o.loadFileConfig(env)
	if err != nil {
		return err
	}
	o.URL = resolve(o.URL, EnvURL, env, file.URL)
	o.APIKey = resolve(o.APIKey, EnvAPIKey, env, file.APIKey)
	o.APISecret = resolve(o.APISecret, EnvAPISecret, env, file.APISecret)
	o.DryRun = parseDryRun(o.DryRunRaw)

	targets, err := parseTargets(o.Patterns)
	if err != nil {
		return err
	}
	o.Targets = targets

	if !o.DryRun && (o.URL == "" || o.APIKey == "" || o.APISecret == "") {
		return ErrMissingConnection
	}
	return nil
}

// resolve returns the explicit value when present, otherwise the environment
// snapshot value, otherwise the config-file value. Each field resolves
// independently.
func resolve(explicit, key string, env *viper.Viper, fileValue string) string {
	if v := strings.TrimSpace(explicit); v != "" {
		return v
	}
	if v := strings.TrimSpace(env.GetString(key)); v != "" {
		return v
	}
	return strings.TrimSpace(fileValue)
}

// parseDryRun treats the literal string "true" (any case) as enabled;
// anything else, including empty, is a real run.
func parseDryRun(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), "true")
}

// parseTargets decodes the patterns input, which must be a JSON array of
// names. A JSON value of any other shape is a run failure.
func parseTargets(raw string) ([]string, error) {
	var targets []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &targets); err != nil {
		return nil, fmt.Errorf("parse patterns %q: expected a JSON array of names: %w", raw, err)
	}
	if targets == nil {
		return nil, fmt.Errorf("parse patterns %q: expected a JSON array of names, got null", raw)
	}
	return targets, nil
}
