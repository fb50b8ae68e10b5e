package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath overrides the directory holding config.yaml.
	EnvConfigPath = "INSTILL_SYSTEM_CONFIG_PATH"
	// FileName is the name of the config file inside the config directory.
	FileName = "config.yaml"
	// DefaultAlias is preferred by Resolve when several instances are configured.
	DefaultAlias = "default"
)

var (
	// ErrUnknownInstance is returned when an alias is not present in the config.
	ErrUnknownInstance = errors.New("unknown instance alias")
	// ErrInvalidConfig wraps every decode and validation failure.
	ErrInvalidConfig = errors.New("invalid instill config")
)

// Instance describes one configured platform endpoint.
type Instance struct {
	// URL is the host[:port] of the instance, optionally with a grpc, grpcs,
	// http or https scheme.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Secure enables TLS with bearer credentials.
	Secure bool `json:"secure,omitempty" yaml:"secure,omitempty"`
	// Token is the API token sent with every call.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// Config maps instance aliases to their descriptors. It is backed by the
// config.yaml file it was loaded from; mutating methods save immediately.
type Config struct {
	Hosts map[string]*Instance `json:"hosts" yaml:"hosts"`

	dir string
	mu  sync.RWMutex
}

// DefaultDir returns $INSTILL_SYSTEM_CONFIG_PATH when set, otherwise the
// instill directory under the user config home (~/.config/instill on Linux).
func DefaultDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvConfigPath)); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, "instill")
}

// New returns an empty config that will be saved under dir.
func New(dir string) *Config {
	return &Config{Hosts: make(map[string]*Instance), dir: dir}
}

// Load reads <dir>/config.yaml. An empty dir means DefaultDir. A missing file
// yields an empty config; anything that does not decode or validate returns
// an error wrapping ErrInvalidConfig.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	cfg := New(dir)

	raw, err := os.ReadFile(cfg.Path())
	if errors.Is(err, os.ErrNotExist) {
		zap.L().Debug("no instill config found", zap.String("path", cfg.Path()))
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cfg.Path(), err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidConfig, cfg.Path(), err)
	}
	if cfg.Hosts == nil {
		cfg.Hosts = make(map[string]*Instance)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dir returns the directory the config is saved to.
func (c *Config) Dir() string {
	return c.dir
}

// Path returns the full path of the backing file.
func (c *Config) Path() string {
	return filepath.Join(c.dir, FileName)
}

// Validate checks every alias and instance. A grpcs or https scheme in an
// instance URL turns Secure on.
func (c *Config) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for alias, inst := range c.Hosts {
		if err := validateInstance(alias, inst); err != nil {
			return err
		}
	}
	return nil
}

func validateInstance(alias string, inst *Instance) error {
	if strings.TrimSpace(alias) == "" {
		return fmt.Errorf("%w: empty instance alias", ErrInvalidConfig)
	}
	if inst == nil {
		return fmt.Errorf("%w: instance %q has no settings", ErrInvalidConfig, alias)
	}
	if strings.TrimSpace(inst.URL) == "" {
		return fmt.Errorf("%w: instance %q has no url", ErrInvalidConfig, alias)
	}
	if !strings.Contains(inst.URL, "://") {
		return nil
	}
	u, err := url.Parse(inst.URL)
	if err != nil {
		return fmt.Errorf("%w: instance %q: %v", ErrInvalidConfig, alias, err)
	}
	switch u.Scheme {
	case "grpc", "http":
	case "grpcs", "https":
		inst.Secure = true
	default:
		return fmt.Errorf("%w: instance %q: unsupported scheme %q", ErrInvalidConfig, alias, u.Scheme)
	}
	return nil
}

// Save writes the config to its backing file, creating the directory when
// needed.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.save()
}

func (c *Config) save() error {
	if c.dir == "" {
		return errors.New("config has no directory")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	out := struct {
		Hosts map[string]*Instance `yaml:"hosts"`
	}{Hosts: c.Hosts}
	if out.Hosts == nil {
		out.Hosts = map[string]*Instance{}
	}
	raw, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(c.Path(), raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", c.Path(), err)
	}
	return nil
}

// SetToken replaces the token of an existing alias and saves. Unknown aliases
// return ErrUnknownInstance and nothing is written. A failed save leaves the
// previous token in place.
func (c *Config) SetToken(alias, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.Hosts[alias]
	if !ok || inst == nil {
		return fmt.Errorf("%w: %q", ErrUnknownInstance, alias)
	}
	prev := inst.Token
	inst.Token = token
	if err := c.save(); err != nil {
		inst.Token = prev
		return err
	}
	return nil
}

// SetInstance adds or replaces an alias and saves. A failed save restores the
// previous entry.
func (c *Config) SetInstance(alias string, inst Instance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := validateInstance(alias, &inst); err != nil {
		return err
	}
	if c.Hosts == nil {
		c.Hosts = make(map[string]*Instance)
	}
	prev, existed := c.Hosts[alias]
	c.Hosts[alias] = &inst
	if err := c.save(); err != nil {
		if existed {
			c.Hosts[alias] = prev
		} else {
			delete(c.Hosts, alias)
		}
		return err
	}
	return nil
}

// RemoveInstance deletes an alias and saves.
func (c *Config) RemoveInstance(alias string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.Hosts[alias]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownInstance, alias)
	}
	delete(c.Hosts, alias)
	if err := c.save(); err != nil {
		c.Hosts[alias] = prev
		return err
	}
	return nil
}

// Instance returns a copy of the descriptor stored under alias.
func (c *Config) Instance(alias string) (Instance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	inst, ok := c.Hosts[alias]
	if !ok || inst == nil {
		return Instance{}, false
	}
	return *inst, true
}

// Aliases returns the configured aliases in sorted order.
func (c *Config) Aliases() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.Hosts))
	for alias := range c.Hosts {
		out = append(out, alias)
	}
	slices.Sort(out)
	return out
}

// Resolve picks the instance a client talks to when none is named: the
// "default" alias if present, else the only configured alias. It returns an
// empty alias when neither applies.
func (c *Config) Resolve() (string, *Instance) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if inst, ok := c.Hosts[DefaultAlias]; ok && inst != nil {
		cp := *inst
		return DefaultAlias, &cp
	}
	if len(c.Hosts) == 1 {
		for alias, inst := range c.Hosts {
			if inst == nil {
				return "", nil
			}
			cp := *inst
			return alias, &cp
		}
	}
	return "", nil
}
