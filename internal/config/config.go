package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/kapi/internal/foundation/errors"
	"git.home.luguber.info/inful/kapi/internal/foundation/normalization"
)

// DefaultFile is the configuration file used when none is named.
const DefaultFile = "kapi.json"

// Reserved configuration keys.
const (
	KeyDestination = "destination"
	KeyClean       = "clean"
	KeyFolders     = "folders"
	KeyRules       = "rules"
	KeyCollisions  = "collisions"
	KeyLogging     = "logging"
	KeyHistory     = "history"
)

// Config is a loaded configuration file.
type Config struct {
	// Path is the absolute path of the file, Dir its directory.
	Path string
	Dir  string

	// Options holds every top-level key in document order. Mappings are
	// *jsonx.Object, sequences []any.
	Options *orderedmap.OrderedMap[string, any]

	Destination string
	Clean       bool
	Folders     []string
	Rules       []Rule
	Collisions  string
	Logging     Logging
	History     History
}

// Rule is a declarative file rule.
type Rule struct {
	Pattern    string `yaml:"pattern"`
	Select     string `yaml:"select"`
	Name       string `yaml:"name"`
	Title      string `yaml:"title"`
	Layout     string `yaml:"layout"`
	Collection string `yaml:"collection"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// History configures the build history store. An empty Path disables it.
type History struct {
	Path string `yaml:"path"`
}

var levels = normalization.NewNormalizer("log level", map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}, slog.LevelInfo)

var formats = normalization.NewNormalizer("log format", map[string]string{
	"text": "text",
	"json": "json",
}, "text")

var collisions = normalization.NewNormalizer("collision policy", map[string]string{
	"overwrite": "overwrite",
	"error":     "error",
}, "overwrite")

// SlogLevel returns the configured level, info when unset.
func (l Logging) SlogLevel() slog.Level {
	return levels.Normalize(l.Level)
}

// JSON reports whether logs should be JSON encoded.
func (l Logging) JSON() bool {
	return formats.Normalize(l.Format) == "json"
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "resolve configuration path").
			WithContext("path", path).
			Build()
	}
	dir := filepath.Dir(abs)

	if _, err := loadEnvFiles(dir); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "load environment file").
			WithContext("path", dir).
			Build()
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.CategoryNotFound, "configuration file not found").
				WithCause(err).
				WithContext("path", abs).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration file").
			WithContext("path", abs).
			Build()
	}

	cfg, err := Parse(data, dir)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("path", abs)
		}
		return nil, err
	}
	cfg.Path = abs
	return cfg, nil
}

// Parse decodes configuration data. Relative paths resolve against dir.
func Parse(data []byte, dir string) (*Config, error) {
	root, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	expandEnv(root)

	options, nodes, err := decodeOptions(root)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Dir: dir, Options: options}
	if err := cfg.decodeReserved(nodes); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	return cfg, nil
}

func (c *Config) decodeReserved(nodes map[string]*yaml.Node) error {
	fields := []struct {
		key    string
		target any
	}{
		{KeyDestination, &c.Destination},
		{KeyClean, &c.Clean},
		{KeyFolders, &c.Folders},
		{KeyRules, &c.Rules},
		{KeyCollisions, &c.Collisions},
		{KeyLogging, &c.Logging},
		{KeyHistory, &c.History},
	}
	for _, f := range fields {
		node, ok := nodes[f.key]
		if !ok {
			continue
		}
		if err := node.Decode(f.target); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid value for reserved key").
				WithContext("key", f.key).
				Build()
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Destination == "" {
		return errors.ConfigError("destination is required").
			WithContext("key", KeyDestination).
			Build()
	}
	for i, r := range c.Rules {
		if r.Pattern == "" {
			return errors.ConfigError("rule pattern is required").
				WithContext("key", KeyRules).
				WithContext("index", i).
				Build()
		}
	}
	if _, err := levels.NormalizeWithError(c.Logging.Level); err != nil {
		return invalidValue(KeyLogging+".level", err)
	}
	if _, err := formats.NormalizeWithError(c.Logging.Format); err != nil {
		return invalidValue(KeyLogging+".format", err)
	}
	policy, err := collisions.NormalizeWithError(c.Collisions)
	if err != nil {
		return invalidValue(KeyCollisions, err)
	}
	c.Collisions = policy
	return nil
}

func invalidValue(key string, err error) error {
	return errors.WrapError(err, errors.CategoryConfig, "invalid configuration value").
		WithContext("key", key).
		Build()
}

func (c *Config) resolvePaths() {
	c.Destination = c.Resolve(c.Destination)
	for i, f := range c.Folders {
		c.Folders[i] = c.Resolve(f)
	}
	if c.History.Path != "" {
		c.History.Path = c.Resolve(c.History.Path)
	}
}

// Resolve makes a relative path absolute against the configuration directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// SourceDir is where settings hooks write their artifacts.
func (c *Config) SourceDir() string {
	return filepath.Join(c.Destination, "src")
}

// BuildDir is where the final file set is written.
func (c *Config) BuildDir() string {
	return filepath.Join(c.Destination, "build")
}

// Keys returns the configuration keys in document order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, c.Options.Len())
	for pair := c.Options.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// String returns a short description for logs.
func (c *Config) String() string {
	return fmt.Sprintf("config(%s, %d keys)", c.Path, c.Options.Len())
}
