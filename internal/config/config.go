// Package config loads application configuration from YAML files or CUE
// packages.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bowphp/framework-sub003/internal/entity"
	"github.com/bowphp/framework-sub003/internal/errs"
	"github.com/bowphp/framework-sub003/internal/notify"
	"github.com/bowphp/framework-sub003/internal/orm"
	"github.com/bowphp/framework-sub003/internal/relation"
)

// Defaults.
const (
	DefaultDatabasePath = "barry.db"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Config is the root configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database" json:"database"`
	Log      LogConfig      `yaml:"log" json:"log"`
	Entities []EntityConfig `yaml:"entities" json:"entities"`
	Channels ChannelsConfig `yaml:"channels" json:"channels"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LogConfig selects the default logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
	Format string `yaml:"format" json:"format"` // text | json
}

// EntityConfig declares one table and its named relations.
type EntityConfig struct {
	Table      string                    `yaml:"table" json:"table"`
	PrimaryKey string                    `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	SoftDelete bool                      `yaml:"soft_delete,omitempty" json:"soft_delete,omitempty"`
	Relations  map[string]RelationConfig `yaml:"relations,omitempty" json:"relations,omitempty"`
}

// RelationConfig declares a relation by related table name. Omitted keys
// follow the naming conventions of package relation.
type RelationConfig struct {
	Kind            string `yaml:"kind" json:"kind"`
	Related         string `yaml:"related" json:"related"`
	ForeignKey      string `yaml:"foreign_key,omitempty" json:"foreign_key,omitempty"`
	LocalKey        string `yaml:"local_key,omitempty" json:"local_key,omitempty"`
	JoinTable       string `yaml:"join_table,omitempty" json:"join_table,omitempty"`
	ParentPivotKey  string `yaml:"parent_pivot_key,omitempty" json:"parent_pivot_key,omitempty"`
	RelatedPivotKey string `yaml:"related_pivot_key,omitempty" json:"related_pivot_key,omitempty"`
}

// ChannelsConfig enables built-in notification channels and tunes the
// queued worker.
type ChannelsConfig struct {
	Enabled   []string `yaml:"enabled" json:"enabled"`
	Queue     string   `yaml:"queue,omitempty" json:"queue,omitempty"`
	RateLimit float64  `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"` // jobs per second, 0 = unlimited
	Burst     int      `yaml:"burst,omitempty" json:"burst,omitempty"`
}

var builtinChannels = map[string]bool{
	notify.ChannelMail:     true,
	notify.ChannelDatabase: true,
	notify.ChannelSms:      true,
	notify.ChannelSlack:    true,
	notify.ChannelTelegram: true,
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from path. A directory or a .cue file is
// evaluated as CUE; anything else is parsed as YAML.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.Configf("config.load", "stat %s: %w", path, err)
	}

	var cfg *Config
	switch {
	case info.IsDir():
		cfg, err = LoadCUEDir(path)
	case strings.EqualFold(filepath.Ext(path), ".cue"):
		cfg, err = LoadCUEFile(path)
	default:
		cfg, err = LoadYAMLFile(path)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadYAMLFile reads a YAML configuration file.
func LoadYAMLFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configf("config.load", "read %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes YAML, applies defaults and validates. Unknown fields
// are rejected.
func ParseYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Configf("config.parse", "yaml: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Channels.Queue == "" {
		c.Channels.Queue = notify.DefaultQueueName
	}
	if c.Channels.RateLimit > 0 && c.Channels.Burst <= 0 {
		c.Channels.Burst = 1
	}
}

// Validate checks the configuration and builds the catalog once to
// surface relation errors.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errs.Configf("config.validate", "log.level %q: must be debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errs.Configf("config.validate", "log.format %q: must be text or json", c.Log.Format)
	}

	seen := make(map[string]bool, len(c.Entities))
	for i, e := range c.Entities {
		if seen[e.Table] {
			return errs.Configf("config.validate", "entities[%d]: duplicate table %q", i, e.Table)
		}
		seen[e.Table] = true
	}

	for _, name := range c.Channels.Enabled {
		if !builtinChannels[name] {
			return errs.Configf("config.validate", "channels.enabled: unknown channel %q", name)
		}
	}
	if c.Channels.RateLimit < 0 {
		return errs.Configf("config.validate", "channels.rate_limit must not be negative")
	}

	_, err := c.Catalog()
	return err
}

// Catalog builds and freezes an ORM catalog from the entity declarations.
func (c *Config) Catalog() (*orm.Catalog, error) {
	catalog := orm.NewCatalog()
	for _, e := range c.Entities {
		rels := make(map[string]relation.Descriptor, len(e.Relations))
		for name, r := range e.Relations {
			d, err := r.descriptor()
			if err != nil {
				return nil, errs.Configf("config.catalog", "%s.%s: %w", e.Table, name, err)
			}
			rels[name] = d
		}
		if err := catalog.Define(e.Schema(), rels); err != nil {
			return nil, err
		}
	}
	if err := catalog.Freeze(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Schema returns the entity schema.
func (e EntityConfig) Schema() entity.Schema {
	return entity.Schema{Table: e.Table, PrimaryKey: e.PrimaryKey, SoftDelete: e.SoftDelete}
}

func (r RelationConfig) descriptor() (relation.Descriptor, error) {
	kind, err := relation.ParseKind(r.Kind)
	if err != nil {
		return relation.Descriptor{}, err
	}
	if r.Related == "" {
		return relation.Descriptor{}, fmt.Errorf("related table is required")
	}
	return relation.Descriptor{
		Kind:            kind,
		Related:         entity.Schema{Table: r.Related},
		ForeignKey:      r.ForeignKey,
		LocalKey:        r.LocalKey,
		JoinTable:       r.JoinTable,
		ParentPivotKey:  r.ParentPivotKey,
		RelatedPivotKey: r.RelatedPivotKey,
	}, nil
}
