package canvass

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSchemaPath = "schema"
	DefaultTimeout    = 30 * time.Second
)

// Config is the session configuration.
type Config struct {
	BaseURL           string        `yaml:"baseURL"`
	SchemaPath        string        `yaml:"schemaPath"`
	ItemsPerPage      int           `yaml:"itemsPerPage"`
	MaxDisplayedPages int           `yaml:"maxDisplayedPages"`
	Debug             bool          `yaml:"debug"`
	Timeout           time.Duration `yaml:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		SchemaPath:        DefaultSchemaPath,
		ItemsPerPage:      DefaultItemsPerPage,
		MaxDisplayedPages: DefaultMaxDisplayedPages,
		Timeout:           DefaultTimeout,
	}
}

// LoadConfig reads a YAML config file over the defaults; an empty path
// reads none. Environment overrides are applied last.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.fill()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CANVASS_SCHEMA_PATH"); v != "" {
		c.SchemaPath = v
	}
	if v := os.Getenv("CANVASS_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("CANVASS_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CANVASS_DEBUG=%q: %w", v, err)
		}
		c.Debug = b
	}
	return nil
}

func (c *Config) fill() {
	d := DefaultConfig()
	if c.SchemaPath == "" {
		c.SchemaPath = d.SchemaPath
	}
	if c.ItemsPerPage <= 0 {
		c.ItemsPerPage = d.ItemsPerPage
	}
	if c.MaxDisplayedPages <= 0 {
		c.MaxDisplayedPages = d.MaxDisplayedPages
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
}

// Session wires a store, a factory registry and a normalizer from a
// config and a model.
type Session struct {
	Config     Config
	Model      *Model
	Store      *Store
	Factories  *FactoryRegistry
	Normalizer *Normalizer
}

// NewSession loads the model at cfg.SchemaPath and registers a factory
// per schema. A transport is created when cfg.BaseURL is set.
func NewSession(cfg Config, logger *zap.SugaredLogger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m, err := NewModel(cfg.SchemaPath)
	if err != nil {
		return nil, err
	}
	var transport Transport
	if cfg.BaseURL != "" {
		transport = NewHTTPTransport(cfg.BaseURL, cfg.Timeout, logger)
	}
	store := NewStore(logger)
	reg := NewFactoryRegistry(store, transport, logger)
	base := FactoryConfig{ItemsPerPage: cfg.ItemsPerPage, MaxDisplayedPages: cfg.MaxDisplayedPages}
	if err := reg.RegisterModel(m, base); err != nil {
		return nil, err
	}
	return &Session{
		Config:     cfg,
		Model:      m,
		Store:      store,
		Factories:  reg,
		Normalizer: reg.Normalizer(),
	}, nil
}
