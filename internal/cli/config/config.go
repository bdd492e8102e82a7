// Package config loads excellent.yml and builds the lexer, vocabulary and logger
// it describes
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/conduit-lang/excellent/internal/cache"
	"github.com/conduit-lang/excellent/internal/logging"
	"github.com/conduit-lang/excellent/internal/vocabulary"
	"github.com/conduit-lang/excellent/pkg/lexer"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// FileName is the configuration file looked up in the working directory,
// with a .yml or .yaml extension
const FileName = "excellent"

// EnvPrefix prefixes environment overrides, e.g. EXCELLENT_SERVER_PORT
const EnvPrefix = "EXCELLENT"

// keyDelimiter separates nested keys. Field paths such as contact.fields are map
// keys, so the period can't be the delimiter.
const keyDelimiter = "::"

// Config represents the excellent configuration
type Config struct {
	Prefix     string           `mapstructure:"prefix"`
	TopLevels  []string         `mapstructure:"top_levels"`
	Vocabulary VocabularyConfig `mapstructure:"vocabulary"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`

	// File is the configuration file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// VocabularyConfig describes the names offered by autocomplete
type VocabularyConfig struct {
	// Fields maps a dotted parent path to the names below it
	Fields    map[string][]string `mapstructure:"fields"`
	Functions []string            `mapstructure:"functions"`

	// Driver and DSN add a database vocabulary; an empty driver disables it
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// CacheConfig selects the cache in front of the database vocabulary
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// JWTSecret enables bearer token authentication when set
	JWTSecret string `mapstructure:"jwt_secret"`

	// CORSOrigins lists the browser origins allowed to call the API
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads the configuration from path, or from excellent.yml in the working
// directory when path is empty. A missing excellent.yml is not an error; a
// missing explicit path is.
func Load(path string) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment overrides
// exist
func Default() *Config {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	setDefaults(v)

	var config Config
	// defaults always decode
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	key := func(parts ...string) string { return strings.Join(parts, keyDelimiter) }

	v.SetDefault("prefix", string(lexer.DefaultPrefix))
	v.SetDefault("top_levels", lexer.DefaultTopLevels)
	v.SetDefault(key("vocabulary", "driver"), "")
	v.SetDefault(key("vocabulary", "dsn"), "")
	v.SetDefault(key("cache", "backend"), cache.BackendNone)
	v.SetDefault(key("cache", "redis_addr"), "localhost:6379")
	v.SetDefault(key("cache", "ttl"), cache.DefaultConfig().DefaultTTL)
	v.SetDefault(key("server", "host"), "localhost")
	v.SetDefault(key("server", "port"), 8080)
	v.SetDefault(key("server", "jwt_secret"), "")
	v.SetDefault(key("log", "level"), "info")
	v.SetDefault(key("log", "development"), false)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if utf8.RuneCountInString(cfg.Prefix) != 1 {
		return fmt.Errorf("prefix must be a single character, got %q", cfg.Prefix)
	}
	if _, err := cfg.Lexer(); err != nil {
		return err
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", cfg.Server.Port)
	}

	switch cfg.Vocabulary.Driver {
	case "", vocabulary.DriverSQLite, vocabulary.DriverPostgres, vocabulary.DriverPgx:
	default:
		return fmt.Errorf("vocabulary.driver: %w: %q", vocabulary.ErrUnknownDriver, cfg.Vocabulary.Driver)
	}
	if cfg.Vocabulary.Driver != "" && cfg.Vocabulary.DSN == "" {
		return fmt.Errorf("vocabulary.dsn is required with vocabulary.driver %q", cfg.Vocabulary.Driver)
	}

	switch cfg.Cache.Backend {
	case "", cache.BackendNone, cache.BackendMemory, cache.BackendRedis:
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis, got %q", cfg.Cache.Backend)
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	return nil
}

// Lexer builds the lexer for the configured prefix and top levels
func (c *Config) Lexer() (*lexer.Lexer, error) {
	prefix, _ := utf8.DecodeRuneInString(c.Prefix)

	l, err := lexer.New(lexer.WithPrefix(prefix), lexer.WithAllowedTopLevels(c.TopLevels...))
	if err != nil {
		return nil, fmt.Errorf("invalid prefix %q: %w", c.Prefix, err)
	}
	return l, nil
}

// Logger builds the logger for the log section
func (c *Config) Logger() (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:       c.Log.Level,
		Development: c.Log.Development,
	})
}

// Address returns the host:port the HTTP server listens on
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Vocabulary builds the vocabulary store: the static names from the file, merged
// with the database vocabulary when a driver is set, behind the configured cache.
// The returned function releases the database and cache.
func (c *Config) Vocabulary(ctx context.Context, logger *zap.Logger) (vocabulary.Store, func() error, error) {
	logger = logging.OrNop(logger)

	l, err := c.Lexer()
	if err != nil {
		return nil, nil, err
	}

	static := vocabulary.NewStaticStore(l.AllowedTopLevels(), c.Vocabulary.Fields, c.Vocabulary.Functions)
	if c.Vocabulary.Driver == "" {
		return static, func() error { return nil }, nil
	}

	db, err := c.OpenDatabase(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{db.Close}

	var dbStore vocabulary.Store = db
	backend, err := cache.New(cache.Options{
		Backend:   c.Cache.Backend,
		RedisAddr: c.Cache.RedisAddr,
		TTL:       c.Cache.TTL,
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create cache: %w", err)
	}
	if backend != nil {
		dbStore = vocabulary.NewCachedStore(db, backend, c.Cache.TTL, logger)
		closers = append(closers, backend.Close)
	}

	closeAll := func() error {
		var errs []error
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	return vocabulary.Merge(static, dbStore), closeAll, nil
}

// OpenDatabase connects to the configured vocabulary database
func (c *Config) OpenDatabase(ctx context.Context, logger *zap.Logger) (*vocabulary.SQLStore, error) {
	if c.Vocabulary.Driver == "" {
		return nil, fmt.Errorf("no vocabulary database configured (set vocabulary.driver and vocabulary.dsn)")
	}
	return vocabulary.Open(ctx, c.Vocabulary.Driver, c.Vocabulary.DSN, logging.OrNop(logger))
}

// Save writes cfg to path as YAML. An existing file is only replaced when
// overwrite is set.
func Save(path string, cfg *Config, overwrite bool) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	key := func(parts ...string) string { return strings.Join(parts, keyDelimiter) }

	v.Set("prefix", cfg.Prefix)
	v.Set("top_levels", cfg.TopLevels)
	if len(cfg.Vocabulary.Fields) > 0 {
		v.Set(key("vocabulary", "fields"), cfg.Vocabulary.Fields)
	}
	if len(cfg.Vocabulary.Functions) > 0 {
		v.Set(key("vocabulary", "functions"), cfg.Vocabulary.Functions)
	}
	v.Set(key("vocabulary", "driver"), cfg.Vocabulary.Driver)
	v.Set(key("vocabulary", "dsn"), cfg.Vocabulary.DSN)
	v.Set(key("cache", "backend"), cfg.Cache.Backend)
	v.Set(key("cache", "redis_addr"), cfg.Cache.RedisAddr)
	v.Set(key("cache", "ttl"), cfg.Cache.TTL.String())
	v.Set(key("server", "host"), cfg.Server.Host)
	v.Set(key("server", "port"), cfg.Server.Port)
	v.Set(key("server", "jwt_secret"), cfg.Server.JWTSecret)
	if len(cfg.Server.CORSOrigins) > 0 {
		v.Set(key("server", "cors_origins"), cfg.Server.CORSOrigins)
	}
	v.Set(key("log", "level"), cfg.Log.Level)
	v.Set(key("log", "development"), cfg.Log.Development)

	v.SetConfigType("yaml")

	var err error
	if overwrite {
		err = v.WriteConfigAs(path)
	} else {
		err = v.SafeWriteConfigAs(path)
	}
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
