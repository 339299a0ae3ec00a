package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tripdeck/internal/httpapi"
	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/internal/paths"
	"github.com/mesh-intelligence/tripdeck/internal/rediscache"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "TRIPDECK"
)

// Config keys.
const (
	cfgKeyBackend        = "backend"
	cfgKeyDataDir        = "data_dir"
	cfgKeyMongoURI       = "mongo.uri"
	cfgKeyMongoDatabase  = "mongo.database"
	cfgKeyRedisAddr      = "redis.addr"
	cfgKeyRedisPassword  = "redis.password"
	cfgKeyRedisTTL       = "redis.ttl"
	cfgKeyHTTPAddr       = "http.addr"
	cfgKeyAllowedOrigins = "http.allowed_origins"
	cfgKeyWriteTimeout   = "write_timeout"
	cfgKeyRatePerSecond  = "rate.per_second"
	cfgKeyRateBurst      = "rate.burst"
	cfgKeyLogLevel       = "log_level"
)

// configFile is the shape of the config.yaml written on first run.
type configFile struct {
	Backend      string      `yaml:"backend"`
	HTTP         httpSection `yaml:"http"`
	WriteTimeout string      `yaml:"write_timeout"`
	Rate         rateSection `yaml:"rate"`
	LogLevel     string      `yaml:"log_level"`
}

type httpSection struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type rateSection struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

func defaultConfigFile() configFile {
	return configFile{
		Backend: types.BackendSQLite,
		HTTP: httpSection{
			Addr:           httpapi.DefaultAddr,
			AllowedOrigins: []string{"*"},
		},
		WriteTimeout: itinerary.DefaultWriteTimeout.String(),
		Rate:         rateSection{PerSecond: httpapi.DefaultRatePerSecond, Burst: httpapi.DefaultRateBurst},
		LogLevel:     "info",
	}
}

// loadConfig loads .env files, then config.yaml from the resolved config
// directory, creating both the directory and a default file on first run.
// Environment variables prefixed TRIPDECK_ override file values.
func loadConfig() (*viper.Viper, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	if files := paths.EnvFiles(configDir); len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, paths.ConfigFile)); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	v := viper.New()
	def := defaultConfigFile()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyMongoDatabase, types.DefaultMongoDatabase)
	v.SetDefault(cfgKeyRedisTTL, rediscache.DefaultTTL)
	v.SetDefault(cfgKeyHTTPAddr, def.HTTP.Addr)
	v.SetDefault(cfgKeyAllowedOrigins, def.HTTP.AllowedOrigins)
	v.SetDefault(cfgKeyWriteTimeout, itinerary.DefaultWriteTimeout)
	v.SetDefault(cfgKeyRatePerSecond, def.Rate.PerSecond)
	v.SetDefault(cfgKeyRateBurst, def.Rate.Burst)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	v.Set("config_dir", configDir)
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left alone.
func writeConfigIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfigFile())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append([]byte("# tripdeck configuration\n"), data...)
	return os.WriteFile(path, data, 0o644)
}

// settings is the resolved configuration of one run.
type settings struct {
	Backend        string
	DataDir        string
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	RedisPassword  string
	RedisTTL       time.Duration
	HTTPAddr       string
	AllowedOrigins []string
	WriteTimeout   time.Duration
	RatePerSecond  float64
	RateBurst      int
	LogLevel       string
}

// currentSettings applies the global flags on top of the loaded config.
func currentSettings() (settings, error) {
	v := conf
	if v == nil {
		var err error
		if v, err = loadConfig(); err != nil {
			return settings{}, err
		}
	}
	s := settings{
		Backend:        v.GetString(cfgKeyBackend),
		MongoURI:       v.GetString(cfgKeyMongoURI),
		MongoDatabase:  v.GetString(cfgKeyMongoDatabase),
		RedisAddr:      v.GetString(cfgKeyRedisAddr),
		RedisPassword:  v.GetString(cfgKeyRedisPassword),
		RedisTTL:       v.GetDuration(cfgKeyRedisTTL),
		HTTPAddr:       v.GetString(cfgKeyHTTPAddr),
		AllowedOrigins: v.GetStringSlice(cfgKeyAllowedOrigins),
		WriteTimeout:   v.GetDuration(cfgKeyWriteTimeout),
		RatePerSecond:  v.GetFloat64(cfgKeyRatePerSecond),
		RateBurst:      v.GetInt(cfgKeyRateBurst),
		LogLevel:       v.GetString(cfgKeyLogLevel),
	}
	if flags.backend != "" {
		s.Backend = flags.backend
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}
	s.DataDir = dataDir
	return s, nil
}

// backendConfig is the types.Config for s.
func (s settings) backendConfig() types.Config {
	return types.Config{
		Backend:       s.Backend,
		DataDir:       s.DataDir,
		MongoURI:      s.MongoURI,
		MongoDatabase: s.MongoDatabase,
	}
}

// newLogger builds the process logger. Unknown levels mean info.
func newLogger(w io.Writer, asJSON bool, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
