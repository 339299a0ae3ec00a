package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MongoURI and MongoDatabase select the document store.
	MongoURI      string `json:"mongo_uri,omitempty" yaml:"mongo_uri,omitempty"`
	MongoDatabase string `json:"mongo_database,omitempty" yaml:"mongo_database,omitempty"`

	// Timeout bounds connection setup for network backends.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// DefaultMongoDatabase is used when Config.MongoDatabase is empty.
const DefaultMongoDatabase = "tripdeck"

// Config validation errors.
var (
	ErrBackendEmpty    = errors.New("backend must not be empty")
	ErrBackendUnknown  = errors.New("unknown backend")
	ErrMongoURIMissing = errors.New("mongo backend requires a URI")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMongo:  true,
	BackendMemory: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendMongo && c.MongoURI == "" {
		return ErrMongoURIMissing
	}
	return nil
}

// Database returns the Mongo database name, falling back to the default.
func (c Config) Database() string {
	if c.MongoDatabase == "" {
		return DefaultMongoDatabase
	}
	return c.MongoDatabase
}
