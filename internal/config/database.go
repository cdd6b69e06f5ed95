package config

import (
	"fmt"
	"time"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	// URL, when set, is handed to the driver verbatim instead of the
	// DSN assembled from the individual fields.
	URL string

	PoolSize       int
	MaxOverflow    int
	PoolRecycle    time.Duration
	ProbeTimeout   time.Duration
	ConnectTimeout time.Duration
	AutoMigrate    bool
}

// MaxOpenConns is the hard ceiling of the pool: the steady size plus the overflow allowance.
func (c DatabaseConfig) MaxOpenConns() int {
	return c.PoolSize + c.MaxOverflow
}

// Address returns host:port of the store
func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the database section
func (c DatabaseConfig) Validate() error {
	if c.Driver != DriverPostgres && c.Driver != DriverMySQL {
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.URL == "" && (c.Host == "" || c.Name == "") {
		return fmt.Errorf("database host and name are required")
	}
	if c.PoolSize < 1 {
		return fmt.Errorf("database pool size must be positive")
	}
	if c.MaxOverflow < 0 {
		return fmt.Errorf("database max overflow cannot be negative")
	}
	// bare integers in the environment decode as nanoseconds
	if c.PoolRecycle < time.Second {
		return fmt.Errorf("database pool recycle must be at least 1s, got %s", c.PoolRecycle)
	}
	if c.ProbeTimeout < time.Millisecond {
		return fmt.Errorf("database probe timeout must be at least 1ms, got %s", c.ProbeTimeout)
	}
	if c.ConnectTimeout != 0 && c.ConnectTimeout < time.Second {
		return fmt.Errorf("database connect timeout must be 0 or at least 1s, got %s", c.ConnectTimeout)
	}
	return nil
}
