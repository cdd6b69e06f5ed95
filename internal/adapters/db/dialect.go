package db

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"item-service/internal/config"

	"github.com/go-sql-driver/mysql"
)

// Dialect captures the differences between the supported SQL stores
type Dialect string

const (
	DialectPostgres Dialect = config.DriverPostgres
	DialectMySQL    Dialect = config.DriverMySQL
)

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $n placeholders for drivers that only understand "?".
// Queries must reference each placeholder once, in ascending order.
func (d Dialect) Rebind(query string) string {
	if d == DialectMySQL {
		return placeholderPattern.ReplaceAllString(query, "?")
	}
	return query
}

// DriverName is the database/sql driver registered for the dialect
func (d Dialect) DriverName() string {
	return string(d)
}

// DataSourceName builds the driver DSN from the database configuration
func DataSourceName(cfg config.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}

	switch Dialect(cfg.Driver) {
	case DialectPostgres:
		query := url.Values{}
		if cfg.SSLMode != "" {
			query.Set("sslmode", cfg.SSLMode)
		}
		if cfg.ConnectTimeout > 0 {
			secs := int(cfg.ConnectTimeout.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			query.Set("connect_timeout", strconv.Itoa(secs))
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     cfg.Address(),
			Path:     "/" + cfg.Name,
			RawQuery: query.Encode(),
		}
		return u.String(), nil

	case DialectMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = cfg.Address()
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		mc.Timeout = cfg.ConnectTimeout
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	}

	return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
