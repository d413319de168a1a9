package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"

	"github.com/syssam/persistence"
	"github.com/syssam/persistence/dialect"
)

// DefaultID is the connection id used when none is given.
const DefaultID = "default"

// Config is the persistence configuration file.
type Config struct {
	// Log forwards every statement to the log sink.
	Log bool `yaml:"log,omitempty"`

	// SlowQuery is the threshold above which statements count as slow.
	// Zero disables statistics.
	SlowQuery time.Duration `yaml:"slow_query,omitempty"`

	// Filter configures inline filter parsing.
	Filter FilterConfig `yaml:"filter,omitempty"`

	// Databases maps connection ids to their settings.
	Databases map[string]Settings `yaml:"databases,omitempty"`
}

// FilterConfig configures inline filter parsing.
type FilterConfig struct {
	Separator string `yaml:"separator,omitempty"`
}

// Settings describes one database connection.
type Settings struct {
	Driver   string            `yaml:"driver"`
	Host     string            `yaml:"host,omitempty"`
	Port     int               `yaml:"port,omitempty"`
	Database string            `yaml:"database,omitempty"`
	User     string            `yaml:"user,omitempty"`
	Password string            `yaml:"password,omitempty"`
	Options  map[string]string `yaml:"options,omitempty"`
	// DSN overrides every other connection field when set.
	DSN string `yaml:"dsn,omitempty"`

	// Copied from Config by Config.Settings.
	Log       bool          `yaml:"-"`
	SlowQuery time.Duration `yaml:"-"`
}

var envRe = regexp.MustCompile(`\$\{(\w+)\}`)

// expand replaces ${VAR} references with environment values.
func expand(data []byte) []byte {
	return envRe.ReplaceAllFunc(data, func(m []byte) []byte {
		return []byte(os.Getenv(string(envRe.FindSubmatch(m)[1])))
	})
}

// Parse decodes a YAML configuration.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(expand(data), &c); err != nil {
		return nil, persistence.NewConfigError("", fmt.Errorf("parse: %w", err))
	}
	for id, s := range c.Databases {
		if err := s.Validate(); err != nil {
			return nil, persistence.NewConfigError(id, err)
		}
	}
	return &c, nil
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, persistence.NewConfigError(path, err)
	}
	return Parse(data)
}

// Settings returns the settings of connection id, or of DefaultID when id is
// empty.
func (c *Config) Settings(id string) (Settings, error) {
	if id == "" {
		id = DefaultID
	}
	s, ok := c.Databases[id]
	if !ok {
		return Settings{}, persistence.NewConfigError(id, persistence.ErrNoDriver)
	}
	s.Log = c.Log
	s.SlowQuery = c.SlowQuery
	return s, nil
}

// Validate reports an unsupported driver or a missing database.
func (s Settings) Validate() error {
	if !dialect.Supported(s.Driver) {
		return persistence.NewConfigError("driver", fmt.Errorf("%w: %q", persistence.ErrNoDriver, s.Driver))
	}
	if s.DSN == "" && s.Database == "" {
		return persistence.NewConfigError("database", errors.New("database name is required"))
	}
	return nil
}

// DataSourceName returns the data source name passed to the driver.
func (s Settings) DataSourceName() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	if s.DSN != "" {
		return s.DSN, nil
	}
	switch s.Driver {
	case dialect.MySQL:
		cfg := mysql.NewConfig()
		cfg.User = s.User
		cfg.Passwd = s.Password
		cfg.Net = "tcp"
		cfg.Addr = s.addr(3306)
		cfg.DBName = s.Database
		cfg.Params = s.Options
		return cfg.FormatDSN(), nil
	case dialect.Postgres:
		u := url.URL{
			Scheme:   "postgres",
			Host:     s.addr(5432),
			Path:     "/" + s.Database,
			RawQuery: s.query(),
		}
		if s.User != "" {
			u.User = url.UserPassword(s.User, s.Password)
		}
		return u.String(), nil
	default:
		dsn := "file:" + s.Database
		if q := s.query(); q != "" {
			dsn += "?" + q
		}
		return dsn, nil
	}
}

func (s Settings) addr(port int) string {
	host := s.Host
	if host == "" {
		host = "localhost"
	}
	if s.Port != 0 {
		port = s.Port
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (s Settings) query() string {
	v := make(url.Values, len(s.Options))
	for k, o := range s.Options {
		v.Set(k, o)
	}
	return v.Encode()
}
