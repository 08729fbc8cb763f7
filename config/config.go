package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// EnvPrefix prefixes the environment variables that override flag defaults
const EnvPrefix = "DISPATCH_"

// Config holds all application configuration.
type Config struct {
	Host            string
	Port            int
	Workers         int
	QueueSize       int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxConnections  int
	MaxBodyBytes    int
	ReusePort       bool
	LogLevel        string
	LogFormat       string
	Env             string
}

// New loads configuration from the command line and environment. It exits
// with status 0 after -h and with status 2 on invalid input.
func New() *Config {
	cfg, err := Load(os.Args[1:], os.LookupEnv)
	if errors.Is(err, flag.ErrHelp) {
		// Usage has already been printed
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Load parses args as flags. A flag not given on the command line takes
// its value from the environment variable EnvPrefix + NAME (dashes become
// underscores), when lookup finds one. The result is validated.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("dispatch", flag.ContinueOnError)
	fs.StringVar(&cfg.Host, "host", "127.0.0.1", "Address to bind")
	fs.IntVar(&cfg.Port, "port", 8080, "TCP port")
	fs.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Number of connection workers")
	fs.IntVar(&cfg.QueueSize, "queue-size", 0, "Accepted connections waiting for a worker (0: 4 per worker)")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", 10*time.Second, "Time allowed to read a request (0 disables)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", 30*time.Second, "Time allowed to write a response (0 disables)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", 15*time.Second, "Time allowed to drain connections on shutdown")
	fs.IntVar(&cfg.MaxConnections, "max-connections", 0, "Concurrent connection limit (0: unlimited)")
	fs.IntVar(&cfg.MaxBodyBytes, "max-body-bytes", 10*1024*1024, "Largest accepted request body")
	fs.BoolVar(&cfg.ReusePort, "reuse-port", false, "Set SO_REUSEPORT on the listening socket")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (trace/debug/info/warn/error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text/json)")
	fs.StringVar(&cfg.Env, "env", "development", "Environment (development/production)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if lookup != nil {
		set := make(map[string]bool)
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

		var envErr error
		fs.VisitAll(func(f *flag.Flag) {
			if set[f.Name] || envErr != nil {
				return
			}
			key := EnvPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if v, ok := lookup(key); ok {
				if err := fs.Set(f.Name, v); err != nil {
					envErr = fmt.Errorf("%s=%q: %w", key, v, err)
				}
			}
		})
		if envErr != nil {
			return nil, envErr
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot start a server
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queue-size must not be negative, got %d", c.QueueSize))
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("max-connections must not be negative, got %d", c.MaxConnections))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max-body-bytes must be positive, got %d", c.MaxBodyBytes))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log-format must be text or json, got %q", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Addr returns the host:port to listen on
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
