package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smnsjas/go-wbem/connection"
)

// Config is the YAML config file shape:
//
//	server: https://cimom.example.com:5989
//	namespace: root/cimv2
//	username: admin
//	password: secret
//	timeout: 30s
type Config struct {
	Server    string        `yaml:"server"`
	Namespace string        `yaml:"namespace"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	Timeout   time.Duration `yaml:"timeout"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{
		Namespace: connection.DefaultNamespace,
		Timeout:   30 * time.Second,
	}
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// override applies non-zero flag values on top of the file config. The
// environment supplies the password when neither flag nor file does.
func (c *Config) override(server, namespace, username, password string, timeout time.Duration) {
	if server != "" {
		c.Server = server
	}
	if namespace != "" {
		c.Namespace = namespace
	}
	if username != "" {
		c.Username = username
	}
	if password != "" {
		c.Password = password
	}
	if c.Password == "" {
		c.Password = os.Getenv("WBEMCLI_PASSWORD")
	}
	if timeout > 0 {
		c.Timeout = timeout
	}
}

func (c *Config) validate() error {
	if c.Server == "" {
		return fmt.Errorf("no server URL (use -server or the config file)")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
