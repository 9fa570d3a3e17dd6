package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Keys understood by snapcut. Keys are "section.name"; a key without a dot
// lives in the default section.
const (
	KeySystemdScope     = "systemd.scope"
	KeySnapConfinement  = "snap.confinement"
	KeyLogLevel         = "log.level"
	KeyHostsConcurrency = "hosts.concurrency"
)

// Config is a read-only view over an ini file.
type Config struct {
	file *ini.File
}

// Lookup is the part of Config the managers depend on.
type Lookup interface {
	Bool(key string, def bool) bool
	String(key, def string) string
}

// Load reads an ini file. An empty path yields an empty configuration where
// every lookup returns its default.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{file: ini.Empty()}, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return &Config{file: f}, nil
}

// Parse reads configuration from raw ini data.
func Parse(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("config parse failed: %w", err)
	}
	return &Config{file: f}, nil
}

func (c *Config) key(key string) (*ini.Key, bool) {
	if c == nil || c.file == nil {
		return nil, false
	}
	section, name := ini.DefaultSection, key
	if i := strings.LastIndex(key, "."); i >= 0 {
		section, name = key[:i], key[i+1:]
	}
	s, err := c.file.GetSection(section)
	if err != nil || !s.HasKey(name) {
		return nil, false
	}
	return s.Key(name), true
}

func (c *Config) Bool(key string, def bool) bool {
	k, ok := c.key(key)
	if !ok {
		return def
	}
	return k.MustBool(def)
}

func (c *Config) String(key, def string) string {
	k, ok := c.key(key)
	if !ok {
		return def
	}
	return k.MustString(def)
}

func (c *Config) Int(key string, def int) int {
	k, ok := c.key(key)
	if !ok {
		return def
	}
	return k.MustInt(def)
}
