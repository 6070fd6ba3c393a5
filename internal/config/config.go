// Package config loads the site configuration for `lwgate serve`.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lwgate/internal/carousel"
)

// Config holds all lwgate site configuration.
type Config struct {
	// Site title shown in the page header.
	Title string `yaml:"title"`

	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Carousel CarouselConfig `yaml:"carousel"`

	// Links are the gated navigation links.
	Links []LinkConfig `yaml:"links"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SessionConfig configures the session cookie and gate session storage.
type SessionConfig struct {
	CookieName string `yaml:"cookie_name"`

	// Secret signs the session cookie. A random secret is generated at
	// startup when empty, which logs everyone out on restart.
	Secret string `yaml:"secret"`

	// Secure marks the cookie HTTPS-only.
	Secure bool `yaml:"secure"`

	// DBPath is the SQLite database holding gate sessions.
	DBPath string `yaml:"db_path"`

	// TTL bounds how long an idle session row is kept.
	TTL time.Duration `yaml:"ttl"`
}

// CatalogConfig configures where the catalog is loaded from.
type CatalogConfig struct {
	// Source is an http(s) URL, file:// URL or local path.
	Source  string        `yaml:"source"`
	Timeout time.Duration `yaml:"timeout"`
}

// CarouselConfig configures the featured slides.
type CarouselConfig struct {
	Interval time.Duration    `yaml:"interval"`
	Slides   []carousel.Slide `yaml:"slides"`
}

// LinkConfig is one gated navigation link.
type LinkConfig struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Title: "老王研究所",
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Session: SessionConfig{
			CookieName: "lw-session",
			DBPath:     "lwgate.db",
			TTL:        12 * time.Hour,
		},
		Catalog: CatalogConfig{
			Source:  "assets/macros.json",
			Timeout: 10 * time.Second,
		},
		Carousel: CarouselConfig{
			Interval: carousel.DefaultInterval,
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("session.cookie_name is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Catalog.Source == "" {
		errs = append(errs, errors.New("catalog.source is required"))
	}
	if c.Carousel.Interval < time.Second {
		errs = append(errs, fmt.Errorf("carousel.interval %s is below 1s", c.Carousel.Interval))
	}

	seen := map[string]bool{}
	for i, l := range c.Links {
		switch {
		case l.ID == "":
			errs = append(errs, fmt.Errorf("links[%d].id is required", i))
		case seen[l.ID]:
			errs = append(errs, fmt.Errorf("links[%d].id %q is duplicated", i, l.ID))
		}
		seen[l.ID] = true
		if l.Href == "" {
			errs = append(errs, fmt.Errorf("links[%d].href is required", i))
		}
	}

	return errors.Join(errs...)
}

// Link returns the link with the given id.
func (c *Config) Link(id string) (LinkConfig, bool) {
	for _, l := range c.Links {
		if l.ID == id {
			return l, true
		}
	}
	return LinkConfig{}, false
}
