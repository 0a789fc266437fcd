// Package config loads settings from an optional TOML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Scheme is the custom URL scheme of share links.
const Scheme = "redraw"

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type Config struct {
	RelayURL string `toml:"relay_url"`
	Board    string `toml:"board"`
	Name     string `toml:"name"`

	// Relay side.
	Port     int    `toml:"port"`
	Origin   string `toml:"origin"`
	RedisURL string `toml:"redis_url"`
	MDNS     bool   `toml:"mdns"`

	Debounce       Duration `toml:"debounce"`
	CursorInterval Duration `toml:"cursor_interval"`

	LogLevel string `toml:"log_level"`
}

func Default() Config {
	return Config{
		RelayURL:       "ws://localhost:8080/ws",
		Board:          "default",
		Name:           "Anonymous",
		Port:           8080,
		Origin:         "http://localhost:8080",
		MDNS:           true,
		Debounce:       Duration{120 * time.Millisecond},
		CursorInterval: Duration{40 * time.Millisecond},
		LogLevel:       "info",
	}
}

// Load reads path (if it exists) over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"REDRAW_RELAY_URL": &c.RelayURL,
		"REDRAW_BOARD":     &c.Board,
		"REDRAW_NAME":      &c.Name,
		"ORIGIN":           &c.Origin,
		"REDIS_URL":        &c.RedisURL,
		"REDRAW_LOG_LEVEL": &c.LogLevel,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Port = port
	}
	return nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Board == "" {
		return errors.New("board id is empty")
	}
	if c.Debounce.Duration <= 0 || c.CursorInterval.Duration <= 0 {
		return errors.New("debounce and cursor_interval must be positive")
	}
	return nil
}

// Level maps LogLevel onto slog. Unknown names mean info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ShareLink renders redraw://host:port?board=ID.
func ShareLink(host string, port int, board string) string {
	u := url.URL{
		Scheme:   Scheme,
		Host:     fmt.Sprintf("%s:%d", host, port),
		RawQuery: url.Values{"board": {board}}.Encode(),
	}
	return u.String()
}

// ParseShareLink extracts the relay websocket URL and the board id from a
// share link. The board defaults to "default" when absent.
func ParseShareLink(link string) (relay, board string, err error) {
	u, err := url.Parse(strings.TrimSuffix(link, "/"))
	if err != nil {
		return "", "", fmt.Errorf("parse share link: %w", err)
	}
	if u.Scheme != Scheme || u.Host == "" {
		return "", "", fmt.Errorf("not a %s:// link: %q", Scheme, link)
	}
	board = u.Query().Get("board")
	if board == "" {
		board = "default"
	}
	return "ws://" + u.Host + "/ws", board, nil
}
