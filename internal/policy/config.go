package policy

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"AspectLock/internal/aspect"

	"gopkg.in/yaml.v3"
)

var (
	ErrBadRatio  = errors.New("invalid aspect ratio")
	ErrNoTarget  = errors.New("no target window configured")
	ErrBadConfig = errors.New("invalid config")
)

type Config struct {
	// Ratio is "W:H", "W/H", "WxH" or a decimal. Empty means "use the
	// window's current client ratio".
	Ratio          string        `yaml:"ratio"`
	Rounding       string        `yaml:"rounding"`
	TickInterval   time.Duration `yaml:"tickInterval"`
	WaitTimeout    time.Duration `yaml:"waitTimeout"`
	ExitWithTarget bool          `yaml:"exitWithTarget"`
	Target         Target        `yaml:"target"`
	Presets        []string      `yaml:"presets"`
	Tray           bool          `yaml:"tray"`
	Hotkey         bool          `yaml:"hotkey"`
	LogMode        string        `yaml:"log"`
}

type Target struct {
	Self       bool   `yaml:"self"`
	Title      string `yaml:"title"`
	ClassName  string `yaml:"class"`
	Executable string `yaml:"exe"`
	PID        uint32 `yaml:"pid"`
}

func (t Target) IsZero() bool {
	return !t.Self && t.Title == "" && t.ClassName == "" && t.Executable == "" && t.PID == 0
}

func (t Target) Query() aspect.Query {
	return aspect.Query{
		ClassName:      t.ClassName,
		Title:          t.Title,
		ExecutablePath: t.Executable,
		PID:            t.PID,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Rounding:       "truncate",
		TickInterval:   16 * time.Millisecond,
		WaitTimeout:    0,
		ExitWithTarget: true,
		Presets:        []string{"16:9", "16:10", "4:3", "21:9", "1:1"},
		Tray:           true,
		Hotkey:         true,
		LogMode:        "dev",
	}
}

// DefaultPath is %APPDATA%\AspectLock\config.yaml.
func DefaultPath() string {
	if v := os.Getenv("APPDATA"); v != "" {
		return filepath.Join(v, "AspectLock", "config.yaml")
	}
	if v, err := os.UserConfigDir(); err == nil {
		return filepath.Join(v, "AspectLock", "config.yaml")
	}
	return "aspectlock.yaml"
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode writes c as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

func (c *Config) Validate() error {
	if c.Ratio != "" {
		if _, err := ParseRatio(c.Ratio); err != nil {
			return err
		}
	}
	if _, err := aspect.ParseRounding(c.Rounding); err != nil {
		return fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tickInterval must be positive", ErrBadConfig)
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("%w: waitTimeout must not be negative", ErrBadConfig)
	}
	for _, p := range c.Presets {
		if _, err := ParseRatio(p); err != nil {
			return fmt.Errorf("preset %q: %w", p, err)
		}
	}
	if c.Target.IsZero() {
		return ErrNoTarget
	}
	if c.Target.Self && c.Target.Title == "" {
		return fmt.Errorf("%w: target.self needs target.title", ErrBadConfig)
	}
	return nil
}

// RatioValue returns the parsed ratio, or 0 when none is configured.
func (c *Config) RatioValue() float64 {
	if c.Ratio == "" {
		return 0
	}
	v, err := ParseRatio(c.Ratio)
	if err != nil {
		return 0
	}
	return v
}

// ParseRatio accepts "16:9", "16/9", "16x9" or "1.7778".
func ParseRatio(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrBadRatio)
	}
	var v float64
	if i := strings.IndexAny(s, ":/xX"); i >= 0 {
		num, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadRatio, s)
		}
		den, err := strconv.ParseFloat(strings.TrimSpace(s[i+1:]), 64)
		if err != nil || den == 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadRatio, s)
		}
		v = num / den
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadRatio, s)
		}
		v = f
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %q", ErrBadRatio, s)
	}
	return v, nil
}

// FormatRatio renders r the way ParseRatio reads it.
func FormatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
