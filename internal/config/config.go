package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"clabwatch/internal/model"
)

// Config is the flat option set for a run. Loaded once (env defaults, then
// the optional inventory file, then flag overrides applied by the command
// layer), validated, and passed around immutably.
type Config struct {
	Devices []model.Device `yaml:"devices"`

	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	GNMIPort        int    `yaml:"gnmi_port"`
	SkipVerify      bool   `yaml:"skip_verify"`
	Insecure        bool   `yaml:"insecure"`
	NetworkInstance string `yaml:"network_instance"`

	Families []string `yaml:"families"`
	// Convergence thresholds per family; both maps must name the same
	// families, with end > start.
	StartValues map[string]uint64 `yaml:"start_values"`
	EndValues   map[string]uint64 `yaml:"end_values"`

	Duration     time.Duration `yaml:"duration"`
	Interval     time.Duration `yaml:"interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Workers      int           `yaml:"workers"`

	OutputDir    string `yaml:"output_dir"`
	OutputPrefix string `yaml:"output_prefix"`

	ProbeListenAddr string        `yaml:"probe_listen_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	LogJSON  bool   `yaml:"log_json"`
	LogLevel string `yaml:"log_level"`
	NoColor  bool   `yaml:"no_color"`
}

// Load builds the config from environment defaults plus an optional YAML
// inventory file. Validation is deferred to Validate so the command layer can
// apply flag overrides first.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Username:        env("CLABWATCH_USERNAME", "admin"),
		Password:        env("CLABWATCH_PASSWORD", "admin"),
		GNMIPort:        envInt("CLABWATCH_GNMI_PORT", 57400),
		SkipVerify:      envBool("CLABWATCH_SKIP_VERIFY", true),
		Insecure:        envBool("CLABWATCH_INSECURE", false),
		NetworkInstance: env("CLABWATCH_NETWORK_INSTANCE", "default"),
		Duration:        envDuration("CLABWATCH_DURATION", 60*time.Second),
		Interval:        envDuration("CLABWATCH_INTERVAL", time.Second),
		FetchTimeout:    envDuration("CLABWATCH_FETCH_TIMEOUT", 0),
		OutputDir:       env("CLABWATCH_OUTPUT_DIR", "data"),
		OutputPrefix:    env("CLABWATCH_OUTPUT_PREFIX", "route_stats"),
		ProbeListenAddr: env("CLABWATCH_PROBE_ADDR", ""),
		ShutdownTimeout: envDuration("CLABWATCH_SHUTDOWN_TIMEOUT", 10*time.Second),
		LogJSON:         envBool("CLABWATCH_LOG_JSON", false),
		LogLevel:        strings.ToLower(env("CLABWATCH_LOG_LEVEL", "info")),
		NoColor:         envBool("CLABWATCH_NO_COLOR", false),
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read inventory %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse inventory %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Families) == 0 {
		c.Families = []string{"ipv4-unicast", "ipv6-unicast"}
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = c.Interval
	}
	for i := range c.Devices {
		if c.Devices[i].Port == 0 {
			c.Devices[i].Port = c.GNMIPort
		}
	}
}

// Validate fails fast on configuration errors before any sampling begins.
func (c *Config) Validate() error {
	if len(c.Devices) == 0 {
		return errors.New("config: no devices (pass -t or an inventory file, or run inside a containerlab topology)")
	}
	for _, d := range c.Devices {
		if d.Name == "" && d.Address == "" {
			return errors.New("config: device with neither name nor address")
		}
	}
	if c.Duration <= 0 {
		return errors.New("config: duration must be > 0")
	}
	if c.Interval <= 0 {
		return errors.New("config: interval must be > 0")
	}
	if c.FetchTimeout > c.Interval {
		return fmt.Errorf("config: fetch timeout %s exceeds interval %s", c.FetchTimeout, c.Interval)
	}
	if len(c.Families) == 0 {
		return errors.New("config: no address families")
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

func (c *Config) validateThresholds() error {
	if len(c.StartValues) == 0 && len(c.EndValues) == 0 {
		return nil
	}
	if len(c.StartValues) != len(c.EndValues) {
		return errors.New("config: start and end values must name the same families")
	}
	for family, start := range c.StartValues {
		end, ok := c.EndValues[family]
		if !ok {
			return fmt.Errorf("config: start value for %s without matching end value", family)
		}
		// Invalid ranges are a caller error, rejected before sampling rather
		// than surfaced per-result after a long run.
		if end <= start {
			return fmt.Errorf("config: %s end value %d must exceed start value %d", family, end, start)
		}
	}
	return nil
}

// HasThresholds reports whether convergence analysis was requested for the
// given family.
func (c *Config) HasThresholds(family string) bool {
	_, ok := c.StartValues[family]
	return ok
}

// ParseDeviceList expands a comma-separated target list into devices, each
// getting the configured gNMI port unless the entry carries its own.
func (c *Config) ParseDeviceList(targets string) {
	var devices []model.Device
	for _, entry := range strings.Split(targets, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		d := model.Device{Name: entry, Address: entry, Port: c.GNMIPort}
		if host, port, ok := splitHostPort(entry); ok {
			d.Name = host
			d.Address = host
			d.Port = port
		}
		devices = append(devices, d)
	}
	c.Devices = devices
}

// ParseThresholdLists pairs comma-separated start/end value lists with the
// configured families, positionally, the way the flag surface expresses them.
func (c *Config) ParseThresholdLists(startList, endList string) error {
	if startList == "" && endList == "" {
		return nil
	}
	starts, err := parseUintList(startList)
	if err != nil {
		return fmt.Errorf("config: start values: %w", err)
	}
	ends, err := parseUintList(endList)
	if err != nil {
		return fmt.Errorf("config: end values: %w", err)
	}
	if len(starts) != len(c.Families) || len(ends) != len(c.Families) {
		return fmt.Errorf("config: got %d start and %d end values for %d families",
			len(starts), len(ends), len(c.Families))
	}
	c.StartValues = make(map[string]uint64, len(starts))
	c.EndValues = make(map[string]uint64, len(ends))
	for i, f := range c.Families {
		c.StartValues[f] = starts[i]
		c.EndValues[f] = ends[i]
	}
	return nil
}

func parseUintList(list string) ([]uint64, error) {
	var out []uint64
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", field)
		}
		out = append(out, v)
	}
	return out, nil
}

func splitHostPort(entry string) (string, int, bool) {
	i := strings.LastIndex(entry, ":")
	if i < 0 || strings.Contains(entry, "]") || strings.Count(entry, ":") > 1 {
		// Bare IPv6 addresses keep the configured port.
		return "", 0, false
	}
	port, err := strconv.Atoi(entry[i+1:])
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, false
	}
	return entry[:i], port, true
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
