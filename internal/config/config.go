// Package config loads service configuration with viper: built-in defaults,
// then an optional file named by ORRERY_CONFIG, then ORRERY_* environment
// variables (ORRERY_CACHE_HORIZON sets cache.horizon).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/star/orrery/internal/auth"
	"github.com/star/orrery/internal/cache"
	"github.com/star/orrery/internal/control"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/ratelimit"
	"github.com/star/orrery/internal/session"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/stream"
	"github.com/star/orrery/internal/units"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ORRERY"

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Addr            string
	TrustProxy      bool
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Config is the complete service configuration.
type Config struct {
	HTTP      HTTPConfig
	Auth      auth.Config
	Session   session.Config
	Prop      propagation.PropConfig
	Cache     cache.Config
	Stream    stream.Config
	Control   control.Config
	RateLimit ratelimit.Config
	LogLevel  slog.Level
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.trust_proxy", false)
	v.SetDefault("http.cors_origins", []string{"*"})
	v.SetDefault("http.shutdown_timeout", "5s")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token", "")

	v.SetDefault("session.start", "now")
	v.SetDefault("session.speed", 10.0)
	v.SetDefault("session.playing", true)
	v.SetDefault("session.tick", "50ms")

	v.SetDefault("prop.workers", runtime.NumCPU())
	v.SetDefault("prop.step_days", 1.0)
	v.SetDefault("prop.horizon_days", 30.0)

	v.SetDefault("cache.buffer_days", 10.0)
	v.SetDefault("cache.interval", "250ms")

	v.SetDefault("stream.max_concurrent_per_ip", 10)
	v.SetDefault("stream.max_concurrent", 1000)
	v.SetDefault("stream.keepalive_interval", "30s")

	v.SetDefault("control.commands_per_second", 20.0)
	v.SetDefault("control.command_burst", 40)
	v.SetDefault("control.frame_interval", "100ms")
	v.SetDefault("control.ping_interval", "30s")
	v.SetDefault("control.max_conns_per_ip", 4)
	v.SetDefault("control.max_conns", 256)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.per_minute", 600)
	v.SetDefault("ratelimit.burst", 60)
	v.SetDefault("ratelimit.idle_expiry", "10m")

	s := units.DefaultScale()
	v.SetDefault("scale.km_per_render_unit", s.KmPerRenderUnit)
	v.SetDefault("scale.radius_factor", s.RadiusFactor)
	v.SetDefault("scale.distance_factor", s.DistanceFactor)
	v.SetDefault("scale.min_radius", float64(s.MinRadius))
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the environment and the optional file named
// by ORRERY_CONFIG.
func Load(logger *slog.Logger) (Config, error) {
	v := New()
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		logger.Info("loaded config file", "path", v.ConfigFileUsed())
	}
	return FromViper(v, logger)
}

// FromViper resolves a Config from v. Malformed values fall back to their
// defaults with a warning; only auth errors are fatal.
func FromViper(v *viper.Viper, logger *slog.Logger) (Config, error) {
	r := reader{v: v, logger: logger}
	var cfg Config

	cfg.LogLevel = r.level("log.level", slog.LevelInfo)

	cfg.HTTP = HTTPConfig{
		Addr:            v.GetString("http.addr"),
		TrustProxy:      r.boolean("http.trust_proxy", false),
		CORSOrigins:     r.list("http.cors_origins"),
		ShutdownTimeout: r.duration("http.shutdown_timeout", 5*time.Second),
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	authCfg, err := r.auth()
	if err != nil {
		return Config{}, err
	}
	cfg.Auth = authCfg

	cfg.Session = session.Config{
		Clock: simtime.Config{
			StartJD: r.startJD("session.start"),
			Speed:   r.positiveFloat("session.speed", 10),
			Playing: r.boolean("session.playing", true),
		},
		TickInterval: r.duration("session.tick", 50*time.Millisecond),
		Scale: units.Scale{
			KmPerRenderUnit: r.positiveFloat("scale.km_per_render_unit", 1e6),
			RadiusFactor:    r.positiveFloat("scale.radius_factor", 100),
			DistanceFactor:  r.positiveFloat("scale.distance_factor", 0.1),
			MinRadius:       units.RenderUnits(r.positiveFloat("scale.min_radius", 0.5)),
		},
	}
	if sp := cfg.Session.Clock.Speed; sp != simtime.ClampSpeed(sp) {
		logger.Warn("session.speed out of range, clamping", "value", sp, "clamped", simtime.ClampSpeed(sp))
		cfg.Session.Clock.Speed = simtime.ClampSpeed(sp)
	}

	cfg.Prop = propagation.PropConfig{
		Workers: r.positiveInt("prop.workers", runtime.NumCPU()),
		Step:    units.Days(r.positiveFloat("prop.step_days", 1)),
		Horizon: units.Days(r.positiveFloat("prop.horizon_days", 30)),
	}
	if cfg.Prop.Horizon < cfg.Prop.Step {
		logger.Warn("prop.horizon_days shorter than one step, using one step", "horizon_days", float64(cfg.Prop.Horizon), "step_days", float64(cfg.Prop.Step))
		cfg.Prop.Horizon = cfg.Prop.Step
	}

	cfg.Cache = cache.Config{
		Step:     cfg.Prop.Step,
		Horizon:  cfg.Prop.Horizon,
		Buffer:   units.Days(r.positiveFloat("cache.buffer_days", 10)),
		Interval: r.duration("cache.interval", 250*time.Millisecond),
	}

	cfg.Stream = stream.Config{
		MaxConcurrentPerIP: r.positiveInt("stream.max_concurrent_per_ip", 10),
		MaxConcurrent:      r.positiveInt("stream.max_concurrent", 1000),
		KeepaliveInterval:  r.duration("stream.keepalive_interval", 30*time.Second),
		TrustProxy:         cfg.HTTP.TrustProxy,
		Scale:              cfg.Session.Scale,
	}

	cfg.Control = control.Config{
		CommandsPerSecond: r.positiveFloat("control.commands_per_second", 20),
		CommandBurst:      r.positiveInt("control.command_burst", 40),
		FrameInterval:     r.duration("control.frame_interval", 100*time.Millisecond),
		PingInterval:      r.duration("control.ping_interval", 30*time.Second),
		AllowedOrigins:    cfg.HTTP.CORSOrigins,
		MaxConnsPerIP:     r.positiveInt("control.max_conns_per_ip", 4),
		MaxConns:          r.positiveInt("control.max_conns", 256),
		TrustProxy:        cfg.HTTP.TrustProxy,
	}

	cfg.RateLimit = ratelimit.Config{
		Enabled:    r.boolean("ratelimit.enabled", true),
		PerMinute:  r.positiveInt("ratelimit.per_minute", 600),
		Burst:      r.positiveInt("ratelimit.burst", 60),
		IdleExpiry: r.duration("ratelimit.idle_expiry", 10*time.Minute),
		TrustProxy: cfg.HTTP.TrustProxy,
	}

	logger.Info("config",
		"addr", cfg.HTTP.Addr,
		"auth_enabled", cfg.Auth.Enabled,
		"start_jd", float64(cfg.Session.Clock.StartJD),
		"speed", cfg.Session.Clock.Speed,
		"playing", cfg.Session.Clock.Playing,
		"workers", cfg.Prop.Workers,
		"step_days", float64(cfg.Prop.Step),
		"horizon_days", float64(cfg.Prop.Horizon),
		"buffer_days", float64(cfg.Cache.Buffer),
		"ratelimit_enabled", cfg.RateLimit.Enabled,
	)

	return cfg, nil
}

// reader reads typed values, warning and falling back on malformed input.
// Values are read as strings so environment input is validated the same way
// as file input.
type reader struct {
	v      *viper.Viper
	logger *slog.Logger
}

func (r reader) warn(key string, value any, def any) {
	r.logger.Warn("invalid config value, using default", "key", key, "value", value, "default", def)
}

func (r reader) positiveInt(key string, def int) int {
	s := r.v.GetString(key)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		r.warn(key, s, def)
		return def
	}
	return n
}

func (r reader) positiveFloat(key string, def float64) float64 {
	s := r.v.GetString(key)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !(f > 0) || math.IsInf(f, 0) {
		r.warn(key, s, def)
		return def
	}
	return f
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	s := r.v.GetString(key)
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		r.warn(key, s, def)
		return def
	}
	return d
}

func (r reader) boolean(key string, def bool) bool {
	s := r.v.GetString(key)
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		r.warn(key, s, def)
		return def
	}
	return b
}

// list accepts a slice from a file or a comma separated environment value.
func (r reader) list(key string) []string {
	var out []string
	for _, item := range r.v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (r reader) level(key string, def slog.Level) slog.Level {
	s := r.v.GetString(key)
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		r.warn(key, s, def.String())
		return def
	}
	return l
}

// startJD accepts "now", "j2000", a Julian day number or a date.
func (r reader) startJD(key string) units.JulianDay {
	s := strings.TrimSpace(r.v.GetString(key))
	switch strings.ToLower(s) {
	case "", "now":
		return simtime.DateToJulianDay(time.Now())
	case "j2000":
		return units.J2000
	}
	if jd, err := simtime.ParseJD(s); err == nil {
		return jd
	}
	if jd, err := simtime.ParseDate(s); err == nil {
		return jd
	}
	r.warn(key, s, "now")
	return simtime.DateToJulianDay(time.Now())
}

func (r reader) auth() (auth.Config, error) {
	cfg := auth.Config{}

	s := strings.TrimSpace(r.v.GetString("auth.enabled"))
	enabled, err := strconv.ParseBool(s)
	if err != nil {
		return cfg, errors.New("auth.enabled must be a boolean value (true/false/1/0)")
	}
	cfg.Enabled = enabled

	if cfg.Enabled {
		cfg.Token = r.v.GetString("auth.token")
		if cfg.Token == "" {
			return cfg, errors.New("auth.token is required when auth is enabled")
		}
		r.logger.Info("auth enabled")
	}

	return cfg, nil
}
