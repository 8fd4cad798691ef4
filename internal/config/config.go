package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	appName   = "synremote"
	envPrefix = "SYNREMOTE"
)

// Configuration keys
const (
	KeyServerURL         = "server.url"
	KeyUserID            = "server.user_id"
	KeyToken             = "server.token"
	KeyClientName        = "client.name"
	KeyClientVersion     = "client.version"
	KeyDeviceName        = "device.name"
	KeyPollInterval      = "poll.interval"
	KeyDispatchInterval  = "dispatch.interval"
	KeyFailsafeTimeout   = "reconcile.failsafe"
	KeyRotarySensitivity = "rotary.sensitivity"
	KeySeekStep          = "seek.step"
	KeyStateDir          = "state.dir"
	KeyArtworkDir        = "artwork.dir"
	KeyArtworkSize       = "artwork.size"
	KeyAPIListen         = "api.listen"
)

const (
	defaultPollInterval      = time.Second
	defaultDispatchInterval  = 60 * time.Millisecond
	defaultFailsafeTimeout   = 1500 * time.Millisecond
	defaultRotarySensitivity = 1.0
	defaultSeekStep          = 10
	defaultArtworkSize       = 128
)

var defaults = map[string]any{
	KeyServerURL:         "",
	KeyUserID:            "",
	KeyToken:             "",
	KeyClientName:        "synremote",
	KeyClientVersion:     "1.0.0",
	KeyDeviceName:        "",
	KeyPollInterval:      defaultPollInterval,
	KeyDispatchInterval:  defaultDispatchInterval,
	KeyFailsafeTimeout:   defaultFailsafeTimeout,
	KeyRotarySensitivity: defaultRotarySensitivity,
	KeySeekStep:          defaultSeekStep,
	KeyStateDir:          "~/.local/state/synremote",
	KeyArtworkDir:        "/tmp/synremote",
	KeyArtworkSize:       defaultArtworkSize,
	KeyAPIListen:         "127.0.0.1:8097",
}

// Source tells the loader where to look for the configuration file
type Source struct {
	// Fs is the filesystem the file is read from
	Fs afero.Fs
	// File is an explicit config file path; empty means <user config dir>/synremote/synremote.toml
	File string
}

// AppConfig holds application configuration
type AppConfig struct {
	logger *zap.Logger
	v      *viper.Viper
}

// NewAppConfig loads configuration from the config file, SYNREMOTE_* environment
// variables and built-in defaults, in decreasing priority
func NewAppConfig(logger *zap.Logger, src Source) (*AppConfig, error) {
	v := viper.New()
	if src.Fs == nil {
		src.Fs = afero.NewOsFs()
	}
	v.SetFs(src.Fs)

	if src.File != "" {
		v.SetConfigFile(expandPath(src.File))
	} else {
		v.SetConfigName(appName)
		v.SetConfigType("toml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, appName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.Debug("No config file found, using environment and defaults")
	}

	cfg := &AppConfig{logger: logger, v: v}

	logger.Info("Configuration loaded",
		zap.String("file", v.ConfigFileUsed()),
		zap.String("server", cfg.ServerURL()),
		zap.String("userId", cfg.UserID()),
		zap.Duration("pollInterval", cfg.PollInterval()),
		zap.Duration("dispatchInterval", cfg.DispatchInterval()),
		zap.String("stateDir", cfg.StateDir()))

	return cfg, nil
}

// ServerURL returns the media server base URL without a trailing slash
func (c *AppConfig) ServerURL() string {
	return strings.TrimRight(c.v.GetString(KeyServerURL), "/")
}

// UserID returns the id of the authenticated user
func (c *AppConfig) UserID() string {
	return c.v.GetString(KeyUserID)
}

// Token returns the configured access token
func (c *AppConfig) Token() string {
	return c.v.GetString(KeyToken)
}

// ClientName returns the client name reported to the server
func (c *AppConfig) ClientName() string {
	return c.v.GetString(KeyClientName)
}

// ClientVersion returns the client version reported to the server
func (c *AppConfig) ClientVersion() string {
	return c.v.GetString(KeyClientVersion)
}

// DeviceName returns the device name reported to the server, defaulting to the hostname
func (c *AppConfig) DeviceName() string {
	if name := c.v.GetString(KeyDeviceName); name != "" {
		return name
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return appName
}

// PollInterval returns the session polling period
func (c *AppConfig) PollInterval() time.Duration {
	return c.positiveDuration(KeyPollInterval, defaultPollInterval)
}

// DispatchInterval returns the minimum spacing of throttled commands
func (c *AppConfig) DispatchInterval() time.Duration {
	return c.positiveDuration(KeyDispatchInterval, defaultDispatchInterval)
}

// FailsafeTimeout returns how long an optimistic edit may stay unconfirmed
func (c *AppConfig) FailsafeTimeout() time.Duration {
	return c.positiveDuration(KeyFailsafeTimeout, defaultFailsafeTimeout)
}

// RotarySensitivity returns the wheel magnitude that makes one volume step
func (c *AppConfig) RotarySensitivity() float64 {
	if s := c.v.GetFloat64(KeyRotarySensitivity); s > 0 {
		return s
	}
	return defaultRotarySensitivity
}

// SeekStep returns the relative seek step in seconds
func (c *AppConfig) SeekStep() int {
	if s := c.v.GetInt(KeySeekStep); s > 0 {
		return s
	}
	return defaultSeekStep
}

// StateDir returns the directory for persisted controller state
func (c *AppConfig) StateDir() string {
	return expandPath(c.v.GetString(KeyStateDir))
}

// ArtworkDir returns the directory for generated thumbnails
func (c *AppConfig) ArtworkDir() string {
	return expandPath(c.v.GetString(KeyArtworkDir))
}

// ArtworkSize returns the thumbnail edge length in pixels
func (c *AppConfig) ArtworkSize() int {
	if s := c.v.GetInt(KeyArtworkSize); s > 0 {
		return s
	}
	return defaultArtworkSize
}

// APIListen returns the listen address of the local control API
func (c *AppConfig) APIListen() string {
	return c.v.GetString(KeyAPIListen)
}

func (c *AppConfig) positiveDuration(key string, fallback time.Duration) time.Duration {
	d := c.v.GetDuration(key)
	if d <= 0 {
		c.logger.Warn("Invalid duration in configuration, using default",
			zap.String("key", key),
			zap.Duration("default", fallback))
		return fallback
	}
	return d
}

// expandPath expands environment variables and a leading ~
func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}
