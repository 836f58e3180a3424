// This file defines the configuration structure for the application.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/vrsandeep/plugin-host/internal/descriptor"
)

// EnvPrefix prefixes every environment override, e.g. PLUGINHOST_PLUGINS_PATH.
const EnvPrefix = "PLUGINHOST"

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port int `mapstructure:"port" validate:"gte=1,lte=65535"`
	Host struct {
		// SDKVersion is the plugin API version this host implements.
		SDKVersion string `mapstructure:"sdk_version" validate:"required,sdkversion"`
		// MinSDKVersion rejects plugins that target an older API. Empty accepts all.
		MinSDKVersion string `mapstructure:"min_sdk_version" validate:"omitempty,sdkversion"`
	} `mapstructure:"host"`
	Plugins struct {
		Path         string `mapstructure:"path" validate:"required"`
		Watch        bool   `mapstructure:"watch"`
		ScanInterval int    `mapstructure:"scan_interval" validate:"gte=0"` // minutes, 0 disables
	} `mapstructure:"plugins"`
	Database struct {
		Path string `mapstructure:"path" validate:"required"`
	} `mapstructure:"database"`
	Diagnostics struct {
		RetentionDays int `mapstructure:"retention_days" validate:"gte=0"` // 0 keeps everything
	} `mapstructure:"diagnostics"`
	Log struct {
		Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error"`
		Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	} `mapstructure:"log"`
}

// HostSDK parses Host.SDKVersion.
func (c *Config) HostSDK() (descriptor.SDKVersion, error) {
	return descriptor.ParseSDKVersion(c.Host.SDKVersion)
}

// HostMinimumSDK parses Host.MinSDKVersion; the zero version when unset.
func (c *Config) HostMinimumSDK() (descriptor.SDKVersion, error) {
	if strings.TrimSpace(c.Host.MinSDKVersion) == "" {
		return descriptor.SDKVersion{}, nil
	}
	return descriptor.ParseSDKVersion(c.Host.MinSDKVersion)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("host.sdk_version", "5.0")
	v.SetDefault("host.min_sdk_version", "")
	v.SetDefault("plugins.path", "./plugins")
	v.SetDefault("plugins.watch", true)
	v.SetDefault("plugins.scan_interval", 60)
	v.SetDefault("database.path", "./plugin-host.db")
	v.SetDefault("diagnostics.retention_days", 30)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration from path, or from a file named "config.yml" in
// the current directory when path is empty, and unmarshals it into a Config.
// A missing config.yml is not an error; defaults and environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // name of config file (without extension)
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}

	// e.g., PLUGINHOST_DATABASE_PATH will override the `database.path` key.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

var validate = func() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("sdkversion", func(fl validator.FieldLevel) bool {
		_, err := descriptor.ParseSDKVersion(fl.Field().String())
		return err == nil
	})
	return val
}()

// Validate checks value ranges after defaults and overrides are applied.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
