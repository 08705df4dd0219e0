// This file defines the configuration structure for the application.
package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/vrsandeep/xwc-settings/internal/models"
	"gitlab.com/tozd/go/errors"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port     int    `mapstructure:"port" validate:"gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Database struct {
		Driver      string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
		Path        string `mapstructure:"path" validate:"required_if=Driver sqlite"`
		URL         string `mapstructure:"url" validate:"required_if=Driver postgres"`
		ValueFormat string `mapstructure:"value_format" validate:"oneof=serialized json"`
	} `mapstructure:"database"`
	Settings struct {
		Page           string   `mapstructure:"page" validate:"required_without=API"`
		API            string   `mapstructure:"api"`
		ReloadInterval int      `mapstructure:"reload_interval" validate:"gte=0"`
		Watch          bool     `mapstructure:"watch"`
		NestedFields   []string `mapstructure:"nested_fields"`
	} `mapstructure:"settings"`
	Plugins struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"plugins"`
	Admin struct {
		Username     string `mapstructure:"username"`
		PasswordHash string `mapstructure:"password_hash"`
	} `mapstructure:"admin"`
	Pages []PageConfig `mapstructure:"pages" validate:"dive"`
	Forms []FormConfig `mapstructure:"forms" validate:"dive"`
}

// PageConfig describes one settings page and the sections it owns.
type PageConfig struct {
	ID           string          `mapstructure:"id" validate:"required"`
	Label        string          `mapstructure:"label"`
	KeyMask      string          `mapstructure:"key_mask"`
	NestedFields []string        `mapstructure:"nested_fields"`
	Sections     []SectionConfig `mapstructure:"sections" validate:"dive"`
}

// SectionConfig is a tab of a settings page.
type SectionConfig struct {
	ID       string         `mapstructure:"id"`
	Name     string         `mapstructure:"name" validate:"required"`
	Priority int            `mapstructure:"priority"`
	Enabled  *bool          `mapstructure:"enabled"`
	Fields   []models.Field `mapstructure:"fields"`
}

// FormConfig describes a settings API form owned by the plugin named in
// settings.api.
type FormConfig struct {
	ID          string         `mapstructure:"id" validate:"required"`
	Kind        string         `mapstructure:"kind" validate:"oneof=gateway integration"`
	Title       string         `mapstructure:"title"`
	Description string         `mapstructure:"description"`
	Fields      []models.Field `mapstructure:"fields"`
}

// IsEnabled reports whether the section is shown. Sections are enabled
// unless configured otherwise.
func (s SectionConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	return load(v)
}

// LoadFile reads configuration from the given file instead of the
// current directory.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Load()
	}
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// --- Environment Variable Overrides ---
	// e.g., XWC_DATABASE_PATH will override the `database.path` key.
	v.SetEnvPrefix("XWC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./xwc.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.value_format", "serialized")
	v.SetDefault("settings.page", "")
	v.SetDefault("settings.api", "")
	v.SetDefault("settings.reload_interval", 0)
	v.SetDefault("settings.watch", false)
	v.SetDefault("plugins.path", "./plugins")
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password_hash", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return nil, errors.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Errorf("invalid config: %w", err)
	}
	return nil
}
