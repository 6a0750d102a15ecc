package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dotcommander/assesskit/internal/model"
)

// Fail-on policies for batch evaluation.
const (
	FailOnNever        = "never"
	FailOnUnresolved   = "unresolved"
	FailOnNoncompliant = "noncompliant"
)

// Config represents the assesskit configuration
type Config struct {
	Root           string        `mapstructure:"root"`
	FollowSymlinks bool          `mapstructure:"followSymlinks"`
	Format         string        `mapstructure:"format"`
	Output         string        `mapstructure:"output"`
	FailOn         string        `mapstructure:"failOn"`
	Quiet          bool          `mapstructure:"quiet"`
	Verbose        bool          `mapstructure:"verbose"`
	Concurrency    int           `mapstructure:"concurrency"`
	StoreDir       string        `mapstructure:"storeDir"`
	Baseline       string        `mapstructure:"baseline"`
	Schemas        SchemaConfig  `mapstructure:"schemas"`
	Profile        ProfileConfig `mapstructure:"profile"`
	Token          string        `mapstructure:"token" json:"-"`
}

// SchemaConfig contains schema configuration
type SchemaConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ProfileConfig is the acting user. It becomes the submitter of every
// assessment saved through the wizard.
type ProfileConfig struct {
	Name        string `mapstructure:"name"`
	Surname     string `mapstructure:"surname"`
	Affiliation string `mapstructure:"affiliation"`
	ORCID       string `mapstructure:"orcid"`
}

// ModelProfile converts to the document representation.
func (p ProfileConfig) ModelProfile() model.Profile {
	return model.Profile{
		Name:        p.Name,
		Surname:     p.Surname,
		Affiliation: p.Affiliation,
		ORCID:       p.ORCID,
	}
}

// LoadConfig loads configuration from defaults, the first config file found
// in the working directory, and ASSESSKIT_* environment variables.
func LoadConfig(rootPath string) (*Config, error) {
	viper.SetDefault("root", ".")
	viper.SetDefault("followSymlinks", false)
	viper.SetDefault("format", "console")
	viper.SetDefault("output", "")
	viper.SetDefault("failOn", FailOnNoncompliant)
	viper.SetDefault("quiet", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("concurrency", 10)
	viper.SetDefault("storeDir", ".assesskit/store")
	viper.SetDefault("baseline", "")
	viper.SetDefault("schemas.enabled", true)
	viper.SetDefault("profile.name", "")
	viper.SetDefault("profile.surname", "")
	viper.SetDefault("profile.affiliation", "")
	viper.SetDefault("profile.orcid", "")
	viper.SetDefault("token", "")

	configPaths := []string{".assesskitrc.json", ".assesskitrc.yaml", ".assesskitrc.yml"}
	for _, path := range configPaths {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err == nil {
			break
		}
	}

	viper.SetEnvPrefix("ASSESSKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if rootPath != "" {
		config.Root = rootPath
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	switch config.Format {
	case "console", "json", "markdown":
	default:
		return fmt.Errorf("invalid format: %s. Must be 'console', 'json', or 'markdown'", config.Format)
	}

	switch config.FailOn {
	case FailOnNever, FailOnUnresolved, FailOnNoncompliant:
	default:
		return fmt.Errorf("invalid fail-on policy: %s. Must be 'never', 'unresolved', or 'noncompliant'", config.FailOn)
	}

	if config.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	if config.Quiet && config.Verbose {
		return fmt.Errorf("quiet and verbose are mutually exclusive")
	}

	return nil
}

// SaveConfig saves the configuration to a file. The token is never written.
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
