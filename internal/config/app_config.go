package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/lx/internal/types"
	"github.com/temirov/lx/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds listing defaults. Nil pointers and empty
// strings mean "not configured" so that later sources and flags can override.
type ApplicationConfiguration struct {
	Format         string              `mapstructure:"format"`
	Long           *bool               `mapstructure:"long"`
	Tree           *bool               `mapstructure:"tree"`
	Depth          *int                `mapstructure:"depth"`
	All            *bool               `mapstructure:"all"`
	Git            *bool               `mapstructure:"git"`
	CalculateSizes *bool               `mapstructure:"calculate_sizes"`
	Color          string              `mapstructure:"color"`
	Concurrency    *int                `mapstructure:"concurrency"`
	Copy           *bool               `mapstructure:"copy"`
	Paths          PathConfiguration   `mapstructure:"paths"`
	Status         StatusConfiguration `mapstructure:"status"`
}

// PathConfiguration configures inclusion and exclusion rules for path traversal.
type PathConfiguration struct {
	Exclude       []string `mapstructure:"exclude"`
	UseGitignore  *bool    `mapstructure:"use_gitignore"`
	UseIgnoreFile *bool    `mapstructure:"use_ignore"`
}

// StatusConfiguration tunes version-control status aggregation.
type StatusConfiguration struct {
	Precedence []string `mapstructure:"precedence"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Paths.Exclude = utils.DeduplicatePatterns(merged.Paths.Exclude)

	if _, precedenceErr := merged.StatusPrecedence(); precedenceErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("invalid status precedence: %w", precedenceErr)
	}

	return merged, nil
}

// StatusPrecedence parses the configured precedence, falling back to the default order.
func (config ApplicationConfiguration) StatusPrecedence() (types.StatusPrecedence, error) {
	return types.ParseStatusPrecedence(config.Status.Precedence)
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.Format != "" {
		result.Format = override.Format
	}
	if override.Long != nil {
		result.Long = cloneBool(override.Long)
	}
	if override.Tree != nil {
		result.Tree = cloneBool(override.Tree)
	}
	if override.Depth != nil {
		result.Depth = cloneInt(override.Depth)
	}
	if override.All != nil {
		result.All = cloneBool(override.All)
	}
	if override.Git != nil {
		result.Git = cloneBool(override.Git)
	}
	if override.CalculateSizes != nil {
		result.CalculateSizes = cloneBool(override.CalculateSizes)
	}
	if override.Color != "" {
		result.Color = override.Color
	}
	if override.Concurrency != nil {
		result.Concurrency = cloneInt(override.Concurrency)
	}
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	result.Paths = result.Paths.merge(override.Paths)
	if len(override.Status.Precedence) > 0 {
		result.Status.Precedence = append([]string{}, override.Status.Precedence...)
	}
	return result
}

func (config PathConfiguration) merge(override PathConfiguration) PathConfiguration {
	result := config
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.UseIgnoreFile != nil {
		result.UseIgnoreFile = cloneBool(override.UseIgnoreFile)
	}
	return result
}

// BoolOrDefault dereferences value, returning fallback when it is nil.
func BoolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

// IntOrDefault dereferences value, returning fallback when it is nil.
func IntOrDefault(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

// StringOrDefault returns value, or fallback when value is empty.
func StringOrDefault(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
