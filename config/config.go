// config/config.go
package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	API     APIConfiguration
	Console ConsoleConfiguration
	Session SessionConfiguration
	SMS     SMSConfiguration
}

// APIConfiguration stores the backend endpoint and request settings
type APIConfiguration struct {
	BaseURL string
	Timeout string
}

// ConsoleConfiguration stores refresh, debounce and export settings
type ConsoleConfiguration struct {
	RefreshInterval string
	SearchDebounce  string
	ExportDir       string
	PageLimit       int
}

// SessionConfiguration stores where the bearer token is persisted
type SessionConfiguration struct {
	TokenFile string
}

// SMSConfiguration controls the violation notification side effects
type SMSConfiguration struct {
	Enabled bool
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath(".")              // path to look for the config file in
	viper.AddConfigPath(configHome())     // ~/.tvms-console
	viper.SetConfigName("console")        // name of the config file (without extension)
	viper.SetConfigType("yaml")           // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("api.baseURL", "http://localhost:5000/api")
	viper.SetDefault("api.timeout", "15s")
	viper.SetDefault("console.refreshInterval", "30s")
	viper.SetDefault("console.searchDebounce", "300ms")
	viper.SetDefault("console.exportDir", ".")
	viper.SetDefault("console.pageLimit", 20)
	viper.SetDefault("session.tokenFile", filepath.Join(configHome(), "token"))
	viper.SetDefault("sms.enabled", true)
	viper.SetDefault("audit.file", filepath.Join(configHome(), "audit.log"))
	viper.SetDefault("log.dir", "logging")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

func configHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".tvms-console")
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
