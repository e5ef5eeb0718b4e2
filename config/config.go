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
	Engine        EngineConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Server        ServerConfiguration
}

// EngineConfiguration stores bulk-execution tunables
type EngineConfiguration struct {
	BatchSize        int
	ContinueOnError  bool
	MaxRetries       int
	RetryBaseDelay   string
	RetryMaxDelay    string
	ItemTimeout      string
	SnapshotInterval string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	Password        string
	DB              int
	DefaultCacheTTL string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// ServerConfiguration stores settings for the status server
type ServerConfiguration struct {
	Port string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath(StateDir()) // path to look for the config file in
	viper.AddConfigPath(".")
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.SetEnvPrefix("idassign")
	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("engine.batchSize", 10)
	viper.SetDefault("engine.continueOnError", true)
	viper.SetDefault("engine.maxRetries", 3)
	viper.SetDefault("engine.retryBaseDelay", "1s")
	viper.SetDefault("engine.retryMaxDelay", "60s")
	viper.SetDefault("engine.itemTimeout", "5m")
	viper.SetDefault("engine.snapshotInterval", "5s")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("server.port", "8080")

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

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// StateDir is the per-user directory holding config, logs, and progress
// snapshots.
func StateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".idassign"
	}
	return filepath.Join(home, ".idassign")
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
