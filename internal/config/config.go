package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	ServerPort      string
	StoreDriver     string
	MySQLDSN        string
	SQLitePath      string
	ResetDB         bool
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	JWTSecret       string
	TokenTTL        time.Duration
	CacheTTL        time.Duration
	ShutdownTimeout time.Duration
	SwaggerHost     string
}

// Load builds Config from the environment with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("config.godotenv: %v", err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("STORE_DRIVER", DriverMySQL)
	v.SetDefault("MYSQL_DSN", "user:password@tcp(localhost:3306)/schools24?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("SQLITE_PATH", "schools24.db")
	v.SetDefault("RESET_DB", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("TOKEN_TTL", 7*24*time.Hour)
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("SWAGGER_HOST", "")
	v.AutomaticEnv()

	return &Config{
		AppEnv:          v.GetString("APP_ENV"),
		ServerPort:      v.GetString("SERVER_PORT"),
		StoreDriver:     v.GetString("STORE_DRIVER"),
		MySQLDSN:        v.GetString("MYSQL_DSN"),
		SQLitePath:      v.GetString("SQLITE_PATH"),
		ResetDB:         v.GetBool("RESET_DB"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisDB:         v.GetInt("REDIS_DB"),
		RedisPass:       v.GetString("REDIS_PASSWORD"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		TokenTTL:        v.GetDuration("TOKEN_TTL"),
		CacheTTL:        v.GetDuration("CACHE_TTL"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		SwaggerHost:     v.GetString("SWAGGER_HOST"),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
