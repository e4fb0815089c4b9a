package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, read once at startup.
type Config struct {
	Port         int    `json:"port"`
	Env          string `json:"env"`
	Pepper       string `json:"pepper"`
	HMACKey      string `json:"hmac_key"`
	CSRFKey      string `json:"csrf_key"`
	PostsPerPage int    `json:"posts_per_page"`
	CacheSeconds int    `json:"cache_seconds"`

	Database PostgresConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type RedisConfig struct {
	Addr string `json:"addr"`
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func (pc PostgresConfig) ConnectionInfo() string {
	if pc.Password == "" {
		return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable",
			pc.Host, pc.Port, pc.User, pc.Name)
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.Name)
}

func DefaultConfig() Config {
	return Config{
		Port:         1111,
		Env:          "dev",
		Pepper:       "secret-random-string",
		HMACKey:      "secret-hmac-key",
		CSRFKey:      "32-byte-long-auth-key-for-csrf!!",
		PostsPerPage: 10,
		CacheSeconds: 20,
		Database:     DefaultPostgresConfig(),
		Redis:        RedisConfig{Addr: "localhost:6379"},
	}
}

func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "",
		Name:     "microblog",
	}
}

// LoadConfig loads configuration from a .config.json file if present,
// otherwise it uses the default dev setup. With prodRequired set, a missing
// file is fatal, so production can never silently run with dev secrets.
// A .env file and individual environment variables override file values for
// the settings that change per deployment.
func LoadConfig(prodRequired bool) Config {
	// Ignore the error: a missing .env file just means plain process env.
	_ = godotenv.Load()

	c := DefaultConfig()
	f, err := os.Open(".config.json")
	if err != nil {
		if prodRequired {
			panic(".config.json is required in production")
		}
	} else {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			panic(err)
		}
	}
	c.applyEnvOverrides()
	return c
}

// applyEnvOverrides lets the environment win over the config file for the
// values that differ between deployments.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MICROBLOG_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("MICROBLOG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("MICROBLOG_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("MICROBLOG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("MICROBLOG_DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("MICROBLOG_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("MICROBLOG_DB_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv("MICROBLOG_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}
