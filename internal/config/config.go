package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	Bank    BankConfig
	Session SessionConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// BankConfig locates the question corpus files.
type BankConfig struct {
	CorpusPath    string
	RecoveryGlobs []string
	StagingDir    string
}

type SessionConfig struct {
	Store        string // "file" or "sql"
	Dir          string
	CacheTTL     time.Duration
	DefaultCount int
}

type DBConfig struct {
	Driver        string // sqlite, postgres or oracle
	DSN           string
	MigrationsDir string
	AutoMigrate   bool
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("bank.corpus_path", "data/questions.json")
	v.SetDefault("bank.recovery_globs", []string{"data/recovery_questions*.json", "data/RECOVERY_*.json"})
	v.SetDefault("bank.staging_dir", "data/staging")
	v.SetDefault("session.store", "file")
	v.SetDefault("session.dir", "data/sessions")
	v.SetDefault("session.cache_ttl", 6*3600)
	v.SetDefault("session.default_count", 15)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/quiz.db")
	v.SetDefault("db.migrations_dir", "database/migrations")
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("auth.issuer", "quiz-engine")
}

// LoadConfig reads config.yaml (optional) and applies environment overrides.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	config := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: v.GetDuration("server.write_timeout") * time.Second,
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Bank: BankConfig{
			CorpusPath:    v.GetString("bank.corpus_path"),
			RecoveryGlobs: v.GetStringSlice("bank.recovery_globs"),
			StagingDir:    v.GetString("bank.staging_dir"),
		},
		Session: SessionConfig{
			Store:        v.GetString("session.store"),
			Dir:          v.GetString("session.dir"),
			CacheTTL:     v.GetDuration("session.cache_ttl") * time.Second,
			DefaultCount: v.GetInt("session.default_count"),
		},
		DB: DBConfig{
			Driver:        v.GetString("db.driver"),
			DSN:           v.GetString("db.dsn"),
			MigrationsDir: v.GetString("db.migrations_dir"),
			AutoMigrate:   v.GetBool("db.auto_migrate"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			Issuer:    v.GetString("auth.issuer"),
		},
	}

	// Override with environment variables if set
	if port := os.Getenv("SERVER_PORT"); port != "" {
		config.Server.Port = v.GetInt("SERVER_PORT")
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if env := os.Getenv("ENV"); env != "" {
		config.Logger.Env = env
	}
	if corpus := os.Getenv("BANK_CORPUS_PATH"); corpus != "" {
		config.Bank.CorpusPath = corpus
	}
	if store := os.Getenv("SESSION_STORE"); store != "" {
		config.Session.Store = store
	}
	if dir := os.Getenv("SESSION_DIR"); dir != "" {
		config.Session.Dir = dir
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		config.DB.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		config.DB.DSN = dsn
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if secret := os.Getenv("ADMIN_JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	return config
}

// MigrationsPath returns the migration directory for the configured driver.
func (c *Config) MigrationsPath() string {
	return filepath.Join(c.DB.MigrationsDir, c.DB.Driver)
}
