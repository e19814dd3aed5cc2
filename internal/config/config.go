package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Audit    AuditConfig    `yaml:"audit"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// AuditConfig 审计库专用的服务级账号；为空时回退主库连接。
type AuditConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

func Load(configFile string) *Config {
	c := &Config{
		Server:   ServerConfig{Port: 9872, JWTSecret: "smart-inventory-secret-2026"},
		LLM:      LLMConfig{Model: "qwen-plus"},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, Name: "smart_inventory"},
	}

	paths := []string{"etc/config-dev.yaml", "/etc/smart-inventory/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.LLM.BaseURL, "LLM_BASE_URL")
	envOverride(&c.LLM.APIKey, "LLM_API_KEY")
	envOverride(&c.LLM.Model, "LLM_MODEL")
	envOverride(&c.Database.Host, "PG_HOST")
	envOverride(&c.Database.User, "PG_USER")
	envOverride(&c.Database.Password, "PG_PASS")
	envOverride(&c.Database.Name, "PG_DB")
	envOverride(&c.Audit.User, "AUDIT_USER")
	envOverride(&c.Audit.Password, "AUDIT_PASS")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Server.JWTSecret, "JWT_SECRET")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "PG_PORT")

	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) dsn(user, password string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host, c.Database.Port, user, password, c.Database.Name)
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	return c.openGorm(c.Database.User, c.Database.Password)
}

// OpenAuditDB 用服务级账号打开审计库连接；未配置时返回 nil，调用方回退主连接。
func (c *Config) OpenAuditDB() (*gorm.DB, error) {
	if c.Audit.User == "" {
		return nil, nil
	}
	return c.openGorm(c.Audit.User, c.Audit.Password)
}

func (c *Config) openGorm(user, password string) (*gorm.DB, error) {
	pgxCfg, err := pgx.ParseConfig(c.dsn(user, password))
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	sqlDB := sql.OpenDB(stdlib.GetConnector(*pgxCfg))
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
