package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yukikurage/project-lifecycle-api/internal/constants"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	DB           DBConfig           `mapstructure:"db"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Session      SessionConfig      `mapstructure:"session"`
	OpenAI       OpenAIConfig       `mapstructure:"openai"`
	Mail         MailConfig         `mapstructure:"mail"`
	Notification NotificationConfig `mapstructure:"notification"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Log          LogConfig          `mapstructure:"log"`
}

type ServerConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"` // mysql | postgres
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type SessionConfig struct {
	Secret string `mapstructure:"secret"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// MailConfig configures SMTP delivery. An empty Host selects the log-only mailer.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	Workers  int    `mapstructure:"workers"`
	// DrainTimeout bounds how long shutdown waits for queued deliveries
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

type NotificationConfig struct {
	DedupWindow time.Duration `mapstructure:"dedup_window"`
}

type SchedulerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	DueSoonInterval time.Duration `mapstructure:"due_soon_interval"`
	OverdueInterval time.Duration `mapstructure:"overdue_interval"`
	DueSoonHorizon  time.Duration `mapstructure:"due_soon_horizon"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// Load reads config.yaml when present and applies environment overrides,
// e.g. DB_HOST or SCHEDULER_DUE_SOON_INTERVAL.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "debug")

	v.SetDefault("db.driver", "mysql")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 3306)
	v.SetDefault("db.user", "taskuser")
	v.SetDefault("db.password", "taskpassword")
	v.SetDefault("db.name", "project_management")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("session.secret", "default-secret-key-change-me")
	v.SetDefault("openai.api_key", "")

	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "no-reply@example.com")
	v.SetDefault("mail.workers", 4)
	v.SetDefault("mail.drain_timeout", "10s")

	v.SetDefault("notification.dedup_window", constants.DefaultDedupWindow)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.due_soon_interval", constants.DefaultDueSoonInterval)
	v.SetDefault("scheduler.overdue_interval", constants.DefaultOverdueInterval)
	v.SetDefault("scheduler.due_soon_horizon", constants.DefaultDueSoonHorizon)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}
