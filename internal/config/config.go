package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dormhub/service-booking/internal/platform/database"
	"github.com/spf13/viper"
)

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds the optional distributed lock backend. An empty Addr
// selects the in-process lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LockConfig bounds how long a booking lock is held and awaited.
type LockConfig struct {
	TTL  time.Duration
	Wait time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	MigrationsDir string
	DBConfig      database.PostgresConfig
	KafkaConfig   KafkaConfig
	RedisConfig   RedisConfig
	LockConfig    LockConfig
}

// IsDevelopment reports whether the service runs with dev conveniences
// (console logs, auto-migrate).
func (c *ServiceConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration from BOOKING_-prefixed environment variables,
// falling back to defaults suitable for local development.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	port := v.GetString("service_port")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	brokers := splitList(v.GetString("kafka_brokers"))
	if len(brokers) == 0 {
		return nil, fmt.Errorf("BOOKING_KAFKA_BROKERS must list at least one broker")
	}

	lockCfg := LockConfig{
		TTL:  v.GetDuration("lock_ttl"),
		Wait: v.GetDuration("lock_wait"),
	}
	if lockCfg.TTL <= 0 || lockCfg.Wait <= 0 {
		return nil, fmt.Errorf("BOOKING_LOCK_TTL and BOOKING_LOCK_WAIT must be positive")
	}

	return &ServiceConfig{
		Port:          port,
		AppEnv:        v.GetString("app_env"),
		MigrationsDir: v.GetString("migrations_dir"),
		DBConfig: database.PostgresConfig{
			Host:            v.GetString("db_host"),
			Port:            v.GetString("db_port"),
			User:            v.GetString("db_user"),
			Password:        v.GetString("db_password"),
			DBName:          v.GetString("db_name"),
			SSLMode:         v.GetString("db_sslmode"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     brokers,
			GroupPrefix: v.GetString("kafka_group_prefix"),
		},
		RedisConfig: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		LockConfig: lockCfg,
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("migrations_dir", "migrations")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "dormhub_booking")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", "5m")

	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_group_prefix", "dormhub-")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("lock_ttl", "10s")
	v.SetDefault("lock_wait", "3s")
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
