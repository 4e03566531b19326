// Package config loads the typed service configuration. Values resolve in
// order: defaults registered here, an optional YAML file, then LEADFLOW_*
// environment variables (LEADFLOW_DATABASE_URL sets database.url).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "LEADFLOW"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds the run-state cache and run-lock connection. An empty
// URL disables Redis and falls back to in-process state.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StateTTL     time.Duration `mapstructure:"state_ttl"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	TaskTopic   string   `mapstructure:"task_topic"`
	AuditTopic  string   `mapstructure:"audit_topic"`
	Group       string   `mapstructure:"group"`
	Partitions  int32    `mapstructure:"partitions"`
	Replication int16    `mapstructure:"replication"`
}

type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	OutboxInterval  time.Duration `mapstructure:"outbox_interval"`
	OutboxBatchSize int           `mapstructure:"outbox_batch_size"`
}

// RetryConfig covers both retry layers: Call is applied around each
// provider request, Task around whole campaign runs.
type RetryConfig struct {
	Call CallRetryConfig `mapstructure:"call"`
	Task TaskRetryConfig `mapstructure:"task"`
}

type CallRetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Multiplier  time.Duration `mapstructure:"multiplier"`
	Min         time.Duration `mapstructure:"min"`
	Max         time.Duration `mapstructure:"max"`
}

type TaskRetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Base        time.Duration `mapstructure:"base"`
}

type ScoringConfig struct {
	DefaultThreshold int `mapstructure:"default_threshold"`
	NurtureFloor     int `mapstructure:"nurture_floor"`
}

type ProvidersConfig struct {
	RocketReach RocketReachConfig `mapstructure:"rocketreach"`
	Mailer      MailerConfig      `mapstructure:"mailer"`
	Breaker     BreakerConfig     `mapstructure:"breaker"`
}

type RocketReachConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MailerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	From    string        `mapstructure:"from"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("redis.state_ttl", 24*time.Hour)
	v.SetDefault("redis.lock_ttl", 30*time.Minute)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.task_topic", "leadflow.campaign-tasks")
	v.SetDefault("kafka.audit_topic", "leadflow.audit")
	v.SetDefault("kafka.group", "leadflow-workers")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication", 1)

	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.outbox_interval", time.Second)
	v.SetDefault("worker.outbox_batch_size", 100)

	v.SetDefault("retry.call.max_attempts", 3)
	v.SetDefault("retry.call.multiplier", time.Second)
	v.SetDefault("retry.call.min", 2*time.Second)
	v.SetDefault("retry.call.max", 10*time.Second)
	v.SetDefault("retry.task.max_attempts", 3)
	v.SetDefault("retry.task.base", time.Minute)

	v.SetDefault("scoring.default_threshold", 60)
	v.SetDefault("scoring.nurture_floor", 40)

	v.SetDefault("providers.rocketreach.base_url", "https://api.rocketreach.co/api/v2")
	v.SetDefault("providers.rocketreach.api_key", "")
	v.SetDefault("providers.rocketreach.timeout", 30*time.Second)
	v.SetDefault("providers.mailer.base_url", "https://api.resend.com")
	v.SetDefault("providers.mailer.api_key", "")
	v.SetDefault("providers.mailer.from", "")
	v.SetDefault("providers.mailer.timeout", 15*time.Second)
	v.SetDefault("providers.breaker.failure_threshold", 5)
	v.SetDefault("providers.breaker.success_threshold", 2)
	v.SetDefault("providers.breaker.cooldown", 30*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "leadflow")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith loads through a caller-supplied viper instance, so flags bound
// with BindPFlag take part in resolution.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that defaults cannot express.
func (c Config) Validate() error {
	var errs []error
	if c.Scoring.DefaultThreshold < 0 || c.Scoring.DefaultThreshold > 100 {
		errs = append(errs, fmt.Errorf("scoring.default_threshold must be within 0..100, got %d", c.Scoring.DefaultThreshold))
	}
	if c.Scoring.NurtureFloor < 0 || c.Scoring.NurtureFloor > c.Scoring.DefaultThreshold {
		errs = append(errs, fmt.Errorf("scoring.nurture_floor must be within 0..default_threshold, got %d", c.Scoring.NurtureFloor))
	}
	if c.Retry.Call.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.call.max_attempts must be at least 1"))
	}
	if c.Retry.Call.Min > c.Retry.Call.Max {
		errs = append(errs, errors.New("retry.call.min must not exceed retry.call.max"))
	}
	if c.Retry.Task.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.task.max_attempts must be at least 1"))
	}
	if c.Worker.Concurrency < 1 {
		errs = append(errs, errors.New("worker.concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}
