package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App      App      `yaml:"app"      env-prefix:"APP_"`
		Logger   Logger   `yaml:"logger"   env-prefix:"LOGGER_"`
		HTTP     HTTP     `yaml:"http"     env-prefix:"HTTP_"`
		Gateway  Gateway  `yaml:"gateway"  env-prefix:"GATEWAY_"`
		Notify   Notify   `yaml:"notify"   env-prefix:"NOTIFY_"`
		Pending  Pending  `yaml:"pending"  env-prefix:"PENDING_"`
		Webhook  Webhook  `yaml:"webhook"  env-prefix:"WEBHOOK_"`
		Kafka    Kafka    `yaml:"kafka"    env-prefix:"KAFKA_"`
		Metrics  Metrics  `yaml:"metrics"  env-prefix:"METRICS_"`
		Env      string   `yaml:"env"      env:"ENV" env-default:"local" validate:"oneof=local dev staging prod"`
	}

	App struct {
		Name    string `yaml:"name"    env:"NAME"    validate:"required" env-default:"checkout-service"`
		Version string `yaml:"version" env:"VERSION" validate:"required" env-default:"dev"`
	}

	HTTP struct {
		Host              string        `yaml:"host"                env:"HOST"                validate:"required"                 env-default:"0.0.0.0"`
		Port              string        `yaml:"port"                env:"PORT"                validate:"required,gte=1,lte=65535" env-default:"8080"`
		ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        validate:"gte=10ms,lte=30s"         env-default:"5s"`
		WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       validate:"gte=10ms,lte=60s"         env-default:"30s"`
		IdleTimeout       time.Duration `yaml:"idle_timeout"        env:"IDLE_TIMEOUT"        validate:"gte=10ms,lte=120s"        env-default:"60s"`
		ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SHUTDOWN_TIMEOUT"    validate:"gte=10ms,lte=30s"         env-default:"10s"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gte=10ms,lte=30s"         env-default:"5s"`
		RequestTimeout    time.Duration `yaml:"request_timeout"     env:"REQUEST_TIMEOUT"     validate:"gte=100ms,lte=60s"        env-default:"20s"`
	}

	// Gateway holds the payment provider credentials. KeySecret and
	// WebhookSecret are never serialized back to clients.
	Gateway struct {
		BaseURL       string        `yaml:"base_url"       env:"BASE_URL"       validate:"required,url" env-default:"https://api.razorpay.com"`
		KeyID         string        `yaml:"key_id"         env:"KEY_ID"         validate:"required"`
		KeySecret     string        `yaml:"key_secret"     env:"KEY_SECRET"     validate:"required"`
		WebhookSecret string        `yaml:"webhook_secret" env:"WEBHOOK_SECRET"`
		Currency      string        `yaml:"currency"       env:"CURRENCY"       validate:"required,len=3" env-default:"INR"`
		Timeout       time.Duration `yaml:"timeout"        env:"TIMEOUT"        validate:"gte=100ms,lte=60s" env-default:"10s"`
	}

	Notify struct {
		WebhookURL string        `yaml:"webhook_url" env:"WEBHOOK_URL" validate:"omitempty,url"`
		Timeout    time.Duration `yaml:"timeout"     env:"TIMEOUT"     validate:"gte=100ms,lte=60s" env-default:"10s"`
		QueueSize  int           `yaml:"queue_size"  env:"QUEUE_SIZE"  validate:"min=1,max=10000"   env-default:"100"`
		Workers    int           `yaml:"workers"     env:"WORKERS"     validate:"min=1,max=64"      env-default:"2"`
	}

	Pending struct {
		Capacity        int           `yaml:"capacity"         env:"CAPACITY"         validate:"required,min=1,max=1000000" env-default:"10000"`
		TTL             time.Duration `yaml:"ttl"              env:"TTL"              validate:"required,gt=0s,lte=24h"     env-default:"1h"`
		CleanupInterval time.Duration `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL" validate:"gt=0s,lte=24h"              env-default:"1m"`
	}

	Webhook struct {
		DedupCapacity int           `yaml:"dedup_capacity" env:"DEDUP_CAPACITY" validate:"min=1,max=1000000" env-default:"10000"`
		DedupTTL      time.Duration `yaml:"dedup_ttl"      env:"DEDUP_TTL"      validate:"gt=0s,lte=168h"    env-default:"24h"`
		MaxBodyBytes  int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" validate:"min=1024"          env-default:"1048576"`
	}

	Kafka struct {
		Enabled         bool          `yaml:"enabled"           env:"ENABLED"           env-default:"false"`
		Brokers         []string      `yaml:"brokers"           env:"BROKERS"           validate:"required_if=Enabled true,dive,hostname_port" env-separator:","`
		EventsTopic     string        `yaml:"events_topic"      env:"EVENTS_TOPIC"      env-default:"checkout.payments"`
		DeadLetterTopic string        `yaml:"dead_letter_topic" env:"DEAD_LETTER_TOPIC" env-default:"checkout.notifications.dlq"`
		BatchSize       int           `yaml:"batch_size"        env:"BATCH_SIZE"        validate:"min=1,max=1000"     env-default:"1"`
		BatchTimeout    time.Duration `yaml:"batch_timeout"     env:"BATCH_TIMEOUT"     validate:"gte=1ms,lte=30s"    env-default:"10ms"`
		WriteTimeout    time.Duration `yaml:"write_timeout"     env:"WRITE_TIMEOUT"     validate:"gte=1ms,lte=30s"    env-default:"2s"`
		ReadTimeout     time.Duration `yaml:"read_timeout"      env:"READ_TIMEOUT"      validate:"gte=1ms,lte=30s"    env-default:"2s"`
		EventBuffer     int           `yaml:"event_buffer"      env:"EVENT_BUFFER"      validate:"min=1,max=100000"   env-default:"1000"`
	}

	Metrics struct {
		Host              string        `yaml:"host"                env:"HOST"                validate:"required"                 env-default:"0.0.0.0"`
		Port              string        `yaml:"port"                env:"PORT"                validate:"required,gte=1,lte=65535" env-default:"9090"`
		ReadTimeout       time.Duration `yaml:"read_timeout"        env:"READ_TIMEOUT"        validate:"gte=10ms,lte=30s"         env-default:"5s"`
		WriteTimeout      time.Duration `yaml:"write_timeout"       env:"WRITE_TIMEOUT"       validate:"gte=10ms,lte=30s"         env-default:"5s"`
		ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT" validate:"gte=10ms,lte=30s"         env-default:"5s"`
	}

	Logger struct {
		Level      string `yaml:"level"       env:"LEVEL"       env-default:"info"                        validate:"oneof=debug info warn error"`
		Filename   string `yaml:"filename"    env:"FILENAME"    env-default:"./logs/checkout-service.log"`
		MaxSize    int    `yaml:"max_size"    env:"MAX_SIZE"    env-default:"100"                         validate:"min=1,max=1000"`
		MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS" env-default:"3"                           validate:"min=1,max=20"`
		MaxAge     int    `yaml:"max_age"     env:"MAX_AGE"     env-default:"28"                          validate:"min=1,max=365"`
	}
)

// Load reads the config file named by -config or CONFIG_PATH when one is
// given, otherwise the environment alone.
func Load() (*Config, error) {
	path := fetchConfigPath()
	if path == "" {
		return LoadEnv()
	}
	return LoadPath(path)
}

func LoadPath(configPath string) (*Config, error) {
	const op = "config.LoadPath"

	if configPath == "" {
		return nil, fmt.Errorf("%s: %w", op, errConfigPathEmpty)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	} else if err != nil {
		return nil, fmt.Errorf("%s: checking config file: %w", op, err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: read config: %w", op, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func LoadEnv() (*Config, error) {
	const op = "config.LoadEnv"

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: read env: %w", op, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

var errConfigPathEmpty = errors.New("config path is empty")

func validate(cfg *Config) error {
	v := validator.New()

	if err := v.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			validationErrors := make([]string, 0, len(validationErrs))
			for _, ve := range validationErrs {
				validationErrors = append(validationErrors,
					fmt.Sprintf("%s=%v must satisfy '%s'", ve.Namespace(), redact(ve), ve.Tag()))
			}
			return fmt.Errorf("config validation: %v", strings.Join(validationErrors, "; "))
		}
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

func redact(fe validator.FieldError) any {
	switch fe.Field() {
	case "KeySecret", "WebhookSecret":
		return "<redacted>"
	}
	return fe.Value()
}

func fetchConfigPath() string {
	var path string
	if f := flag.Lookup("config"); f != nil {
		path = f.Value.String()
	} else {
		flag.StringVar(&path, "config", "", "Path to config file")
		flag.Parse()
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}
