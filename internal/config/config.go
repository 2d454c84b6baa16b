package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service settings.
type Config struct {
	Port      int
	DB        DB
	Kafka     Kafka
	AMQP      AMQP
	Dispatch  Dispatch
	RateLimit RateLimit
	Pprof     Pprof
}

// DB stores Postgres connection settings.
type DB struct {
	Host string
	Port string
	User string
	Pass string
	Name string
}

// DSN returns the pgx connection string.
func (d DB) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		d.User, d.Pass, d.Host, d.Port, d.Name)
}

// Kafka stores checkout-event consumer settings.
type Kafka struct {
	Brokers []string
	GroupID string
	Topic   string
}

// AMQP stores offer-notification publisher settings.
type AMQP struct {
	URL      string
	Exchange string
}

// Dispatch stores candidate selection settings.
type Dispatch struct {
	SearchRadiusKm float64
	SampleMaxAge   time.Duration
}

// RateLimit stores per-IP token bucket settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof stores debug endpoint settings.
type Pprof struct {
	Enabled bool
	Port    int
	User    string
	Pass    string
}

// Load reads configuration from .env (if present), then the environment,
// then command line flags. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      DefaultPort(),
		DB:        DefaultDB(),
		Kafka:     DefaultKafka(),
		AMQP:      DefaultAMQP(),
		Dispatch:  DefaultDispatch(),
		RateLimit: DefaultRateLimit(),
		Pprof:     DefaultPprof(),
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	if err := pflag.CommandLine.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = p
	}

	envStr("POSTGRES_HOST", &cfg.DB.Host)
	envStr("POSTGRES_PORT", &cfg.DB.Port)
	envStr("POSTGRES_USER", &cfg.DB.User)
	envStr("POSTGRES_PASSWORD", &cfg.DB.Pass)
	envStr("POSTGRES_DB", &cfg.DB.Name)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	envStr("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)
	envStr("KAFKA_TOPIC", &cfg.Kafka.Topic)

	envStr("AMQP_URL", &cfg.AMQP.URL)
	envStr("AMQP_EXCHANGE", &cfg.AMQP.Exchange)

	if v := os.Getenv("DISPATCH_SEARCH_RADIUS_KM"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid DISPATCH_SEARCH_RADIUS_KM: %w", err)
		}
		cfg.Dispatch.SearchRadiusKm = f
	}
	if v := os.Getenv("DISPATCH_SAMPLE_MAX_AGE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DISPATCH_SAMPLE_MAX_AGE: %w", err)
		}
		cfg.Dispatch.SampleMaxAge = d
	}

	if v := os.Getenv("RATE_LIMIT_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_ENABLED: %w", err)
		}
		cfg.RateLimit.Enabled = b
	}
	if v := os.Getenv("RATE_LIMIT_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RATE: %w", err)
		}
		cfg.RateLimit.Rate = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimit.Burst = n
	}
	if v := os.Getenv("RATE_LIMIT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_TTL: %w", err)
		}
		cfg.RateLimit.TTL = d
	}
	if v := os.Getenv("RATE_LIMIT_MAX_BUCKETS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_MAX_BUCKETS: %w", err)
		}
		cfg.RateLimit.MaxBuckets = n
	}

	if v := os.Getenv("PPROF_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PPROF_ENABLED: %w", err)
		}
		cfg.Pprof.Enabled = b
	}
	if v := os.Getenv("PPROF_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PPROF_PORT: %w", err)
		}
		cfg.Pprof.Port = p
	}
	envStr("PPROF_USER", &cfg.Pprof.User)
	envStr("PPROF_PASS", &cfg.Pprof.Pass)

	return nil
}

func validate(cfg *Config) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if _, err := strconv.Atoi(cfg.DB.Port); err != nil {
		return fmt.Errorf("invalid postgres port %q: %w", cfg.DB.Port, err)
	}
	if cfg.Dispatch.SearchRadiusKm <= 0 {
		return fmt.Errorf("invalid dispatch search radius: %v", cfg.Dispatch.SearchRadiusKm)
	}
	if cfg.Dispatch.SampleMaxAge <= 0 {
		return fmt.Errorf("invalid dispatch sample max age: %v", cfg.Dispatch.SampleMaxAge)
	}
	return nil
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
