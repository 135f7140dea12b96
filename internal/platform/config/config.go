package config

import (
	"os"
	"strings"
	"time"

	"custos/pkg/domain"
)

// Config captures everything cmd/server needs to wire the service. Values
// come from the environment so main stays lean.
type Config struct {
	Addr string

	// LedgerID identifies this deployment. Secure whitelists opt in per
	// LedgerID; decisions from one deployment never inherit another's
	// accredited pool implicitly.
	LedgerID domain.LedgerID

	// Owner is the deployment's privileged identity at boot. Ownership is
	// transferable at runtime through the admin API.
	Owner domain.Account

	JWTSigningKey string

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig configures the optional shared-whitelist Redis backend.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the optional decision-event publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether Kafka publishing is configured.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// FromEnv builds a Config from environment variables.
func FromEnv() (Config, error) {
	addr := os.Getenv("CUSTOS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	owner, err := domain.ParseAccount(envDefault("CUSTOS_OWNER", "owner"))
	if err != nil {
		return Config{}, err
	}

	ledgerID := domain.NewLedgerID()
	if raw := os.Getenv("CUSTOS_LEDGER_ID"); raw != "" {
		ledgerID, err = domain.ParseLedgerID(raw)
		if err != nil {
			return Config{}, err
		}
	}

	jwtSigningKey := os.Getenv("CUSTOS_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default; override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("CUSTOS_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:          addr,
		LedgerID:      ledgerID,
		Owner:         owner,
		JWTSigningKey: jwtSigningKey,
		PostgresDSN:   os.Getenv("CUSTOS_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("CUSTOS_REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
			Topic:   envDefault("CUSTOS_KAFKA_TOPIC", ""),
		},
	}, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
