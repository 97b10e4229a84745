package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	MetricsAddr string

	// PostgresURL enables the PostgreSQL stores when set; empty keeps the
	// in-memory stores (dev / tests).
	PostgresURL string

	// Redis backs the correlation table when configured; empty keeps the
	// in-memory table.
	Redis RedisConfig

	// KafkaBrokers enables the Kafka audit publisher when non-empty.
	KafkaBrokers    []string
	KafkaAuditTopic string

	JWTSigningKey string

	// CapabilityProofKey keys the dev capability's proof digests. Only used
	// when no external capability is wired in.
	CapabilityProofKey string

	AuditBuffer int
	LogJSON     bool
	LogDebug    bool
}

// RedisConfig captures Redis connection configuration.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SIGIL_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	metricsAddr := os.Getenv("SIGIL_METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9090"
	}

	jwtSigningKey := os.Getenv("SIGIL_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	proofKey := os.Getenv("SIGIL_CAPABILITY_PROOF_KEY")
	if proofKey == "" {
		proofKey = "dev-capability-proof-key"
	}

	var brokers []string
	if raw := os.Getenv("SIGIL_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("SIGIL_KAFKA_AUDIT_TOPIC")
	if topic == "" {
		topic = "sigil.audit"
	}

	return Server{
		Addr:               addr,
		MetricsAddr:        metricsAddr,
		PostgresURL:        os.Getenv("SIGIL_POSTGRES_URL"),
		Redis:              redisFromEnv(),
		KafkaBrokers:       brokers,
		KafkaAuditTopic:    topic,
		JWTSigningKey:      jwtSigningKey,
		CapabilityProofKey: proofKey,
		AuditBuffer:        envInt("SIGIL_AUDIT_BUFFER", 1024),
		LogJSON:            os.Getenv("SIGIL_LOG_JSON") == "true",
		LogDebug:           os.Getenv("SIGIL_LOG_DEBUG") == "true",
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("SIGIL_REDIS_URL"),
		PoolSize:     envInt("SIGIL_REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("SIGIL_REDIS_MIN_IDLE", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
