package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string
	Timezone    string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	CookieSecure     bool
	CORSOrigins      []string
	CSRFEnabled      bool

	AdminGatePasswordHash string
	AdminGatePassword     string
	AdminGateSecret       []byte
	AdminGateTTL          time.Duration

	KafkaBrokers []string

	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioPublicURL string
	MinioUseSSL    bool
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		Timezone:    EnvDefault("TIMEZONE", "UTC"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		CookieSecure:     EnvBoolDefault("COOKIE_SECURE", true),
		CORSOrigins:      CSV(os.Getenv("CORS_ORIGINS")),
		CSRFEnabled:      EnvBoolDefault("CSRF_ENABLED", true),

		AdminGatePasswordHash: os.Getenv("ADMIN_GATE_PASSWORD_HASH"),
		AdminGatePassword:     os.Getenv("ADMIN_GATE_PASSWORD"),
		AdminGateSecret:       []byte(os.Getenv("ADMIN_GATE_SECRET")),
		AdminGateTTL:          EnvDurationDefault("ADMIN_GATE_TTL", 8*time.Hour),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      EnvDurationDefault("CACHE_TTL", 5*time.Minute),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    EnvDefault("MINIO_BUCKET", "carousel"),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),
		MinioUseSSL:    EnvBoolDefault("MINIO_USE_SSL", false),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
