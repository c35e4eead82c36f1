package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Queue    QueueConfig
	Auth     AuthConfig
	Storage  StorageConfig
	App      AppSettings
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxConns    int32
	MinConns    int32
	AutoMigrate bool
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// QueueConfig 選擇 ticket activity 的傳輸方式: memory, redis 或 kafka
type QueueConfig struct {
	Driver       string
	ConsumerID   string
	StreamMaxLen int64
}

// AuthConfig selects how bearer credentials are verified.
// Mode "hmac" checks HS256 tokens against JWTSecret; mode "oidc" verifies against OIDCIssuer.
type AuthConfig struct {
	Mode          string
	JWTSecret     string
	OIDCIssuer    string
	OIDCClientID  string
	UsernameClaim string
	CacheTTL      time.Duration
}

type StorageConfig struct {
	UploadDir     string
	PublicBaseURL string
	MaxImageBytes int64
}

type AppSettings struct {
	Timezone string
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	AppConfig = &Config{
		Server:   GetServerConfig(),
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
		Kafka:    GetKafkaConfig(),
		Queue: QueueConfig{
			Driver:       getEnv("QUEUE_DRIVER", "redis"),
			ConsumerID:   getEnv("QUEUE_CONSUMER_ID", ""),
			StreamMaxLen: int64(getEnvInt("QUEUE_STREAM_MAXLEN", 100_000)),
		},
		Auth:    GetAuthConfig(),
		Storage: GetStorageConfig(),
		App: AppSettings{
			Timezone: getEnv("APP_TIMEZONE", "UTC"),
		},
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := &DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5433"), // 測試 DB 用 5433 port
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // 測試 Redis 用 6380 port
		Password: "",
		DB:       1,
	}

	return &Config{
		Database: *testConfig,
		Redis:    testRedisConfig,
		Queue:    QueueConfig{Driver: "memory"},
		Auth: AuthConfig{
			Mode:          "hmac",
			JWTSecret:     "test-secret",
			UsernameClaim: "preferred_username",
			CacheTTL:      time.Minute,
		},
		Storage: StorageConfig{
			UploadDir:     os.TempDir(),
			PublicBaseURL: "http://localhost:8080/uploads",
			MaxImageBytes: 5 * 1024 * 1024,
		},
		App: AppSettings{Timezone: "UTC"},
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port:         getEnv("PORT", ":8080"),
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        getEnv("DB_PORT", "5432"),
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "postgres"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    int32(getEnvInt("DB_MAX_CONNS", 25)),
		MinConns:    int32(getEnvInt("DB_MIN_CONNS", 5)),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func GetKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		Topic:   getEnv("KAFKA_TOPIC_TICKET_ACTIVITY", "ticket-activity"),
		GroupID: getEnv("KAFKA_GROUP_ID", "attendance-workers"),
	}
}

func GetAuthConfig() AuthConfig {
	return AuthConfig{
		Mode:          getEnv("AUTH_MODE", "hmac"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		OIDCIssuer:    getEnv("OIDC_ISSUER", ""),
		OIDCClientID:  getEnv("OIDC_CLIENT_ID", ""),
		UsernameClaim: getEnv("JWT_USERNAME_CLAIM", "preferred_username"),
		CacheTTL:      getEnvDuration("AUTH_CACHE_TTL", 5*time.Minute),
	}
}

func GetStorageConfig() StorageConfig {
	return StorageConfig{
		UploadDir:     getEnv("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: getEnv("UPLOAD_PUBLIC_BASE_URL", "http://localhost:8080/uploads"),
		MaxImageBytes: int64(getEnvInt("UPLOAD_MAX_IMAGE_BYTES", 5*1024*1024)),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
