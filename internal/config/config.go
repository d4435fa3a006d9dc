package config

import (
	"os"      // For environment variables
	"strconv" // For string to number conversion
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	Game GameConfig // Wheel, jackpot and withdrawal policy
}

// GameConfig holds the game economy settings
type GameConfig struct {
	JackpotIncrementPerMinute int64         // XD added to the jackpot per whole elapsed minute
	MinWithdraw               int64         // Minimum withdrawal in reward units (RBX)
	ExchangeRate              int64         // XD per reward unit
	GamepassFeeRate           float64       // Platform fee taken from a Gamepass sale
	ReferralBonusRate         float64       // Share of a referred withdrawal paid to the referrer
	NotificationCap           int           // Max notifications kept per record, 0 keeps all
	OutboxRetryInterval       time.Duration // How often failed record writes are retried
	OutboxMaxAttempts         int           // Attempts before a failed write is dropped
}

// DefaultGameConfig returns the reference economy
func DefaultGameConfig() GameConfig {
	return GameConfig{
		JackpotIncrementPerMinute: 100,
		MinWithdraw:               7,
		ExchangeRate:              100,
		GamepassFeeRate:           0.40,
		ReferralBonusRate:         0.10,
		NotificationCap:           0,
		OutboxRetryInterval:       30 * time.Second,
		OutboxMaxAttempts:         10,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	def := DefaultGameConfig()
	return &Config{
		AppPort:    envString("APP_PORT", "8080"),  // Application port
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     os.Getenv("DB_HOST"),           // Database host
		DBPort:     os.Getenv("DB_PORT"),           // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:    redisDB,                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true", // Is production environment
		Game: GameConfig{
			JackpotIncrementPerMinute: envInt64("JACKPOT_INCREMENT_PER_MINUTE", def.JackpotIncrementPerMinute),
			MinWithdraw:               envInt64("MIN_WITHDRAW", def.MinWithdraw),
			ExchangeRate:              envInt64("EXCHANGE_RATE", def.ExchangeRate),
			GamepassFeeRate:           envFloat("GAMEPASS_FEE_RATE", def.GamepassFeeRate),
			ReferralBonusRate:         envFloat("REFERRAL_BONUS_RATE", def.ReferralBonusRate),
			NotificationCap:           int(envInt64("NOTIFICATION_CAP", int64(def.NotificationCap))),
			OutboxRetryInterval:       envDuration("OUTBOX_RETRY_INTERVAL", def.OutboxRetryInterval),
			OutboxMaxAttempts:         int(envInt64("OUTBOX_MAX_ATTEMPTS", int64(def.OutboxMaxAttempts))),
		},
	}
}

// DSN builds the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
