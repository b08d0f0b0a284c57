package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	SwaggerHost string

	// GatewayBaseURL is the hosted checkout page of the payment gateway.
	// The engine only creates sessions against it and consumes confirmations.
	GatewayBaseURL string

	// FreeIssueQuota is the number of issues a non-premium citizen may create.
	FreeIssueQuota int

	// SubscriptionAmount and BoostAmount are charged in BDT.
	SubscriptionAmount string
	BoostAmount        string

	// AllowBlockedUpvote keeps upvoting open to blocked citizens. The
	// client only gates edit/delete/boost for blocked users, so this
	// defaults to true.
	AllowBlockedUpvote bool

	// StatsRefreshSpec is the cron spec for warming the admin overview cache.
	StatsRefreshSpec string
}

// Load builds Config from environment with sensible defaults. A .env file in
// the working directory is applied first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		MySQLDSN:           getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/civicfix?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPass:          os.Getenv("REDIS_PASSWORD"),
		JWTSecret:          getEnv("JWT_SECRET", "change-me"),
		SwaggerHost:        os.Getenv("SWAGGER_HOST"),
		GatewayBaseURL:     getEnv("GATEWAY_BASE_URL", "https://checkout.example.com"),
		FreeIssueQuota:     getEnvInt("FREE_ISSUE_QUOTA", 3),
		SubscriptionAmount: getEnv("SUBSCRIPTION_AMOUNT", "1000"),
		BoostAmount:        getEnv("BOOST_AMOUNT", "100"),
		AllowBlockedUpvote: getEnvBool("ALLOW_BLOCKED_UPVOTE", true),
		StatsRefreshSpec:   getEnv("STATS_REFRESH_SPEC", "@every 5m"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
