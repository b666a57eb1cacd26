package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
)

type Config struct {
	// Core database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	// RADIUS database (FreeRADIUS schema, usually a separate server)
	RadiusDBHost     string
	RadiusDBPort     int
	RadiusDBUser     string
	RadiusDBPassword string
	RadiusDBName     string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string

	// JWT
	JWTSecret      string
	JWTExpireHours int

	// API
	APIPort int

	// RouterOS API
	RouterConnectTimeoutSec int
	RouterConnectAttempts   int
	RouterRetryDelaySec     int

	// Billing
	Billing BillingRates

	// Integrations
	WhatsAppAPIURL string
	WhatsAppAPIKey string
	AcsURL         string
	AcsUsername    string
	AcsPassword    string
}

// BillingRates is the billing configuration snapshot injected into the
// billing engine. Rates are resolved once at load time, never looked up
// mid-computation.
type BillingRates struct {
	PPNRate       float64 // value-added tax
	BHPRate       float64 // telecom regulatory fee
	USORate       float64 // universal service obligation
	GraceDays     int
	UniqueCodeMax int // payment-matching surcharge is 1..UniqueCodeMax
}

// generateSecureSecret generates a cryptographically secure random secret
func generateSecureSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return hex.EncodeToString([]byte(os.Getenv("HOSTNAME") + string(rune(length))))
	}
	return hex.EncodeToString(bytes)
}

func Load() *Config {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateSecureSecret(32)
		log.Println("WARNING: JWT_SECRET not set - generated random secret. Sessions will not persist across restarts.")
	}

	dbPassword := getEnv("DB_PASSWORD", "")
	if dbPassword == "" {
		log.Println("WARNING: DB_PASSWORD not set - this is insecure for production!")
		dbPassword = "changeme"
	}

	redisPassword := getEnv("REDIS_PASSWORD", "")
	if redisPassword == "" {
		log.Println("WARNING: REDIS_PASSWORD not set - Redis is not secured!")
	}

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "nusalink"),
		DBPassword: dbPassword,
		DBName:     getEnv("DB_NAME", "nusalink"),

		// RADIUS schema defaults to the same server, separate database
		RadiusDBHost:     getEnv("RADIUS_DB_HOST", getEnv("DB_HOST", "localhost")),
		RadiusDBPort:     getEnvInt("RADIUS_DB_PORT", 5432),
		RadiusDBUser:     getEnv("RADIUS_DB_USER", "radius"),
		RadiusDBPassword: getEnv("RADIUS_DB_PASSWORD", dbPassword),
		RadiusDBName:     getEnv("RADIUS_DB_NAME", "radius"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisPassword: redisPassword,

		JWTSecret:      jwtSecret,
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 168),

		APIPort: getEnvInt("API_PORT", 8080),

		RouterConnectTimeoutSec: getEnvInt("ROUTER_CONNECT_TIMEOUT", 3),
		RouterConnectAttempts:   getEnvInt("ROUTER_CONNECT_ATTEMPTS", 3),
		RouterRetryDelaySec:     getEnvInt("ROUTER_RETRY_DELAY", 2),

		Billing: BillingRates{
			PPNRate:       getEnvFloat("BILLING_PPN_RATE", 0.11),
			BHPRate:       getEnvFloat("BILLING_BHP_RATE", 0.005),
			USORate:       getEnvFloat("BILLING_USO_RATE", 0.0125),
			GraceDays:     getEnvInt("BILLING_GRACE_DAYS", 7),
			UniqueCodeMax: getEnvInt("BILLING_UNIQUE_CODE_MAX", 999),
		},

		WhatsAppAPIURL: getEnv("WHATSAPP_API_URL", ""),
		WhatsAppAPIKey: getEnv("WHATSAPP_API_KEY", ""),
		AcsURL:         getEnv("ACS_URL", ""),
		AcsUsername:    getEnv("ACS_USERNAME", ""),
		AcsPassword:    getEnv("ACS_PASSWORD", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
