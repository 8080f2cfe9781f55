package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	DB  *gorm.DB
	Env Settings
)

// Settings is everything the service reads from the environment.
type Settings struct {
	Port     string
	DSN      string
	LogLevel string

	JWTSecret      string
	TokenTTLHours  int
	SuperAdminUser string
	SuperAdminPass string

	UseGCS    bool
	GCSBucket string
	UploadDir string

	PostalAPIURL    string
	CountriesAPIURL string

	CourierAPIURL   string
	CourierUsername string
	CourierPassword string

	KafkaBroker string
	KafkaTopic  string
	RabbitMQURL string

	RateCardFile string
	CompanyName  string
}

// Load reads .env (if present) and the process environment into Env.
func Load() Settings {
	_ = godotenv.Load()

	Env = Settings{
		Port:     getenv("PORT", "8080"),
		DSN:      os.Getenv("DB_DSN"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenTTLHours:  getenvInt("TOKEN_TTL_HOURS", 24),
		SuperAdminUser: getenv("SUPER_ADMIN_EMAIL", "admin@logibook.local"),
		SuperAdminPass: os.Getenv("SUPER_ADMIN_PASSWORD"),

		UseGCS: os.Getenv("USE_GCS") == "true" ||
			os.Getenv("K_SERVICE") != "",
		GCSBucket: os.Getenv("GCS_BUCKET"),
		UploadDir: getenv("UPLOAD_DIR", "./uploads"),

		PostalAPIURL:    os.Getenv("POSTAL_API_URL"),
		CountriesAPIURL: os.Getenv("COUNTRIES_API_URL"),

		CourierAPIURL:   os.Getenv("COURIER_API_URL"),
		CourierUsername: os.Getenv("COURIER_USERNAME"),
		CourierPassword: os.Getenv("COURIER_PASSWORD"),

		KafkaBroker: os.Getenv("KAFKA_BROKER"),
		KafkaTopic:  getenv("KAFKA_TOPIC", "bookings"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		RateCardFile: os.Getenv("RATE_CARD_FILE"),
		CompanyName:  getenv("COMPANY_NAME", "LogiBook"),
	}
	return Env
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

// Connect opens the Postgres connection into DB.
func Connect() error {
	if Env.DSN == "" {
		return fmt.Errorf("DB_DSN is not set")
	}
	level := logger.Warn
	if Env.LogLevel == "debug" {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(Env.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	DB = db
	Log.Info("database connected")
	return nil
}

// MustConnect connects and runs migrations, exiting on failure.
func MustConnect() {
	if err := Connect(); err != nil {
		Log.Fatal("database unavailable", zap.Error(err))
	}
	if err := Migrations(DB); err != nil {
		Log.Fatal("could not run migrations", zap.Error(err))
	}
}
