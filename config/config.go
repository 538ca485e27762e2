package config

import (
	"fmt"
	"os"

	"backend/models"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config collects everything read from the environment at startup.
type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	RevenueCatAPIKey  string
	RevenueCatBaseURL string

	AWSRegion     string
	SNSFCMArn     string
	PushEnabled   bool
}

// Load reads .env (if present) and the process environment.
func Load(log *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using process environment")
	}

	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBName:            os.Getenv("DB_NAME"),
		DBPort:            getenv("DB_PORT", "5432"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		RevenueCatAPIKey:  os.Getenv("REVENUECAT_API_KEY"),
		RevenueCatBaseURL: getenv("REVENUECAT_BASE_URL", "https://api.revenuecat.com/v1"),
		AWSRegion:         getenv("AWS_REGION", "ap-south-1"),
		SNSFCMArn:         os.Getenv("SNS_FCM_ARN"),
	}
	cfg.PushEnabled = cfg.SNSFCMArn != ""
	return cfg
}

// InitLogger builds the process logger. Set LOG_DEV=1 for console output.
func InitLogger() *zap.Logger {
	if os.Getenv("LOG_DEV") == "1" {
		l, _ := zap.NewDevelopment()
		return l
	}
	l, _ := zap.NewProduction()
	return l
}

// InitDB opens postgres and migrates the schema.
func InitDB(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.MealRecord{},
		&models.DailyGoal{},
		&models.SubscriptionRecord{},
		&models.Alert{},
		&models.UserDevice{},
	)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database ready", zap.String("host", cfg.DBHost), zap.String("name", cfg.DBName))
	return db, nil
}

// InitRedis connects the cache store backing per-date meal blobs.
func InitRedis(cfg *Config, log *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	log.Info("redis configured", zap.String("addr", cfg.RedisAddr))
	return rdb
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
