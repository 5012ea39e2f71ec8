package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	DatabasePath     string        `mapstructure:"DATABASE_PATH"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	FoodAPIBaseURL   string        `mapstructure:"FOOD_API_BASE_URL"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogRetentionDays int           `mapstructure:"LOG_RETENTION_DAYS"`
	PruneSchedule    string        `mapstructure:"PRUNE_SCHEDULE"`
	EnableCORS       bool          `mapstructure:"ENABLE_CORS"`
	Debug            bool          `mapstructure:"DEBUG"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_PATH", "dashboard.db")
	viper.SetDefault("FOOD_API_BASE_URL", "https://kalori-makanan-kkm.onrender.com")
	viper.SetDefault("REQUEST_TIMEOUT", "10s")
	viper.SetDefault("LOG_RETENTION_DAYS", 90)
	viper.SetDefault("PRUNE_SCHEDULE", "0 3 * * *")

	viper.BindEnv("PORT")
	viper.BindEnv("DATABASE_PATH")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("FOOD_API_BASE_URL")
	viper.BindEnv("REQUEST_TIMEOUT")
	viper.BindEnv("LOG_RETENTION_DAYS")
	viper.BindEnv("PRUNE_SCHEDULE")
	viper.BindEnv("ENABLE_CORS")
	viper.BindEnv("DEBUG")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
