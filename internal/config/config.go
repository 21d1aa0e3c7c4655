package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env                  string        `mapstructure:"ENV"`
	Port                 string        `mapstructure:"PORT"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	AdminKey             string        `mapstructure:"ADMIN_KEY"`
	GeminiAPIKey         string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel          string        `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL        string        `mapstructure:"GEMINI_BASE_URL"`
	SentimentBatchSize   int           `mapstructure:"SENTIMENT_BATCH_SIZE"`
	AnalysisPeriodDays   int           `mapstructure:"ANALYSIS_PERIOD_DAYS"`
	ScoreCalculationHour int           `mapstructure:"SCORE_CALCULATION_HOUR"`
	SchedulerEnabled     bool          `mapstructure:"SCHEDULER_ENABLED"`
	CORSAllowed          string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("GEMINI_MODEL", "gemini-2.0-flash")
	v.SetDefault("SENTIMENT_BATCH_SIZE", 50)
	v.SetDefault("ANALYSIS_PERIOD_DAYS", 30)
	v.SetDefault("SCORE_CALCULATION_HOUR", 2)
	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
