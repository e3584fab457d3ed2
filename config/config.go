package config

import (
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const DefaultEnvironment = "staging"

var once sync.Once

func InitConfig() {
	once.Do(load)
}

func load() {
	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = DefaultEnvironment
	}
	// existing environment variables take precedence over the file
	if err := godotenv.Load(".env." + environment); err != nil {
		log.Debugf(".env.%s not loaded: %s", environment, err)
	}

	viper.AutomaticEnv()

	viper.BindEnv("environment", "ENVIRONMENT")
	viper.BindEnv("telegram_bot_token", "BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	viper.BindEnv("metrics_port", "METRICS_PORT")
	viper.BindEnv("metrics_db_path", "METRICS_DB_PATH")
	viper.BindEnv("request_timeout", "REQUEST_TIMEOUT")
	viper.BindEnv("crypto_source", "CRYPTO_SOURCE")
	viper.BindEnv("exchange_source", "EXCHANGE_SOURCE")
	viper.BindEnv("api_pro_key", "API_PRO_KEY")
	viper.BindEnv("debug", "DEBUG")
	viper.BindEnv("lang", "BOT_LANG")

	viper.SetDefault("environment", environment)
	viper.SetDefault("metrics_port", 9090)
	viper.SetDefault("metrics_db_path", "")
	viper.SetDefault("request_timeout", 30*time.Second)
	viper.SetDefault("crypto_source", "coingecko")
	viper.SetDefault("exchange_source", "kursexpert")
	viper.SetDefault("debug", false)
	viper.SetDefault("lang", "ru")
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}
