package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	Chat   ChatConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

type JWTConfig struct {
	Secret      string
	ExpireHours int `mapstructure:"expire_hours"`
}

type ChatConfig struct {
	PageSize    int `mapstructure:"page_size"`    // 訊息歷史預設每頁筆數
	SearchLimit int `mapstructure:"search_limit"` // 搜尋結果預設上限
	RateRPS     int `mapstructure:"rate_rps"`     // 每個使用者每秒的請求上限
	RateBurst   int `mapstructure:"rate_burst"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./internal/config")

	viper.SetDefault("chat.page_size", 50)
	viper.SetDefault("chat.search_limit", 20)
	viper.SetDefault("chat.rate_rps", 20)
	viper.SetDefault("chat.rate_burst", 40)
	viper.SetDefault("jwt.expire_hours", 240)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
