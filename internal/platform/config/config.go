package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	VoteSource VoteSourceConfig `mapstructure:"votesource"`
	Game       GameConfig       `mapstructure:"game"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了PostgreSQL的配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// VoteSourceConfig 定义了外部投票数据源（Google表格）的连接参数。
// PrivateKey 中的字面量 "\n" 会在构建凭据时被还原为换行符。
type VoteSourceConfig struct {
	SpreadsheetID    string `mapstructure:"spreadsheetId"`
	ProjectID        string `mapstructure:"projectId"`
	ClientEmail      string `mapstructure:"clientEmail"`
	PrivateKey       string `mapstructure:"privateKey"`
	UTCOffsetMinutes int    `mapstructure:"utcOffsetMinutes"`
}

// GameConfig 定义了老虎机玩法相关的配置
type GameConfig struct {
	// VotesPerRoll 是解锁一次抽奖所需的投票数。小于等于0时按1处理。
	VotesPerRoll int `mapstructure:"votesPerRoll"`

	// VoteTarget 是前端展示用的目标票数
	VoteTarget int `mapstructure:"voteTarget"`
}

// EffectiveVotesPerRoll 返回校正后的votesPerRoll，保证不会出现除零
func (g GameConfig) EffectiveVotesPerRoll() int {
	if g.VotesPerRoll <= 0 {
		return 1
	}
	return g.VotesPerRoll
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 设置默认值
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "slots.db")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("game.votesPerRoll", 1)

	// 4. 允许通过环境变量覆盖配置，例如 VOTESOURCE_SPREADSHEETID
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 5. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 允许在没有配置文件时完全依赖环境变量运行
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}
