package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	UploadDir   string `mapstructure:"upload_dir"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	PurchaseEvents string `mapstructure:"purchase_events"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type BusinessConfig struct {
	InitialBalance         int64 `mapstructure:"initial_balance"`          // 注册赠送余额
	MaxRetryCount          int   `mapstructure:"max_retry_count"`          // outbox 最大重试次数
	RatingReconcileSeconds int   `mapstructure:"rating_reconcile_seconds"` // 评分对账间隔
	PurchaseLockSeconds    int   `mapstructure:"purchase_lock_seconds"`    // 购买防重锁过期时间
}

var GlobalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.max_upload_mb", 20)

	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "studyverse")
	v.SetDefault("mysql.max_open_conns", 50)
	v.SetDefault("mysql.max_idle_conns", 10)

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.topic.purchase_events", "studyverse.purchase")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_hours", 5)

	v.SetDefault("business.initial_balance", 10000)
	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.rating_reconcile_seconds", 600)
	v.SetDefault("business.purchase_lock_seconds", 10)
}

// Load 加载配置文件
//
// 优先级：环境变量 > 配置文件 > 默认值。
// 环境变量名是配置键把 "." 换成 "_" 后的大写形式，例如 JWT_SECRET、MYSQL_PASSWORD。
// 启动目录下的 .env 会先被加载到进程环境里。
func Load(configPath string) (*Config, error) {
	// .env 不存在是正常情况
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfig 加载配置，失败直接退出
func LoadConfig(configPath string) *Config {
	if p := os.Getenv("STUDYVERSE_CONFIG"); p != "" {
		configPath = p
	}

	config, err := Load(configPath)
	if err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	if config.JWT.Secret == "" {
		log.Fatalf("jwt.secret 未配置")
	}

	GlobalConfig = config
	return config
}
