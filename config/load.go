package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "PORTAL"

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Init 依次读取 config.yaml、.env 与环境变量，后者覆盖前者
func Init() {
	once.Do(func() {
		c, err := Load()
		if err != nil {
			panic(err)
		}
		Set(c)
	})
}

// Load 构造配置但不修改全局实例
func Load() (*Config, error) {
	c := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		v.AddConfigPath(p)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "读取配置文件失败")
		}
	} else if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "解析配置文件失败")
	}

	// .env 可选
	_ = godotenv.Load()

	if err := envconfig.Process(envPrefix, c); err != nil {
		return nil, errors.Wrap(err, "解析环境变量失败")
	}
	return c, nil
}

// Default 返回开发环境下可直接运行的默认配置
func Default() *Config {
	return &Config{
		Host:   "0.0.0.0",
		Port:   "8080",
		Prefix: "api",
		Mode:   ModeDebug,
		Database: Database{
			Driver: "sqlite",
			Path:   "competition.db",
		},
		JWT: JWT{
			AccessSecret: "dev-secret-key-change-in-production",
			AccessExpire: 7 * 24 * 3600,
		},
		Log: Log{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     30,
		},
		Storage: Storage{
			Backend: "local",
			Home:    "./storage",
		},
		Detector: Detector{
			TextURL:        "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation",
			VisionURL:      "https://dashscope.aliyuncs.com/api/v1/services/aigc/multimodal-generation/generation",
			Keywords:       []string{"西南交通大学"},
			TimeoutSeconds: 60,
			RatePerMinute:  30,
		},
		Upload: Upload{
			MaxSizeMB:   16,
			AllowedExts: []string{"pdf", "doc", "docx", "jpg", "jpeg", "png", "zip", "rar"},
		},
	}
}

func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if cfg == nil {
		return Default()
	}
	return cfg
}

// Set 替换全局配置，测试中使用
func Set(c *Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
}
