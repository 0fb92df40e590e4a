package config

type Mode string

const (
	ModeDebug   Mode = "debug"
	ModeRelease Mode = "release"
)

type Config struct {
	Host        string `envconfig:"HOST"`
	Port        string `envconfig:"PORT"`
	Prefix      string `envconfig:"PREFIX"`
	Mode        Mode   `envconfig:"MODE"`
	Database    Database
	Redis       Redis
	JWT         JWT
	Log         Log `mapstructure:"Log"`
	Storage     Storage
	S3          S3
	Sentry      Sentry
	Detector    Detector
	Certificate Certificate
	Upload      Upload
}

type Database struct {
	Driver   string `envconfig:"DRIVER"` // mysql 或 sqlite
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	DBName   string `envconfig:"DB_NAME"`
	Path     string `envconfig:"PATH"` // sqlite 数据库文件路径
}

type Redis struct {
	Host     string `mapstructure:"host" envconfig:"HOST"`
	Port     string `mapstructure:"port" envconfig:"PORT"`
	Password string `mapstructure:"password" envconfig:"PASSWORD"`
	DB       int    `mapstructure:"db" envconfig:"DB"`
}

type JWT struct {
	AccessSecret string `envconfig:"ACCESS_SECRET"`
	AccessExpire int64  `envconfig:"ACCESS_EXPIRE"` // 秒
}

type Log struct {
	FilePath   string `envconfig:"LOG_FILE_PATH" mapstructure:"file_path"`     // 日志文件路径
	Level      string `envconfig:"LOG_LEVEL" mapstructure:"level"`             // 日志级别：debug, info, warn, error
	MaxSize    int    `envconfig:"LOG_MAX_SIZE" mapstructure:"max_size"`       // 日志文件最大大小（MB）
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" mapstructure:"max_backups"` // 保留的旧日志文件数
	MaxAge     int    `envconfig:"LOG_MAX_AGE" mapstructure:"max_age"`         // 日志文件保留天数
	Compress   bool   `envconfig:"LOG_COMPRESS" mapstructure:"compress"`       // 是否压缩旧日志文件
}

type Storage struct {
	Backend string `envconfig:"BACKEND"` // local 或 s3
	Home    string `envconfig:"HOME"`    // 本地存储根目录
}

type S3 struct {
	Endpoint        string `mapstructure:"endpoint" envconfig:"ENDPOINT"`
	Bucket          string `mapstructure:"bucket" envconfig:"BUCKET"`
	Region          string `mapstructure:"region" envconfig:"REGION"`
	AccessKey       string `mapstructure:"access_key" envconfig:"ACCESS_KEY"`
	SecretAccessKey string `mapstructure:"secret_key" envconfig:"SECRET_KEY"`
	Prefix          string `mapstructure:"prefix" envconfig:"PREFIX"`
	UsePathStyle    bool   `mapstructure:"path_style" envconfig:"PATH_STYLE"`
}

type Sentry struct {
	Dsn         string  `envconfig:"DSN"`
	Environment string  `envconfig:"ENVIRONMENT"`
	SampleRate  float64 `mapstructure:"sample_rate" envconfig:"SAMPLE_RATE"`
	SlowQueryMs int     `mapstructure:"slow_query_ms" envconfig:"SLOW_QUERY_MS"` // 低于该耗时的数据库与 Redis span 不上报，0 表示全部上报
}

// Detector 附件敏感信息检测（千问 API）
type Detector struct {
	ApiKey         string   `mapstructure:"api_key" envconfig:"API_KEY"`
	TextURL        string   `mapstructure:"text_url" envconfig:"TEXT_URL"`
	VisionURL      string   `mapstructure:"vision_url" envconfig:"VISION_URL"`
	Keywords       []string `mapstructure:"keywords" envconfig:"KEYWORDS"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" envconfig:"TIMEOUT_SECONDS"`
	RatePerMinute  int      `mapstructure:"rate_per_minute" envconfig:"RATE_PER_MINUTE"`
}

type Certificate struct {
	FontPath string `mapstructure:"font_path" envconfig:"FONT_PATH"` // 中文字体文件，留空使用默认字体
}

type Upload struct {
	MaxSizeMB   int64    `mapstructure:"max_size_mb" envconfig:"MAX_SIZE_MB"`
	AllowedExts []string `mapstructure:"allowed_exts" envconfig:"ALLOWED_EXTS"`
}
