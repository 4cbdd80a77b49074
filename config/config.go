// Ininicializing common application configuration
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	App     AppConfig     `mapstructure:"app"`
	Log     LogConfig     `mapstructure:"log"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Inpaint InpaintConfig `mapstructure:"inpaint"`
	Segment SegmentConfig `mapstructure:"segment"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

type AppConfig struct {
	ImageDir      string `mapstructure:"image_dir"`
	BodyFormat    string `mapstructure:"body_format"` // newline | legacy
	FontPath      string `mapstructure:"font_path"`
	OutpaintSize  int    `mapstructure:"outpaint_size"`
	MaxUploadSize int64  `mapstructure:"max_upload_size"`
	MaxDimension  int    `mapstructure:"max_dimension"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type GeminiConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	AssistModel   string        `mapstructure:"assist_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerMinute int           `mapstructure:"rate_per_minute"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
}

type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type InpaintConfig struct {
	URL            string        `mapstructure:"url"`
	Checkpoint     string        `mapstructure:"checkpoint"`
	GuidanceScale  float64       `mapstructure:"guidance_scale"`
	Steps          int           `mapstructure:"steps"`
	NegativePrompt string        `mapstructure:"negative_prompt"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type SegmentConfig struct {
	URL     string        `mapstructure:"url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
	Workers int    `mapstructure:"workers"`
}

// legacy variable names used by the deployment scripts
var envBindings = map[string]string{
	"gemini.api_key": "GEMINI_API_KEY",
	"gemini.model":   "GEMINI_MODEL",
	"openai.api_key": "OPENAI_API_KEY",
	"app.image_dir":  "IMAGE_DIR",
	"kafka.brokers":  "KAFKA_BROKERS",
	"kafka.topic":    "KAFKA_TOPIC",
	"kafka.group_id": "KAFKA_GROUP_ID",
	"redis.addr":     "REDIS_ADDR",
}

func LoadConfig() (*viper.Viper, error) {
	// .env is optional
	_ = godotenv.Load()

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()
	for key, env := range envBindings {
		if err := viperInstance.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	err := viperInstance.ReadInConfig()

	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}
	c.Gemini.Model = NormalizeModelID(c.Gemini.Model)
	return &c, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return errors.New("GEMINI_API_KEY is not set, check .env in the project root")
	}
	return nil
}

// NormalizeModelID strips a resource prefix such as "models/".
func NormalizeModelID(model string) string {
	model = strings.TrimSpace(model)
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		model = model[idx+1:]
	}
	if model == "" {
		return "gemini-1.5-flash"
	}
	return model
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.timeout", 5*time.Minute)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("app.image_dir", "./img")
	v.SetDefault("app.body_format", "newline")
	v.SetDefault("app.outpaint_size", 1024)
	v.SetDefault("app.max_upload_size", 32<<20)
	v.SetDefault("app.max_dimension", 2048)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.assist_model", "gemini-1.5-flash-latest")
	v.SetDefault("gemini.timeout", 90*time.Second)
	v.SetDefault("gemini.rate_per_minute", 60)
	v.SetDefault("gemini.cache_ttl", 10*time.Minute)

	v.SetDefault("openai.model", "dall-e-2")
	v.SetDefault("openai.timeout", 2*time.Minute)

	v.SetDefault("inpaint.url", "http://localhost:7860")
	v.SetDefault("inpaint.checkpoint", "runwayml/stable-diffusion-inpainting")
	v.SetDefault("inpaint.guidance_scale", 7.5)
	v.SetDefault("inpaint.steps", 50)
	v.SetDefault("inpaint.negative_prompt", "text, logo, watermark, blurry, low quality, distorted, bad quality, "+
		"clutter, extra objects, repeated patterns, overexposed, artifacts")
	v.SetDefault("inpaint.timeout", 3*time.Minute)

	v.SetDefault("segment.url", "http://localhost:7000")
	v.SetDefault("segment.model", "u2net")
	v.SetDefault("segment.timeout", time.Minute)

	v.SetDefault("redis.key", "promostudio:group_seq")

	v.SetDefault("kafka.topic", "outpaint-tasks")
	v.SetDefault("kafka.group_id", "outpaint-processor")
	v.SetDefault("kafka.workers", 2)
}
