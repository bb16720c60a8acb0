package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	LLM      LLMConfig      `yaml:"llm"`
	Agent    AgentConfig    `yaml:"agent"`
	WS       WSConfig       `yaml:"ws"`
	Game     GameConfig     `yaml:"game"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
}

// DatabaseConfig selects postgres storage when DSN is set, memory otherwise.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

// RedisConfig shares agent claims between instances when Address is set.
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"720h"`
}

// LLMConfig points at an OpenAI compatible endpoint. Without an API key the
// built-in sample script and canned agent lines are used.
type LLMConfig struct {
	APIURL      string        `yaml:"api_url" env:"LLM_API_URL" env-default:"https://api.openai.com/v1/chat/completions"`
	APIKey      string        `yaml:"api_key" env:"LLM_API_KEY"`
	Model       string        `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	Temperature float64       `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.8"`
	MaxTokens   int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4096"`
	Timeout     time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"120s"`
	MaxAttempts int           `yaml:"max_attempts" env:"LLM_MAX_ATTEMPTS" env-default:"3"`
	BaseBackoff time.Duration `yaml:"base_backoff" env:"LLM_BASE_BACKOFF" env-default:"1s"`
}

type AgentConfig struct {
	TickInterval time.Duration `yaml:"tick_interval" env:"AGENT_TICK_INTERVAL" env-default:"30s"`
	ClaimTTL     time.Duration `yaml:"claim_ttl" env:"AGENT_CLAIM_TTL" env-default:"1m"`
}

type WSConfig struct {
	WriteWait      time.Duration `yaml:"write_wait" env-default:"10s"`
	PongWait       time.Duration `yaml:"pong_wait" env-default:"60s"`
	PingPeriod     time.Duration `yaml:"ping_period" env-default:"54s"`
	MaxMessageSize int64         `yaml:"max_message_size" env-default:"4096"`
	SendBuffer     int           `yaml:"send_buffer" env-default:"64"`
	RatePerSecond  float64       `yaml:"rate_per_second" env-default:"5"`
	Burst          int           `yaml:"burst" env-default:"10"`
}

type GameConfig struct {
	DefaultCapacity int `yaml:"default_capacity" env-default:"3"`
	MaxCapacity     int `yaml:"max_capacity" env-default:"8"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Game.MaxCapacity < c.Game.DefaultCapacity {
		c.Game.MaxCapacity = c.Game.DefaultCapacity
	}
	if c.WS.PingPeriod >= c.WS.PongWait {
		c.WS.PingPeriod = c.WS.PongWait * 9 / 10
	}
}
