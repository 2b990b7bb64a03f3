package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Zitadel   ZitadelConfig
	Gateway   GatewayConfig
	RateLimit RateLimitConfig
	VideoDB   VideoDBConfig
	LLM       LLMConfig
	R2        R2Config
	Indexing  IndexingConfig
	Retrieval RetrievalConfig
}

type ServerConfig struct {
	Port        string
	Env         string
	LogLevel    string
	ApiDomain   string
	BodyLimitMB int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type ZitadelConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

type GatewayConfig struct {
	Enabled bool
}

type RateLimitConfig struct {
	EditPerHour   int
	IndexPerHour  int
	UploadPerHour int
	SearchPerMin  int
}

// VideoDBConfig points at the remote indexing, search and compile service.
type VideoDBConfig struct {
	APIKey     string
	BaseURL    string
	Collection string
	Timeout    int // seconds
}

// LLMConfig configures the OpenAI-compatible endpoint used by the planner.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type IndexingConfig struct {
	MaxConcurrency int
	ScenePrompt    string
}

type RetrievalConfig struct {
	PerQueryLimit     int
	EarlyStopFraction float64
	SearchType        string
}

func Load() (*Config, error) {
	readSecret("REDIS_PASSWORD")
	readSecret("VIDEODB_API_KEY")
	readSecret("LLM_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ZITADEL_CLIENT_ID")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.api_domain", "API_DOMAIN")
	_ = v.BindEnv("server.body_limit_mb", "MAX_UPLOAD_SIZE_MB")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = v.BindEnv("zitadel.domain", "ZITADEL_DOMAIN")
	_ = v.BindEnv("zitadel.client_id", "ZITADEL_CLIENT_ID")
	_ = v.BindEnv("zitadel.issuer", "ZITADEL_ISSUER")
	_ = v.BindEnv("gateway.enabled", "GATEWAY_ENABLED")
	_ = v.BindEnv("videodb.api_key", "VIDEODB_API_KEY")
	_ = v.BindEnv("videodb.base_url", "VIDEODB_BASE_URL")
	_ = v.BindEnv("videodb.collection", "VIDEODB_COLLECTION")
	_ = v.BindEnv("videodb.timeout", "VIDEODB_TIMEOUT")
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY")
	_ = v.BindEnv("llm.base_url", "LLM_BASE_URL")
	_ = v.BindEnv("llm.model", "LLM_MODEL")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("indexing.max_concurrency", "INDEXING_MAX_CONCURRENCY")
	_ = v.BindEnv("indexing.scene_prompt", "INDEXING_SCENE_PROMPT")
	_ = v.BindEnv("retrieval.per_query_limit", "RETRIEVAL_PER_QUERY_LIMIT")
	_ = v.BindEnv("retrieval.early_stop_fraction", "RETRIEVAL_EARLY_STOP_FRACTION")
	_ = v.BindEnv("retrieval.search_type", "RETRIEVAL_SEARCH_TYPE")

	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.body_limit_mb", 500)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration", 24)
	v.SetDefault("gateway.enabled", false)
	v.SetDefault("ratelimit.edit_per_hour", 10)
	v.SetDefault("ratelimit.index_per_hour", 20)
	v.SetDefault("ratelimit.upload_per_hour", 50)
	v.SetDefault("ratelimit.search_per_min", 60)

	v.SetDefault("videodb.base_url", "https://api.videodb.io")
	v.SetDefault("videodb.collection", "vibecut_videos")
	v.SetDefault("videodb.timeout", 120)

	// Groq speaks the OpenAI wire format
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")

	v.SetDefault("indexing.max_concurrency", 3)
	v.SetDefault("indexing.scene_prompt", "Describe the key visual scenes and actions")
	v.SetDefault("retrieval.per_query_limit", 10)
	v.SetDefault("retrieval.early_stop_fraction", 0.8)
	v.SetDefault("retrieval.search_type", "semantic")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("server.port"),
			Env:         v.GetString("server.env"),
			LogLevel:    v.GetString("server.log_level"),
			ApiDomain:   v.GetString("server.api_domain"),
			BodyLimitMB: v.GetInt("server.body_limit_mb"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetInt("jwt.expiration"),
		},
		Zitadel: ZitadelConfig{
			Domain:   v.GetString("zitadel.domain"),
			ClientID: v.GetString("zitadel.client_id"),
			Issuer:   v.GetString("zitadel.issuer"),
		},
		Gateway: GatewayConfig{
			Enabled: v.GetBool("gateway.enabled"),
		},
		RateLimit: RateLimitConfig{
			EditPerHour:   v.GetInt("ratelimit.edit_per_hour"),
			IndexPerHour:  v.GetInt("ratelimit.index_per_hour"),
			UploadPerHour: v.GetInt("ratelimit.upload_per_hour"),
			SearchPerMin:  v.GetInt("ratelimit.search_per_min"),
		},
		VideoDB: VideoDBConfig{
			APIKey:     v.GetString("videodb.api_key"),
			BaseURL:    v.GetString("videodb.base_url"),
			Collection: v.GetString("videodb.collection"),
			Timeout:    v.GetInt("videodb.timeout"),
		},
		LLM: LLMConfig{
			APIKey:  v.GetString("llm.api_key"),
			BaseURL: v.GetString("llm.base_url"),
			Model:   v.GetString("llm.model"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       v.GetString("r2.public_url"),
		},
		Indexing: IndexingConfig{
			MaxConcurrency: v.GetInt("indexing.max_concurrency"),
			ScenePrompt:    v.GetString("indexing.scene_prompt"),
		},
		Retrieval: RetrievalConfig{
			PerQueryLimit:     v.GetInt("retrieval.per_query_limit"),
			EarlyStopFraction: v.GetFloat64("retrieval.early_stop_fraction"),
			SearchType:        v.GetString("retrieval.search_type"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every out-of-range knob at once.
func (c *Config) Validate() error {
	var err error
	if c.Server.Port == "" {
		err = multierr.Append(err, fmt.Errorf("server.port is required"))
	}
	if c.Server.BodyLimitMB <= 0 {
		err = multierr.Append(err, fmt.Errorf("server.body_limit_mb must be positive, got %d", c.Server.BodyLimitMB))
	}
	if c.Indexing.MaxConcurrency <= 0 {
		err = multierr.Append(err, fmt.Errorf("indexing.max_concurrency must be positive, got %d", c.Indexing.MaxConcurrency))
	}
	if c.Retrieval.PerQueryLimit <= 0 {
		err = multierr.Append(err, fmt.Errorf("retrieval.per_query_limit must be positive, got %d", c.Retrieval.PerQueryLimit))
	}
	if c.Retrieval.EarlyStopFraction <= 0 || c.Retrieval.EarlyStopFraction > 1 {
		err = multierr.Append(err, fmt.Errorf("retrieval.early_stop_fraction must be in (0, 1], got %v", c.Retrieval.EarlyStopFraction))
	}
	switch c.Retrieval.SearchType {
	case "semantic", "keyword":
	default:
		err = multierr.Append(err, fmt.Errorf("retrieval.search_type must be semantic or keyword, got %q", c.Retrieval.SearchType))
	}
	return err
}
