// Package config loads the process configuration from a YAML file
// overlaid with RAGBOT_* environment variables, following the layered
// viper setup used across the rest of the retrieval pipeline.
package config

import (
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the root configuration object for the ask/truth pipeline.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Rerank    RerankConfig    `mapstructure:"rerank"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Intent    IntentConfig    `mapstructure:"intent"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Prompts   PromptsConfig   `mapstructure:"prompts"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxOpenConn int    `mapstructure:"max_open_conn"`
	MaxIdleConn int    `mapstructure:"max_idle_conn"`
}

// RedisConfig configures the queue's pub/sub notification channel. The
// chat user cache used by nickname resolution is in-process, not Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntentConfig configures intent classification and nickname resolution.
type IntentConfig struct {
	// UserCacheTTL is how long the Chat User Cache's top-50-authors
	// lookup is kept before being reloaded, per spec.md §3 (30 minutes).
	UserCacheTTL time.Duration `mapstructure:"user_cache_ttl"`
}

// QueueConfig configures queue lease/retry behavior; per-kind lease
// timeouts live in AskLeaseTimeout/TruthLeaseTimeout.
type QueueConfig struct {
	AskLeaseTimeout   time.Duration `mapstructure:"ask_lease_timeout"`
	TruthLeaseTimeout time.Duration `mapstructure:"truth_lease_timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BaseRetryDelay    time.Duration `mapstructure:"base_retry_delay"`
	MaxRetryDelay     time.Duration `mapstructure:"max_retry_delay"`
	NotifyWait        time.Duration `mapstructure:"notify_wait"`
	StaleSweepEvery   time.Duration `mapstructure:"stale_sweep_every"`
	CleanupOlderThan  time.Duration `mapstructure:"cleanup_older_than"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"` // openai_compat | huggingface | jina
	BaseURL    string `mapstructure:"base_url"`
	APIKey     string `mapstructure:"api_key"`
	ModelName  string `mapstructure:"model_name"`
	Dimensions int    `mapstructure:"dimensions"`
}

// RerankConfig selects and configures the cross-encoder reranker.
type RerankConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Provider  string `mapstructure:"provider"`
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	ModelName string `mapstructure:"model_name"`
}

// LLMConfig configures the language-model gateway used for intent
// classification, nickname resolution, and answer generation.
type LLMConfig struct {
	BaseURL        string            `mapstructure:"base_url"`
	APIKey         string            `mapstructure:"api_key"`
	DefaultModel   string            `mapstructure:"default_model"`
	ModelByKind    map[string]string `mapstructure:"model_by_kind"`
	RequestTimeout time.Duration     `mapstructure:"request_timeout"`
}

// RetrievalConfig holds the tunable weights of the hybrid scorer.
type RetrievalConfig struct {
	DenseWeight       float64       `mapstructure:"dense_weight"`
	SparseWeight      float64       `mapstructure:"sparse_weight"`
	ExactBoost        float64       `mapstructure:"exact_boost"`
	TimeDecayWeight   float64       `mapstructure:"time_decay_weight"`
	TimeDecayHalfLife time.Duration `mapstructure:"time_decay_half_life"`
	NearDupThreshold  float64       `mapstructure:"near_dup_threshold"`
	ResultsPerQuery   int           `mapstructure:"results_per_query"`
	RRFK              int           `mapstructure:"rrf_k"`
}

// LoggingConfig configures process-wide log level/format.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// AdminConfig configures the non-core debug/health HTTP surface.
type AdminConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	// JWTSecret signs/verifies the bearer tokens required by the
	// queue-stats and requeue endpoints. Empty disables auth, which is
	// only acceptable for local/dev use.
	JWTSecret string `mapstructure:"jwt_secret"`
}

// PromptsConfig maps each job kind ("ask", "smart", "truth") to the
// system prompt used when generating its answer.
type PromptsConfig struct {
	ByKind map[string]string `mapstructure:"by_kind"`
}

// Default returns the configuration defaults from spec.md, before file
// or environment overlays are applied.
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			AskLeaseTimeout:   5 * time.Minute,
			TruthLeaseTimeout: 10 * time.Minute,
			MaxAttempts:       3,
			BaseRetryDelay:    30 * time.Second,
			MaxRetryDelay:     5 * time.Minute,
			NotifyWait:        30 * time.Second,
			StaleSweepEvery:   90 * time.Second,
			CleanupOlderThan:  30 * 24 * time.Hour,
		},
		Retrieval: RetrievalConfig{
			DenseWeight:       0.7,
			SparseWeight:      0.3,
			ExactBoost:        0.15,
			TimeDecayWeight:   0.1,
			TimeDecayHalfLife: 14 * 24 * time.Hour,
			NearDupThreshold:  0.98,
			ResultsPerQuery:   60,
			RRFK:              60,
		},
		Intent:  IntentConfig{UserCacheTTL: 30 * time.Minute},
		Logging: LoggingConfig{Level: "info"},
		Admin:   AdminConfig{ListenAddr: ":8089"},
		Prompts: PromptsConfig{ByKind: map[string]string{
			"ask":   "Answer the question using only the provided chat history context. If the context doesn't contain the answer, say so.",
			"smart": "Answer the question helpfully and concisely, using the provided chat history context where relevant.",
			"truth": "Summarize what has happened in this chat recently, in chronological order, using only the provided messages.",
		}},
	}
}

// Load reads configuration from path (a YAML file) overlaid with
// RAGBOT_* environment variables, falling back to Default() for any
// field left unset.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RAGBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, err
	}

	return cfg, nil
}
