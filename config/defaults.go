// =============================================================================
// 📦 RetainFlow 默认配置
// =============================================================================
package config

import (
	"time"

	"github.com/BaSui01/retainflow/agent/intent"
	"github.com/BaSui01/retainflow/agent/retention"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		LLM:       DefaultLLMConfig(),
		Retry:     DefaultRetryConfig(),
		Policy:    DefaultPolicyConfig(),
		Retrieval: DefaultRetrievalConfig(),
		Customers: CustomersConfig{Backend: "csv", CSVPath: "data/customers.csv"},
		Audit: AuditConfig{
			Sinks:           []string{"file"},
			FilePath:        "data/account_actions.jsonl",
			RedisStream:     "retainflow:audit",
			RedisMaxLen:     100000,
			MongoCollection: "account_actions",
			KafkaTopic:      "retainflow.account-actions",
		},
		Session: SessionConfig{
			Backend:   "memory",
			TTL:       30 * time.Minute,
			KeyPrefix: "retainflow:conversation:",
		},
		Redis:     DefaultRedisConfig(),
		Database:  DefaultDatabaseConfig(),
		Mongo:     MongoConfig{URI: "mongodb://localhost:27017", Database: "retainflow", Timeout: 10 * time.Second},
		Kafka:     KafkaConfig{Brokers: []string{"localhost:9092"}, BatchTimeout: 10 * time.Millisecond, RequiredAcks: -1},
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    3 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
	}
}

// DefaultLLMConfig 返回默认 LLM 配置（Groq OpenAI 兼容端点）
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    "groq",
		BaseURL:     "https://api.groq.com/openai",
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.7,
		Timeout:     60 * time.Second,
	}
}

// DefaultRetryConfig 返回默认限流重试配置
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 15 * time.Second, ConnectRetries: 5}
}

// DefaultPolicyConfig 返回默认挽留策略
func DefaultPolicyConfig() PolicyConfig {
	lex := retention.DefaultLexicon()
	return PolicyConfig{
		Insistence:                lex.Insistence,
		Refusal:                   lex.Refusal,
		TechnicalLexicon:          append([]string(nil), intent.DefaultTechnicalLexicon...),
		MinOffersBeforeEscalation: retention.MinOffersBeforeEscalation,
		OfferSoftCap:              retention.OfferSoftCap,
		RulesPath:                 "data/retention_rules.json",
	}
}

// DefaultRetrievalConfig 返回默认检索配置
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		PolicyDir:    "data/policies",
		ChunkSize:    500,
		ChunkOverlap: 50,
		TopK:         2,
		MaxTokens:    250,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Host:            "localhost",
		Port:            5432,
		User:            "retainflow",
		Name:            "data/retainflow.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "retainflow",
		SampleRate:   0.1,
	}
}
