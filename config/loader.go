// =============================================================================
// 📦 RetainFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithValidator((*config.Config).Validate).
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix is prepended to every environment override, e.g. RETAINFLOW_LLM_API_KEY.
const DefaultEnvPrefix = "RETAINFLOW"

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 RetainFlow 的完整配置结构
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Auth      AuthConfig      `yaml:"auth" env:"AUTH"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	Retry     RetryConfig     `yaml:"retry" env:"RETRY"`
	Policy    PolicyConfig    `yaml:"policy" env:"POLICY"`
	Retrieval RetrievalConfig `yaml:"retrieval" env:"RETRIEVAL"`
	Customers CustomersConfig `yaml:"customers" env:"CUSTOMERS"`
	Audit     AuditConfig     `yaml:"audit" env:"AUDIT"`
	Session   SessionConfig   `yaml:"session" env:"SESSION"`
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Database  DatabaseConfig  `yaml:"database" env:"DATABASE"`
	Mongo     MongoConfig     `yaml:"mongo" env:"MONGO"`
	Kafka     KafkaConfig     `yaml:"kafka" env:"KAFKA"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口（0 表示与 API 共用端口）
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时，需覆盖一次完整的限流退避
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每个客户端每秒请求数
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 突发上限
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 允许的 CORS 来源
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// 证书与私钥均配置时启用 HTTPS
	TLSCertFile string `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile  string `yaml:"tls_key_file" env:"TLS_KEY_FILE"`
}

// AuthConfig API 认证配置；APIKeys 与 JWTSecret 均为空时不启用认证
type AuthConfig struct {
	APIKeys          []string `yaml:"api_keys" env:"API_KEYS"`
	AllowQueryAPIKey bool     `yaml:"allow_query_api_key" env:"ALLOW_QUERY_API_KEY"`
	JWTSecret        string   `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTIssuer        string   `yaml:"jwt_issuer" env:"JWT_ISSUER"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	// Provider 名称，仅用于日志与指标
	Provider string `yaml:"provider" env:"PROVIDER"`
	APIKey   string `yaml:"api_key" env:"API_KEY"`
	// OpenAI 兼容端点（Groq、DeepSeek、Gemini OpenAI 兼容层等）
	BaseURL     string        `yaml:"base_url" env:"BASE_URL"`
	Model       string        `yaml:"model" env:"MODEL"`
	Temperature float32       `yaml:"temperature" env:"TEMPERATURE"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 客户端侧限速，0 表示不限
	RequestsPerMinute int `yaml:"requests_per_minute" env:"REQUESTS_PER_MINUTE"`
}

// RetryConfig 限流重试配置
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries" env:"MAX_RETRIES"`
	BaseDelay  time.Duration `yaml:"base_delay" env:"BASE_DELAY"`
	// 启动时连接数据库、Redis 的重试次数（指数退避）
	ConnectRetries int `yaml:"connect_retries" env:"CONNECT_RETRIES"`
}

// PolicyConfig 挽留策略配置
type PolicyConfig struct {
	// 坚持取消短语
	Insistence []string `yaml:"insistence" env:"INSISTENCE"`
	// 拒绝短语
	Refusal []string `yaml:"refusal" env:"REFUSAL"`
	// 设备问题短语，优先于取消意图
	TechnicalLexicon []string `yaml:"technical_lexicon" env:"TECHNICAL_LEXICON"`
	// 达到该报价数后仅凭坚持即可升级
	MinOffersBeforeEscalation int `yaml:"min_offers_before_escalation" env:"MIN_OFFERS_BEFORE_ESCALATION"`
	// 达到该报价数后不再提出新报价
	OfferSoftCap int `yaml:"offer_soft_cap" env:"OFFER_SOFT_CAP"`
	// retention_rules.json 路径
	RulesPath string `yaml:"rules_path" env:"RULES_PATH"`
}

// RetrievalConfig 策略检索配置
type RetrievalConfig struct {
	PolicyDir    string `yaml:"policy_dir" env:"POLICY_DIR"`
	ChunkSize    int    `yaml:"chunk_size" env:"CHUNK_SIZE"`
	ChunkOverlap int    `yaml:"chunk_overlap" env:"CHUNK_OVERLAP"`
	TopK         int    `yaml:"top_k" env:"TOP_K"`
	// 提示词中策略片段的 token 预算
	MaxTokens int `yaml:"max_tokens" env:"MAX_TOKENS"`
	// 策略目录轮询间隔，0 表示不监听
	ReloadInterval time.Duration `yaml:"reload_interval" env:"RELOAD_INTERVAL"`
}

// CustomersConfig 客户数据源配置
type CustomersConfig struct {
	// csv 或 database
	Backend string `yaml:"backend" env:"BACKEND"`
	CSVPath string `yaml:"csv_path" env:"CSV_PATH"`
	// Redis 查询缓存 TTL，0 表示不缓存
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// AuditConfig 审计日志配置
type AuditConfig struct {
	// 启用的 sink: file, database, redis, mongo, kafka
	Sinks           []string `yaml:"sinks" env:"SINKS"`
	FilePath        string   `yaml:"file_path" env:"FILE_PATH"`
	RedisStream     string   `yaml:"redis_stream" env:"REDIS_STREAM"`
	RedisMaxLen     int64    `yaml:"redis_max_len" env:"REDIS_MAX_LEN"`
	MongoCollection string   `yaml:"mongo_collection" env:"MONGO_COLLECTION"`
	KafkaTopic      string   `yaml:"kafka_topic" env:"KAFKA_TOPIC"`
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	// memory 或 redis
	Backend   string        `yaml:"backend" env:"BACKEND"`
	TTL       time.Duration `yaml:"ttl" env:"TTL"`
	KeyPrefix string        `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	TLS          bool   `yaml:"tls" env:"TLS"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动类型: postgres, mysql, sqlite
	Driver   string `yaml:"driver" env:"DRIVER"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名；sqlite 时为文件路径
	Name    string `yaml:"name" env:"NAME"`
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 启动时执行迁移
	AutoMigrate     bool          `yaml:"auto_migrate" env:"AUTO_MIGRATE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI      string        `yaml:"uri" env:"URI"`
	Database string        `yaml:"database" env:"DATABASE"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers" env:"BROKERS"`
	BatchTimeout time.Duration `yaml:"batch_timeout" env:"BATCH_TIMEOUT"`
	RequiredAcks int           `yaml:"required_acks" env:"REQUIRED_ACKS"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	lookupEnv  func(string) (string, bool)
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix: DefaultEnvPrefix,
		lookupEnv: os.LookupEnv,
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithEnvLookup replaces os.LookupEnv, mainly for tests.
func (l *Loader) WithEnvLookup(fn func(string) (string, bool)) *Loader {
	l.lookupEnv = fn
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置；文件不存在时保留默认值
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		value, ok := l.lookupEnv(envKey)
		if !ok || value == "" {
			continue
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}
	return nil
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			out := parts[:0]
			for _, p := range parts {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, p)
				}
			}
			field.Set(reflect.ValueOf(out))
		}
	}
	return nil
}

// =============================================================================
// 🔍 校验与辅助
// =============================================================================

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, "server.tls_cert_file and server.tls_key_file must be set together")
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, "retry.max_retries must not be negative")
	}
	if c.Retry.BaseDelay < 0 {
		errs = append(errs, "retry.base_delay must not be negative")
	}
	if c.Retry.ConnectRetries < 0 {
		errs = append(errs, "retry.connect_retries must not be negative")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "llm.temperature must be between 0 and 2")
	}
	if c.Policy.MinOffersBeforeEscalation <= 0 {
		errs = append(errs, "policy.min_offers_before_escalation must be positive")
	}
	if c.Policy.OfferSoftCap < c.Policy.MinOffersBeforeEscalation {
		errs = append(errs, "policy.offer_soft_cap must be >= min_offers_before_escalation")
	}
	if c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		errs = append(errs, "retrieval.chunk_overlap must be smaller than chunk_size")
	}
	switch c.Customers.Backend {
	case "csv", "database":
	default:
		errs = append(errs, fmt.Sprintf("unknown customers.backend %q", c.Customers.Backend))
	}
	if c.Customers.CacheTTL < 0 {
		errs = append(errs, "customers.cache_ttl must not be negative")
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("unknown session.backend %q", c.Session.Backend))
	}
	for _, s := range c.Audit.Sinks {
		switch s {
		case "file", "database", "redis", "mongo", "kafka":
		default:
			errs = append(errs, fmt.Sprintf("unknown audit sink %q", s))
		}
	}
	if len(c.Audit.Sinks) == 0 {
		errs = append(errs, "at least one audit sink is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// NeedsDatabase reports whether any component is backed by the SQL database.
func (c *Config) NeedsDatabase() bool {
	return c.Customers.Backend == "database" || c.HasAuditSink("database")
}

// NeedsRedis reports whether any component is backed by Redis.
func (c *Config) NeedsRedis() bool {
	return c.Session.Backend == "redis" || c.HasAuditSink("redis") || c.Customers.CacheTTL > 0
}

// TLSEnabled reports whether the API server should serve HTTPS.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

// HasAuditSink reports whether name is among the configured audit sinks.
func (c *Config) HasAuditSink(name string) bool {
	for _, s := range c.Audit.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "require"
		}
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, sslMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
