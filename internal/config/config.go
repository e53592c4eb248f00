package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// 删除后当前页变空时的处理策略。
const (
	EmptyPageStay     = "stay"      // 保持在空页，与原有页面行为一致
	EmptyPageStepBack = "step_back" // 回退到最后一个非空页
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name" env:"APP_NAME"`               // 应用程序名称
	Version     string `yaml:"version"`                            // 应用程序版本
	Environment string `yaml:"environment" env:"APP_ENVIRONMENT"` // 运行环境 (例如: "development", "production")
}

// KafkaLogConfig 定义了把日志推送到 Kafka 的配置。
type KafkaLogConfig struct {
	Enabled bool     `yaml:"enabled" env:"LOG_KAFKA_ENABLED"`
	Brokers []string `yaml:"brokers" env:"LOG_KAFKA_BROKERS" envSeparator:","` // Kafka Broker 地址列表
	Topic   string   `yaml:"topic" env:"LOG_KAFKA_TOPIC"`
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level  string         `yaml:"level" env:"LOG_LEVEL"`   // 日志级别 (例如: "info", "debug", "warn", "error")
	Format string         `yaml:"format" env:"LOG_FORMAT"` // "json" 或 "text"
	Kafka  KafkaLogConfig `yaml:"kafka"`
}

// CollectionConfig 定义了创意采集服务端地址以及客户端行为。
type CollectionConfig struct {
	BaseURL         string `yaml:"baseURL" env:"COLLECTION_BASE_URL"`               // API 根地址，例如 http://localhost:7000/api/v1
	RequestTimeout  string `yaml:"requestTimeout" env:"COLLECTION_REQUEST_TIMEOUT"` // 单次请求超时，例如 "10s"
	PollInterval    string `yaml:"pollInterval" env:"COLLECTION_POLL_INTERVAL"`     // 任务状态轮询间隔
	PageSize        int    `yaml:"pageSize" env:"COLLECTION_PAGE_SIZE"`             // 列表每页大小 (1-100)
	EmptyPagePolicy string `yaml:"emptyPagePolicy" env:"COLLECTION_EMPTY_PAGE_POLICY"`
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`   // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password" env:"REDIS_PASSWORD"` // Redis 密码
	DB       int    `yaml:"db" env:"REDIS_DB"`             // Redis 数据库编号
}

// CacheConfig 定义了采集详情缓存的配置。
type CacheConfig struct {
	Capacity int         `yaml:"capacity" env:"CACHE_CAPACITY"`
	TTL      string      `yaml:"ttl" env:"CACHE_TTL"` // 例如: "10m"，为空表示永不过期
	Redis    RedisConfig `yaml:"redis"`
}

// JournalConfig 定义了本地 sqlite 任务记录的配置。
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" env:"JOURNAL_ENABLED"`
	Path    string `yaml:"path" env:"JOURNAL_PATH"`
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了令牌桶限流器的配置。
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled" env:"CIRCUIT_BREAKER_ENABLED"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Collection CollectionConfig `yaml:"collection"` // 采集服务配置
	Cache      CacheConfig      `yaml:"cache"`      // 详情缓存配置
	Journal    JournalConfig    `yaml:"journal"`    // 本地任务记录
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// Default 返回一份可以直接使用的默认配置。
func Default() *AppConfig {
	return &AppConfig{
		App: AppInfo{
			Name:        "collect-cli",
			Version:     "0.1.0",
			Environment: "development",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
			Kafka:  KafkaLogConfig{Topic: "collect_logs"},
		},
		Collection: CollectionConfig{
			BaseURL:         "http://localhost:7000/api/v1",
			RequestTimeout:  "10s",
			PollInterval:    "2s",
			PageSize:        10,
			EmptyPagePolicy: EmptyPageStay,
		},
		Cache: CacheConfig{
			Capacity: 256,
			TTL:      "10m",
			Redis:    RedisConfig{Address: "localhost:6379"},
		},
		Journal: JournalConfig{Path: "collect-journal.db"},
		Middleware: MiddlewareConfig{
			RateLimiter: RateLimiterConfig{Rate: 20, Capacity: 40},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 5,
				SuccessThreshold: 1,
				Timeout:          "30s",
			},
		},
	}
}

// LoadConfig 函数从指定路径加载 YAML 配置文件，再用环境变量覆盖。
// path 为空时只使用默认值和环境变量。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()
	if path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值范围和时长格式。
func (c *AppConfig) Validate() error {
	if c.Collection.BaseURL == "" {
		return fmt.Errorf("collection.baseURL 不能为空")
	}
	if c.Collection.PageSize < 1 || c.Collection.PageSize > 100 {
		return fmt.Errorf("collection.pageSize 必须在 1-100 之间, 当前为 %d", c.Collection.PageSize)
	}
	switch c.Collection.EmptyPagePolicy {
	case EmptyPageStay, EmptyPageStepBack:
	default:
		return fmt.Errorf("未知的 collection.emptyPagePolicy: %q", c.Collection.EmptyPagePolicy)
	}
	if _, err := c.Collection.Timeout(); err != nil {
		return err
	}
	if _, err := c.Collection.PollEvery(); err != nil {
		return err
	}
	if _, err := c.Cache.Expiry(); err != nil {
		return err
	}
	if c.Middleware.CircuitBreaker.Enabled {
		if _, err := c.Middleware.CircuitBreaker.OpenTimeout(); err != nil {
			return err
		}
	}
	return nil
}

// Timeout 返回单次请求超时。
func (c CollectionConfig) Timeout() (time.Duration, error) {
	return parseDuration("collection.requestTimeout", c.RequestTimeout)
}

// PollEvery 返回轮询间隔，必须大于 0。
func (c CollectionConfig) PollEvery() (time.Duration, error) {
	d, err := parseDuration("collection.pollInterval", c.PollInterval)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("collection.pollInterval 必须大于 0")
	}
	return d, nil
}

// Expiry 返回缓存过期时间，0 表示不过期。
func (c CacheConfig) Expiry() (time.Duration, error) {
	return parseDuration("cache.ttl", c.TTL)
}

// OpenTimeout 返回熔断器打开后的等待时间。
func (c CircuitBreakerConfig) OpenTimeout() (time.Duration, error) {
	return parseDuration("middleware.circuitBreaker.timeout", c.Timeout)
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("无效的时长 %s=%q: %w", key, value, err)
	}
	return d, nil
}
