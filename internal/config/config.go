package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 定义了应用程序的基本信息。
type AppInfo struct {
	Name    string `yaml:"name"`    // 应用名称
	Version string `yaml:"version"` // 应用版本
	Address string `yaml:"address"` // HTTP 服务监听地址 (例如: ":8000")
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
}

// MilvusConfig 定义了 Milvus 向量数据库的连接和集合配置。
type MilvusConfig struct {
	Address        string `yaml:"address"`        // Milvus 服务地址
	CollectionName string `yaml:"collectionName"` // 会话上下文集合名称
	VectorDim      int    `yaml:"vectorDim"`      // 嵌入向量维度
}

// DatabaseConfigs 聚合了所有数据库的配置。
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`  // MySQL 配置
	Redis  RedisConfig  `yaml:"redis"`  // Redis 配置
	Milvus MilvusConfig `yaml:"milvus"` // Milvus 配置
}

// ModelConfig 定义了单个模型的配置。
type ModelConfig struct {
	Name   string `yaml:"name"`   // 模型名称 (例如: "gpt-4")
	APIKey string `yaml:"apiKey"` // 该模型的 API 密钥
}

// LLMConfig 定义了大语言模型客户端的配置。
type LLMConfig struct {
	Provider string        `yaml:"provider"` // 模型提供商 ("openai" 或 "gemini")
	Models   []ModelConfig `yaml:"models"`   // 可用模型列表，第一个为默认模型
}

// EmbeddingConfig 定义了嵌入模型客户端的配置。
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // 模型提供商 ("openai" 或 "gemini")
	Model    string `yaml:"model"`    // 模型名称 (例如: "text-embedding-ada-002")
	APIKey   string `yaml:"apiKey"`   // API 密钥
}

// GoogleOAuthConfig 定义了 Google OAuth 的认证配置。
type GoogleOAuthConfig struct {
	ClientID     string `yaml:"clientId"`     // Google OAuth 客户端 ID
	ClientSecret string `yaml:"clientSecret"` // Google OAuth 客户端密钥
	RedirectURI  string `yaml:"redirectUri"`  // 授权回调地址
}

// TodoistOAuthConfig 定义了 Todoist OAuth 的认证配置。
type TodoistOAuthConfig struct {
	ClientID     string `yaml:"clientId"`     // Todoist OAuth 客户端 ID
	ClientSecret string `yaml:"clientSecret"` // Todoist OAuth 客户端密钥
	RedirectURI  string `yaml:"redirectUri"`  // 授权回调地址
}

// TwilioConfig 定义了 Twilio WhatsApp 通道的配置。
type TwilioConfig struct {
	AccountSID     string `yaml:"accountSid"`     // Twilio 账户 SID
	AuthToken      string `yaml:"authToken"`      // Twilio 认证令牌
	WhatsAppNumber string `yaml:"whatsappNumber"` // WhatsApp 发送号码
}

// AuthConfig 聚合了所有外部系统的认证配置。
type AuthConfig struct {
	Google  GoogleOAuthConfig  `yaml:"google"`  // Google OAuth 配置
	Todoist TodoistOAuthConfig `yaml:"todoist"` // Todoist OAuth 配置
	Twilio  TwilioConfig       `yaml:"twilio"`  // Twilio 配置
}

// SchedulerConfig 定义了会话调度核心的行为参数。
type SchedulerConfig struct {
	DefaultTimezone        string `yaml:"defaultTimezone"`        // 用户未指定时区时的默认时区
	DefaultDurationMinutes int    `yaml:"defaultDurationMinutes"` // 默认会议时长 (分钟)
	ContextTopK            int    `yaml:"contextTopK"`            // 语义检索返回的历史轮次数
	HistoryWindowDays      int    `yaml:"historyWindowDays"`      // 会议历史回溯窗口 (天)
	HistoryLimit           int    `yaml:"historyLimit"`           // 会议历史最大条数
	ExternalTimeoutSeconds int    `yaml:"externalTimeoutSeconds"` // 单次外部调用超时 (秒)
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (debug, info, warn, error)
}

// TokenBucketConfig 定义了令牌桶限流器的参数。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"`     // 令牌生成速率 (个/秒)
	Capacity int     `yaml:"capacity"` // 桶容量
}

// RateLimiterConfig 定义了限流中间件的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`     // 是否启用限流
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"` // 令牌桶参数
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`          // 是否启用熔断器
	FailureThreshold uint32 `yaml:"failureThreshold"` // 连续失败多少次后熔断
	SuccessThreshold uint32 `yaml:"successThreshold"` // 半开状态下连续成功多少次后恢复
	Timeout          string `yaml:"timeout"`          // 熔断后进入半开状态的等待时间 (例如: "30s")
}

// MiddlewareConfig 聚合了中间件相关配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`    // 限流配置
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"` // 熔断配置
}

// AppConfig 是应用程序的顶层配置结构。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Auth       AuthConfig       `yaml:"auth"`       // 认证配置
	LLM        LLMConfig        `yaml:"llm"`        // LLM 配置部分
	Embedding  EmbeddingConfig  `yaml:"embedding"`  // Embedding 配置部分
	Scheduler  SchedulerConfig  `yaml:"scheduler"`  // 调度核心配置
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	Databases  DatabaseConfigs  `yaml:"databases"`  // 数据库配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
}

// LoadConfig 从指定路径读取并解析 YAML 配置文件。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	// 将 YAML 内容解析到 cfg 结构体中。
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults 为缺省的调度参数填充默认值。
func (c *AppConfig) applyDefaults() {
	if c.Scheduler.DefaultTimezone == "" {
		c.Scheduler.DefaultTimezone = "Africa/Casablanca"
	}
	if c.Scheduler.DefaultDurationMinutes == 0 {
		c.Scheduler.DefaultDurationMinutes = 30
	}
	if c.Scheduler.ContextTopK == 0 {
		c.Scheduler.ContextTopK = 5
	}
	if c.Scheduler.HistoryWindowDays == 0 {
		c.Scheduler.HistoryWindowDays = 30
	}
	if c.Scheduler.HistoryLimit == 0 {
		c.Scheduler.HistoryLimit = 10
	}
	if c.Scheduler.ExternalTimeoutSeconds == 0 {
		c.Scheduler.ExternalTimeoutSeconds = 15
	}
	if c.Databases.Milvus.CollectionName == "" {
		c.Databases.Milvus.CollectionName = "conversation_context"
	}
	if c.Databases.Milvus.VectorDim == 0 {
		c.Databases.Milvus.VectorDim = 1536
	}
}
