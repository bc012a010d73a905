// =============================================================================
// 📦 convosim 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("convosim.yaml").
//	    WithEnvPrefix("CONVOSIM").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 convosim 的完整配置结构
type Config struct {
	// Simulation 模拟参数
	Simulation SimulationConfig `yaml:"simulation" envPrefix:"SIMULATION_"`

	// Content 内容包配置
	Content ContentConfig `yaml:"content" envPrefix:"CONTENT_"`

	// Store 对话记录存储配置
	Store StoreConfig `yaml:"store" envPrefix:"STORE_"`

	// Log 日志配置
	Log LogConfig `yaml:"log" envPrefix:"LOG_"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// SimulationConfig 模拟配置
type SimulationConfig struct {
	// 发起者: person0, person1
	Initiator string `yaml:"initiator" env:"INITIATOR"`
	// 冷场时继续闲聊的概率 [0,1]
	LullContinueChance float64 `yaml:"lull_continue_chance" env:"LULL_CONTINUE_CHANCE"`
	// 单个对话最大步数（0 表示不限制）
	MaxSteps int `yaml:"max_steps" env:"MAX_STEPS"`
	// 模拟的对话数量
	Conversations int `yaml:"conversations" env:"CONVERSATIONS"`
	// 并发度
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// 每秒最多开始的对话数（0 表示不限速）
	RatePerSecond float64 `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	// 随机种子（0 表示使用系统熵）
	Seed uint64 `yaml:"seed" env:"SEED"`
	// 单次运行超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// ContentConfig 内容包配置
type ContentConfig struct {
	// 内容包路径（YAML/JSON），为空时使用内置演示包
	Path string `yaml:"path" env:"PATH"`
}

// StoreConfig 对话记录存储配置
type StoreConfig struct {
	// 驱动类型: memory, sqlite, postgres, mysql, redis
	Driver string `yaml:"driver" env:"DRIVER"`
	// SQL 连接串
	DSN string `yaml:"dsn" env:"DSN"`
	// Redis 地址
	RedisAddr string `yaml:"redis_addr" env:"REDIS_ADDR"`
	// Redis 密码
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	// Redis 数据库编号
	RedisDB int `yaml:"redis_db" env:"REDIS_DB"`
	// Redis 键前缀
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// 记录过期时间（0 表示永不过期，仅 redis）
	TTL time.Duration `yaml:"ttl" env:"TTL"`
	// 最大连接数（SQL）
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
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

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// 指标命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// /metrics 监听地址
	Addr string `yaml:"addr" env:"ADDR"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "CONVOSIM",
		validators: make([]func(*Config) error, 0),
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

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → YAML 文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从 YAML 文件加载配置
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	prefix := ""
	if l.envPrefix != "" {
		prefix = l.envPrefix + "_"
	}
	return env.ParseWithOptions(cfg, env.Options{Prefix: prefix})
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	// 验证模拟配置
	switch c.Simulation.Initiator {
	case "person0", "person1", "random":
	default:
		errs = append(errs, "initiator must be person0, person1 or random")
	}
	if c.Simulation.LullContinueChance < 0 || c.Simulation.LullContinueChance > 1 {
		errs = append(errs, "lull_continue_chance must be between 0 and 1")
	}
	if c.Simulation.MaxSteps < 0 {
		errs = append(errs, "max_steps must not be negative")
	}
	if c.Simulation.Conversations <= 0 {
		errs = append(errs, "conversations must be positive")
	}
	if c.Simulation.Concurrency <= 0 {
		errs = append(errs, "concurrency must be positive")
	}
	if c.Simulation.RatePerSecond < 0 {
		errs = append(errs, "rate_per_second must not be negative")
	}

	// 验证存储配置
	switch c.Store.Driver {
	case "memory", "redis":
	case "sqlite", "postgres", "mysql":
		if c.Store.DSN == "" {
			errs = append(errs, "store dsn is required for driver "+c.Store.Driver)
		}
	default:
		errs = append(errs, "unsupported store driver: "+c.Store.Driver)
	}

	// 验证遥测配置
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, "sample_rate must be between 0 and 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
