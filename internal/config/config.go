package config

import (
	"errors"
	"strings"

	"github.com/cleyfe/chaincare/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Chain     ChainConfig     `mapstructure:"chain"`
	APY       APYConfig       `mapstructure:"apy"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Task      TaskConfig      `mapstructure:"task"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 链与金库合约配置
type ChainConfig struct {
	Enabled       bool                      `mapstructure:"enabled"`
	ChainType     string                    `mapstructure:"chain_type"`    // 链类型 (base, ethereum, ...)
	ChainId       int64                     `mapstructure:"chain_id"`      // 链ID
	RpcUrl        string                    `mapstructure:"rpc_url"`       // RPC节点URL
	PrivateKey    string                    `mapstructure:"private_key"`   // 服务端签名私钥，可为空
	Decimals      int32                     `mapstructure:"decimals"`      // 稳定币精度
	Confirmations int                       `mapstructure:"confirmations"` // 确认块数
	Contracts     map[string]ContractConfig `mapstructure:"contracts"`     // vault / token
}

// ContractConfig 单个合约配置
type ContractConfig struct {
	Address  string `mapstructure:"address"`   // 合约地址
	ABIPath  string `mapstructure:"abi_path"`  // ABI文件路径，为空时使用内置ABI
	Enabled  bool   `mapstructure:"enabled"`   // 是否启用此合约
	BlockNum int64  `mapstructure:"block_num"` // 合约部署区块号，监控起点
}

// APYConfig 收益率数据源配置
type APYConfig struct {
	URL            string  `mapstructure:"url"`
	VaultName      string  `mapstructure:"vault_name"`
	Fallback       float64 `mapstructure:"fallback"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	CacheSeconds   int     `mapstructure:"cache_seconds"`
}

type CacheConfig struct {
	Driver    string `mapstructure:"driver"` // memory, redis
	Size      uint32 `mapstructure:"size"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
	RedisPass string `mapstructure:"redis_password"`
}

// DefaultJWTSecret 开发用默认密钥，release 模式下禁止使用
const DefaultJWTSecret = "change-me"

type AuthConfig struct {
	JWTSecret       string   `mapstructure:"jwt_secret"`
	TokenTTLMinutes int      `mapstructure:"token_ttl_minutes"`
	NonceTTLSeconds int      `mapstructure:"nonce_ttl_seconds"`
	OperatorUsers   []string `mapstructure:"operator_users"`   // 可调用服务端金库操作的用户名
	OperatorWallets []string `mapstructure:"operator_wallets"` // 可调用服务端金库操作的钱包（钱包签名登录）
}

type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	Burst             int `mapstructure:"burst"`
}

type TaskConfig struct {
	APYRefreshInterval int `mapstructure:"apy_refresh_interval"` // 秒
	ReconcileInterval  int `mapstructure:"reconcile_interval"`   // 秒
	MonitorInterval    int `mapstructure:"monitor_interval"`     // 秒
	MonitorBatchSize   int `mapstructure:"monitor_batch_size"`   // 每批区块数
	MonitorWorkers     int `mapstructure:"monitor_workers"`      // 协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // stdout, stderr, file
	File   string `mapstructure:"file"`
}

func (l LogConfig) GetLevel() string {
	return l.Level
}

func (l LogConfig) GetOutput() string {
	return l.Output
}

func (l LogConfig) GetFile() string {
	return l.File
}

// SetDefaults 设置默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "chaincare")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("chain.enabled", false)
	v.SetDefault("chain.chain_type", "base")
	v.SetDefault("chain.chain_id", 8453)
	v.SetDefault("chain.rpc_url", "https://mainnet.base.org")
	v.SetDefault("chain.decimals", 6)
	v.SetDefault("chain.confirmations", 2)
	v.SetDefault("chain.contracts.vault.address", "0x45aa96f0b3188d47a1dafdbefce1db6b37f58216")
	v.SetDefault("chain.contracts.vault.enabled", true)
	v.SetDefault("chain.contracts.token.address", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	v.SetDefault("chain.contracts.token.enabled", true)

	v.SetDefault("apy.url", "https://api.ipor.io/fusion/vaults")
	v.SetDefault("apy.vault_name", "IPOR USDC Lending Optimizer Base")
	v.SetDefault("apy.fallback", 4.2)
	v.SetDefault("apy.timeout_seconds", 10)
	v.SetDefault("apy.cache_seconds", 300)

	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.size", 1024)
	v.SetDefault("cache.redis_addr", "localhost:6379")

	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.operator_users", []string{})
	v.SetDefault("auth.operator_wallets", []string{})
	v.SetDefault("auth.token_ttl_minutes", 60*24)
	v.SetDefault("auth.nonce_ttl_seconds", 300)

	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("task.apy_refresh_interval", 300)
	v.SetDefault("task.reconcile_interval", 3600)
	v.SetDefault("task.monitor_interval", 60)
	v.SetDefault("task.monitor_batch_size", 500)
	v.SetDefault("task.monitor_workers", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

// Load 读取 .env、config.yaml 与环境变量
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded environment from .env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/chaincare")

	SetDefaults(v)

	// CHAINCARE_DATABASE_HOST -> database.host
	v.SetEnvPrefix("chaincare")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Could not read config file: %v", err)
	}

	cfg, err := Decode(v)
	if err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config: %v", err)
	}
	return cfg
}

// Validate 检查无法安全启动的配置
func (c *Config) Validate() error {
	if c.Server.Mode == "release" && (c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret) {
		return errors.New("auth.jwt_secret must be set in release mode")
	}
	return nil
}

// Decode 将 viper 内容解码为 Config
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
